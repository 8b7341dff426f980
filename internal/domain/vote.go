package domain

import "time"

// Choice is a ballot option. Only the literal strings "YES" and "NO" are
// accepted; anything else is rejected before it reaches storage.
type Choice string

const (
	ChoiceYes Choice = "YES"
	ChoiceNo  Choice = "NO"
)

// Valid reports whether the choice is one of the two ballot options.
func (c Choice) Valid() bool {
	return c == ChoiceYes || c == ChoiceNo
}

// Vote is one row of the append-only vote ledger. At most one Vote exists per
// (user, amendment) pair, enforced by a compound unique constraint. Votes are
// immutable once created; only an admin delete removes them.
type Vote struct {
	ID          int64     `json:"id"`
	VoteID      string    `json:"voteId"`
	UserID      int64     `json:"userId"`
	AmendmentID int64     `json:"amendmentId"`
	Choice      Choice    `json:"choice"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VoteRequest is the body of POST /vote.
type VoteRequest struct {
	AmendmentID int64  `json:"amendmentId"`
	Choice      string `json:"choice"`
}

// VoteResponse is returned after a successful vote submission.
type VoteResponse struct {
	Message     string `json:"message"`
	VoteID      string `json:"voteId"`
	AmendmentID int64  `json:"amendmentId"`
}

// VoterVote is a ledger row annotated with the voting user's identity, for
// the admin-only listing.
type VoterVote struct {
	VoteID     string    `json:"voteId"`
	Choice     Choice    `json:"choice"`
	VoterName  string    `json:"voterName"`
	VoterEmail string    `json:"voterEmail"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AmendmentVotes is the admin-only per-amendment vote breakdown.
type AmendmentVotes struct {
	AmendmentTitle string      `json:"amendmentTitle"`
	IsVotingOpen   bool        `json:"isVotingOpen"`
	YesVotes       int         `json:"yesVotes"`
	NoVotes        int         `json:"noVotes"`
	Votes          []VoterVote `json:"votes"`
}

// VoteInfo is the detail returned when a user has already voted.
type VoteInfo struct {
	Choice  Choice    `json:"choice"`
	VoteID  string    `json:"voteId"`
	VotedAt time.Time `json:"votedAt"`
}

// VoteStatus answers "has this user voted on this amendment".
type VoteStatus struct {
	HasVoted bool      `json:"hasVoted"`
	Vote     *VoteInfo `json:"vote,omitempty"`
}
