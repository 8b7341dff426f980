package domain

import "time"

// Amendment is a proposal subject to a YES/NO vote. YesVotes and NoVotes are
// denormalized aggregates of the vote ledger, maintained by atomic
// increment/decrement and repairable via reconciliation.
type Amendment struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	IsVotingOpen bool      `json:"isVotingOpen"`
	ShowResults  bool      `json:"showResults"`
	YesVotes     int       `json:"yesVotes"`
	NoVotes      int       `json:"noVotes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicTally is the one unauthenticated read: aggregate counts without any
// per-voter identity.
type PublicTally struct {
	AmendmentTitle string `json:"amendmentTitle"`
	IsVotingOpen   bool   `json:"isVotingOpen"`
	YesVotes       int    `json:"yesVotes"`
	NoVotes        int    `json:"noVotes"`
	ShowResults    bool   `json:"showResults"`
}

// ToggleVotingRequest is the body of PUT /vote/{id}/toggle-voting.
type ToggleVotingRequest struct {
	IsVotingOpen bool `json:"isVotingOpen"`
}

// ToggleResultsRequest is the body of PUT /vote/{id}/toggle-results.
type ToggleResultsRequest struct {
	ShowResults bool `json:"showResults"`
}
