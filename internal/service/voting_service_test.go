package service

import (
	"context"
	"testing"

	"amendvote-be/internal/domain"
	"amendvote-be/internal/testutil"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type votingFixture struct {
	users      *testutil.FakeUserRepository
	amendments *testutil.FakeAmendmentRepository
	votes      *testutil.FakeVoteRepository
	service    *VotingService
}

func newVotingFixture(t *testing.T) *votingFixture {
	t.Helper()

	users := testutil.NewFakeUserRepository()
	votes := testutil.NewFakeVoteRepository()
	votes.Users = users
	amendments := testutil.NewFakeAmendmentRepository()
	amendments.Votes = votes

	return &votingFixture{
		users:      users,
		amendments: amendments,
		votes:      votes,
		service:    NewVotingService(votes, amendments, nil, logger.NewNop()),
	}
}

func (f *votingFixture) addUser(t *testing.T, name, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestSubmitVoteValidation(t *testing.T) {
	tests := []struct {
		name string
		req  domain.VoteRequest
		code apperrors.ErrorCode
	}{
		{
			name: "zero amendment id",
			req:  domain.VoteRequest{AmendmentID: 0, Choice: "YES"},
			code: apperrors.CodeInvalidInput,
		},
		{
			name: "negative amendment id",
			req:  domain.VoteRequest{AmendmentID: -3, Choice: "YES"},
			code: apperrors.CodeInvalidInput,
		},
		{
			name: "empty choice",
			req:  domain.VoteRequest{AmendmentID: 1, Choice: ""},
			code: apperrors.CodeInvalidInput,
		},
		{
			name: "lowercase choice",
			req:  domain.VoteRequest{AmendmentID: 1, Choice: "yes"},
			code: apperrors.CodeInvalidInput,
		},
		{
			name: "abstain is not a ballot option",
			req:  domain.VoteRequest{AmendmentID: 1, Choice: "ABSTAIN"},
			code: apperrors.CodeInvalidInput,
		},
		{
			name: "unknown amendment",
			req:  domain.VoteRequest{AmendmentID: 999, Choice: "YES"},
			code: apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVotingFixture(t)
			user := f.addUser(t, "Ann", "ann@example.com")
			f.amendments.Add(domain.Amendment{Title: "Amendment 1", IsVotingOpen: true})

			_, err := f.service.SubmitVote(context.Background(), user.ID, &tt.req)
			requireCode(t, err, tt.code)
		})
	}
}

func TestSubmitVoteIncrementsExactlyOneCounter(t *testing.T) {
	f := newVotingFixture(t)
	user := f.addUser(t, "Ann", "ann@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	resp, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)
	assert.Equal(t, "Vote recorded successfully", resp.Message)
	assert.NotEmpty(t, resp.VoteID)
	assert.Equal(t, amendment.ID, resp.AmendmentID)

	stored, err := f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.YesVotes)
	assert.Equal(t, 0, stored.NoVotes)
}

func TestSubmitVoteClosedWindow(t *testing.T) {
	f := newVotingFixture(t)
	user := f.addUser(t, "Ann", "ann@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: false})

	_, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "NO",
	})
	requireCode(t, err, apperrors.CodeVotingClosed)

	stored, err := f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.YesVotes)
	assert.Equal(t, 0, stored.NoVotes)
}

func TestSubmitVoteClosedWindowAfterPriorVote(t *testing.T) {
	// Closing the window wins over every other condition, including a prior
	// vote by the same user.
	f := newVotingFixture(t)
	user := f.addUser(t, "Ann", "ann@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	_, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)

	_, err = f.amendments.SetVotingOpen(context.Background(), amendment.ID, false)
	require.NoError(t, err)

	_, err = f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	requireCode(t, err, apperrors.CodeVotingClosed)
}

func TestSubmitVoteDuplicateRejected(t *testing.T) {
	f := newVotingFixture(t)
	user := f.addUser(t, "Ann", "ann@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	first, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)

	// Second attempt, even with the opposite choice, must be rejected and
	// must not move either counter.
	_, err = f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "NO",
	})
	appErr := requireCode(t, err, apperrors.CodeAlreadyVoted)
	assert.Equal(t, first.VoteID, appErr.Details["existingVoteId"])

	stored, err := f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.YesVotes)
	assert.Equal(t, 0, stored.NoVotes)
}

func TestSubmitVoteUniqueConstraintRace(t *testing.T) {
	// Simulates the loser of a concurrent double-submit: the existence check
	// passed but the insert hits the compound unique constraint.
	f := newVotingFixture(t)
	user := f.addUser(t, "Ann", "ann@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	f.votes.CreateErr = testutil.UniqueViolation("votes_user_id_amendment_id_key")

	_, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	requireCode(t, err, apperrors.CodeAlreadyVoted)

	stored, err := f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.YesVotes, "tally must not move when the insert was rejected")
	assert.Equal(t, 0, stored.NoVotes)
}

func TestSubmitVoteIndependentUsers(t *testing.T) {
	f := newVotingFixture(t)
	ann := f.addUser(t, "Ann", "ann@example.com")
	bob := f.addUser(t, "Bob", "bob@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	_, err := f.service.SubmitVote(context.Background(), ann.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)

	_, err = f.service.SubmitVote(context.Background(), bob.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "NO",
	})
	require.NoError(t, err)

	stored, err := f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.YesVotes)
	assert.Equal(t, 1, stored.NoVotes)
}

func TestSubmitVoteIndependentAmendments(t *testing.T) {
	// One vote per amendment does not block votes on other amendments.
	f := newVotingFixture(t)
	user := f.addUser(t, "Ann", "ann@example.com")
	first := f.amendments.Add(domain.Amendment{Title: "First", IsVotingOpen: true})
	second := f.amendments.Add(domain.Amendment{Title: "Second", IsVotingOpen: true})

	_, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: first.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)

	_, err = f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: second.ID,
		Choice:      "NO",
	})
	require.NoError(t, err)
}

func TestDeleteVoteFreesSlotAndRestoresTally(t *testing.T) {
	f := newVotingFixture(t)
	user := f.addUser(t, "Ann", "ann@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	resp, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)

	deleted, err := f.service.DeleteVote(context.Background(), resp.VoteID)
	require.NoError(t, err)
	assert.Equal(t, resp.VoteID, deleted.VoteID)
	assert.Equal(t, domain.ChoiceYes, deleted.Choice)

	stored, err := f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.YesVotes)

	// The slot is free again; the user may recast, with a fresh vote id.
	second, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "NO",
	})
	require.NoError(t, err)
	assert.NotEqual(t, resp.VoteID, second.VoteID)

	stored, err = f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.YesVotes)
	assert.Equal(t, 1, stored.NoVotes)
}

func TestDeleteVoteNotFound(t *testing.T) {
	f := newVotingFixture(t)

	_, err := f.service.DeleteVote(context.Background(), "no-such-vote")
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.service.DeleteVote(context.Background(), "")
	requireCode(t, err, apperrors.CodeInvalidInput)
}

func TestHasVoted(t *testing.T) {
	f := newVotingFixture(t)
	user := f.addUser(t, "Ann", "ann@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	status, err := f.service.HasVoted(context.Background(), user.ID, amendment.ID)
	require.NoError(t, err)
	assert.False(t, status.HasVoted)
	assert.Nil(t, status.Vote)

	resp, err := f.service.SubmitVote(context.Background(), user.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "NO",
	})
	require.NoError(t, err)

	status, err = f.service.HasVoted(context.Background(), user.ID, amendment.ID)
	require.NoError(t, err)
	assert.True(t, status.HasVoted)
	require.NotNil(t, status.Vote)
	assert.Equal(t, domain.ChoiceNo, status.Vote.Choice)
	assert.Equal(t, resp.VoteID, status.Vote.VoteID)
}

func TestListVotes(t *testing.T) {
	f := newVotingFixture(t)
	ann := f.addUser(t, "Ann", "ann@example.com")
	bob := f.addUser(t, "Bob", "bob@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	_, err := f.service.SubmitVote(context.Background(), ann.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)
	_, err = f.service.SubmitVote(context.Background(), bob.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "NO",
	})
	require.NoError(t, err)

	breakdown, err := f.service.ListVotes(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Term limits", breakdown.AmendmentTitle)
	assert.Equal(t, 1, breakdown.YesVotes)
	assert.Equal(t, 1, breakdown.NoVotes)
	require.Len(t, breakdown.Votes, 2)
	assert.Equal(t, "Ann", breakdown.Votes[0].VoterName)
	assert.Equal(t, "ann@example.com", breakdown.Votes[0].VoterEmail)
	assert.Equal(t, domain.ChoiceYes, breakdown.Votes[0].Choice)
	assert.Equal(t, "Bob", breakdown.Votes[1].VoterName)
}

func TestListVotesEmptyAndMissing(t *testing.T) {
	f := newVotingFixture(t)
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits"})

	breakdown, err := f.service.ListVotes(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.NotNil(t, breakdown.Votes)
	assert.Empty(t, breakdown.Votes)

	_, err = f.service.ListVotes(context.Background(), amendment.ID+100)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestVoteThenDeleteScenario(t *testing.T) {
	// Full lifecycle: closed by default, opened by an admin, one vote per
	// voter, admin deletes one, the voter recasts.
	f := newVotingFixture(t)
	ann := f.addUser(t, "Ann", "ann@example.com")
	bob := f.addUser(t, "Bob", "bob@example.com")
	amendment := f.amendments.Add(domain.Amendment{Title: "Term limits"})

	_, err := f.service.SubmitVote(context.Background(), ann.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	requireCode(t, err, apperrors.CodeVotingClosed)

	_, err = f.amendments.SetVotingOpen(context.Background(), amendment.ID, true)
	require.NoError(t, err)

	annVote, err := f.service.SubmitVote(context.Background(), ann.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)

	_, err = f.service.SubmitVote(context.Background(), bob.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.NoError(t, err)

	stored, err := f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.YesVotes)

	_, err = f.service.DeleteVote(context.Background(), annVote.VoteID)
	require.NoError(t, err)

	_, err = f.service.SubmitVote(context.Background(), ann.ID, &domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "NO",
	})
	require.NoError(t, err)

	stored, err = f.amendments.GetByID(context.Background(), amendment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.YesVotes)
	assert.Equal(t, 1, stored.NoVotes)
}
