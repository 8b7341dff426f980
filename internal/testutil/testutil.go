// Package testutil provides in-memory fakes for the repository and session
// interfaces so service and handler logic can be exercised without Postgres.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"amendvote-be/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolation mimics the Postgres error surfaced by a violated unique
// constraint.
func UniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// FakeUserRepository is an in-memory UserRepository.
type FakeUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{users: make(map[int64]*domain.User)}
}

func (r *FakeUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *FakeUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return UniqueViolation("users_email_key")
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

// FakeAmendmentRepository is an in-memory AmendmentRepository. If Votes is
// set, RecountTallies counts from it.
type FakeAmendmentRepository struct {
	mu         sync.Mutex
	nextID     int64
	amendments map[int64]*domain.Amendment

	Votes *FakeVoteRepository
}

func NewFakeAmendmentRepository() *FakeAmendmentRepository {
	return &FakeAmendmentRepository{amendments: make(map[int64]*domain.Amendment)}
}

// Add stores an amendment and returns it with an assigned ID.
func (r *FakeAmendmentRepository) Add(a domain.Amendment) *domain.Amendment {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Millisecond)
	}
	r.amendments[a.ID] = &a
	copied := a
	return &copied
}

func (r *FakeAmendmentRepository) GetByID(ctx context.Context, id int64) (*domain.Amendment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.amendments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (r *FakeAmendmentRepository) List(ctx context.Context) ([]domain.Amendment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Amendment, 0, len(r.amendments))
	for _, a := range r.amendments {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *FakeAmendmentRepository) SetVotingOpen(ctx context.Context, id int64, open bool) (*domain.Amendment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.amendments[id]
	if !ok {
		return nil, nil
	}
	a.IsVotingOpen = open
	copied := *a
	return &copied, nil
}

func (r *FakeAmendmentRepository) SetShowResults(ctx context.Context, id int64, visible bool) (*domain.Amendment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.amendments[id]
	if !ok {
		return nil, nil
	}
	a.ShowResults = visible
	copied := *a
	return &copied, nil
}

func (r *FakeAmendmentRepository) IncrementTally(ctx context.Context, id int64, choice domain.Choice, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.amendments[id]
	if !ok {
		return fmt.Errorf("amendment %d not found for tally update", id)
	}
	if choice == domain.ChoiceYes {
		a.YesVotes += delta
		if a.YesVotes < 0 {
			a.YesVotes = 0
		}
	} else {
		a.NoVotes += delta
		if a.NoVotes < 0 {
			a.NoVotes = 0
		}
	}
	return nil
}

func (r *FakeAmendmentRepository) RecountTallies(ctx context.Context, id int64) (*domain.Amendment, error) {
	r.mu.Lock()
	a, ok := r.amendments[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}

	yes, no := 0, 0
	if r.Votes != nil {
		for _, v := range r.Votes.all() {
			if v.AmendmentID != id {
				continue
			}
			if v.Choice == domain.ChoiceYes {
				yes++
			} else {
				no++
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a.YesVotes = yes
	a.NoVotes = no
	copied := *a
	return &copied, nil
}

// FakeVoteRepository is an in-memory VoteRepository. If Users is set,
// ListByAmendment joins voter identity from it.
type FakeVoteRepository struct {
	mu     sync.Mutex
	nextID int64
	votes  map[string]*domain.Vote

	Users *FakeUserRepository

	// CreateErr, when set, is returned by the next Create call.
	CreateErr error
}

func NewFakeVoteRepository() *FakeVoteRepository {
	return &FakeVoteRepository{votes: make(map[string]*domain.Vote)}
}

func (r *FakeVoteRepository) all() []domain.Vote {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Vote, 0, len(r.votes))
	for _, v := range r.votes {
		out = append(out, *v)
	}
	return out
}

func (r *FakeVoteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		err := r.CreateErr
		r.CreateErr = nil
		return err
	}
	for _, v := range r.votes {
		if v.UserID == vote.UserID && v.AmendmentID == vote.AmendmentID {
			return UniqueViolation("votes_user_id_amendment_id_key")
		}
	}
	r.nextID++
	vote.ID = r.nextID
	vote.CreatedAt = time.Now()
	copied := *vote
	r.votes[vote.VoteID] = &copied
	return nil
}

func (r *FakeVoteRepository) GetByUserAndAmendment(ctx context.Context, userID, amendmentID int64) (*domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.UserID == userID && v.AmendmentID == amendmentID {
			copied := *v
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeVoteRepository) Delete(ctx context.Context, voteID string) (*domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.votes[voteID]
	if !ok {
		return nil, nil
	}
	delete(r.votes, voteID)
	copied := *v
	return &copied, nil
}

func (r *FakeVoteRepository) ListByAmendment(ctx context.Context, amendmentID int64) ([]domain.VoterVote, error) {
	votes := r.all()
	sort.Slice(votes, func(i, j int) bool { return votes[i].ID < votes[j].ID })

	var out []domain.VoterVote
	for _, v := range votes {
		if v.AmendmentID != amendmentID {
			continue
		}
		vv := domain.VoterVote{
			VoteID:    v.VoteID,
			Choice:    v.Choice,
			CreatedAt: v.CreatedAt,
		}
		if r.Users != nil {
			if u, _ := r.Users.GetByID(ctx, v.UserID); u != nil {
				vv.VoterName = u.Name
				vv.VoterEmail = u.Email
			}
		}
		out = append(out, vv)
	}
	return out, nil
}

// FakeSessionStore is an in-memory SessionStore issuing sequential tokens.
type FakeSessionStore struct {
	mu       sync.Mutex
	nextID   int
	sessions map[string]domain.Session
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *FakeSessionStore) Create(ctx context.Context, session domain.Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	token := fmt.Sprintf("token-%d", s.nextID)
	s.sessions[token] = session
	return token, nil
}

func (s *FakeSessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[token]; ok {
		return &session, nil
	}
	return nil, nil
}

func (s *FakeSessionStore) Delete(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return false, nil
	}
	delete(s.sessions, token)
	return true, nil
}
