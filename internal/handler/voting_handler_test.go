package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"amendvote-be/internal/domain"
	"amendvote-be/internal/middleware"
	"amendvote-be/internal/service"
	"amendvote-be/internal/testutil"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer wires the full request path the way the production router does:
// chi routing, auth middleware, handlers, services, in-memory stores.
type testServer struct {
	router     *chi.Mux
	users      *testutil.FakeUserRepository
	amendments *testutil.FakeAmendmentRepository
	votes      *testutil.FakeVoteRepository
	sessions   *testutil.FakeSessionStore
	auth       *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.NewNop()

	users := testutil.NewFakeUserRepository()
	votes := testutil.NewFakeVoteRepository()
	votes.Users = users
	amendments := testutil.NewFakeAmendmentRepository()
	amendments.Votes = votes
	sessions := testutil.NewFakeSessionStore()

	authService := service.NewAuthService(users, sessions, log)
	votingService := service.NewVotingService(votes, amendments, nil, log)
	amendmentService := service.NewAmendmentService(amendments, nil, log)

	authHandler := NewAuthHandler(authService, log)
	votingHandler := NewVotingHandler(votingService, log)
	amendmentHandler := NewAmendmentHandler(amendmentService, log)

	requireAuth := middleware.Auth(authService, log)
	requireAdmin := middleware.RequireAdmin(log)

	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", authHandler.Logout)
			r.Get("/check", authHandler.Check)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/create-admin", authHandler.CreateAdmin)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/amendments", amendmentHandler.List)
	})

	r.Route("/vote", func(r chi.Router) {
		r.Get("/public/{amendmentId}", amendmentHandler.PublicTally)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/", votingHandler.SubmitVote)
			r.Get("/{id}/has-voted", votingHandler.HasVoted)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/{id}", votingHandler.ListVotes)
				r.Put("/{id}/toggle-voting", amendmentHandler.ToggleVoting)
				r.Put("/{id}/toggle-results", amendmentHandler.ToggleResults)
				r.Post("/{id}/reconcile", amendmentHandler.Reconcile)
				r.Delete("/{id}", votingHandler.DeleteVote)
			})
		})
	})

	return &testServer{
		router:     r,
		users:      users,
		amendments: amendments,
		votes:      votes,
		sessions:   sessions,
		auth:       authService,
	}
}

// do performs a request against the test router. A non-empty token is sent as
// the raw Authorization header.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// signupVoter registers a voter over HTTP and returns their session token.
func (s *testServer) signupVoter(t *testing.T, name, email string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/auth/signup", "", domain.SignupRequest{
		Name:     name,
		Email:    email,
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp domain.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionToken)
	return resp.SessionToken
}

// adminToken seeds an admin user directly and opens a session for them.
func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()

	user := &domain.User{Name: "Root", Email: "root@example.com", PasswordHash: "x", IsAdmin: true}
	require.NoError(t, s.users.Create(context.Background(), user))

	token, err := s.sessions.Create(context.Background(), domain.Session{
		UserID:  user.ID,
		Name:    user.Name,
		IsAdmin: true,
	})
	require.NoError(t, err)
	return token
}

func errorCode(t *testing.T, body []byte) apperrors.ErrorCode {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error.Code
}

func TestSubmitVoteEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := s.signupVoter(t, "Ann", "ann@example.com")
	amendment := s.amendments.Add(domain.Amendment{Title: "Term limits", IsVotingOpen: true})

	rec := s.do(t, http.MethodPost, "/vote/", token, domain.VoteRequest{
		AmendmentID: amendment.ID,
		Choice:      "YES",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp domain.VoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Vote recorded successfully", resp.Message)
	assert.NotEmpty(t, resp.VoteID)
}

func TestSubmitVoteEndpointRejections(t *testing.T) {
	s := newTestServer(t)
	token := s.signupVoter(t, "Ann", "ann@example.com")
	open := s.amendments.Add(domain.Amendment{Title: "Open", IsVotingOpen: true})
	closed := s.amendments.Add(domain.Amendment{Title: "Closed", IsVotingOpen: false})

	// First vote succeeds, setting up the duplicate case.
	rec := s.do(t, http.MethodPost, "/vote/", token, domain.VoteRequest{AmendmentID: open.ID, Choice: "YES"})
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name       string
		token      string
		body       interface{}
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{
			name:       "no token",
			body:       domain.VoteRequest{AmendmentID: open.ID, Choice: "YES"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   apperrors.CodeAuthentication,
		},
		{
			name:       "malformed body",
			token:      token,
			body:       "not-json",
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
		{
			name:       "bad choice",
			token:      token,
			body:       domain.VoteRequest{AmendmentID: open.ID, Choice: "MAYBE"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
		{
			name:       "closed amendment",
			token:      token,
			body:       domain.VoteRequest{AmendmentID: closed.ID, Choice: "YES"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeVotingClosed,
		},
		{
			name:       "duplicate vote",
			token:      token,
			body:       domain.VoteRequest{AmendmentID: open.ID, Choice: "NO"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeAlreadyVoted,
		},
		{
			name:       "unknown amendment",
			token:      token,
			body:       domain.VoteRequest{AmendmentID: 999, Choice: "YES"},
			wantStatus: http.StatusNotFound,
			wantCode:   apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/vote/", tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, rec.Body.Bytes()))
		})
	}
}

func TestPublicTallyEndpointRequiresNoAuth(t *testing.T) {
	s := newTestServer(t)
	amendment := s.amendments.Add(domain.Amendment{
		Title:       "Term limits",
		ShowResults: true,
		YesVotes:    4,
		NoVotes:     2,
	})

	rec := s.do(t, http.MethodGet, "/vote/public/"+itoa(amendment.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tally domain.PublicTally
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tally))
	assert.Equal(t, "Term limits", tally.AmendmentTitle)
	assert.Equal(t, 4, tally.YesVotes)
	assert.Equal(t, 2, tally.NoVotes)

	rec = s.do(t, http.MethodGet, "/vote/public/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/vote/public/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminEndpointsForbiddenForVoters(t *testing.T) {
	s := newTestServer(t)
	voterToken := s.signupVoter(t, "Ann", "ann@example.com")
	amendment := s.amendments.Add(domain.Amendment{Title: "Term limits"})

	paths := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/vote/" + itoa(amendment.ID), nil},
		{http.MethodPut, "/vote/" + itoa(amendment.ID) + "/toggle-voting", domain.ToggleVotingRequest{IsVotingOpen: true}},
		{http.MethodPut, "/vote/" + itoa(amendment.ID) + "/toggle-results", domain.ToggleResultsRequest{ShowResults: true}},
		{http.MethodPost, "/vote/" + itoa(amendment.ID) + "/reconcile", nil},
		{http.MethodDelete, "/vote/some-vote-id", nil},
		{http.MethodPost, "/auth/create-admin", domain.SignupRequest{Name: "X", Email: "x@example.com", Password: "secret1"}},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := s.do(t, p.method, p.path, voterToken, p.body)
			assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
			assert.Equal(t, apperrors.CodeForbidden, errorCode(t, rec.Body.Bytes()))
		})
	}
}

func TestAdminVoteManagementFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	voter := s.signupVoter(t, "Ann", "ann@example.com")
	amendment := s.amendments.Add(domain.Amendment{Title: "Term limits"})

	// Open voting.
	rec := s.do(t, http.MethodPut, "/vote/"+itoa(amendment.ID)+"/toggle-voting", admin,
		domain.ToggleVotingRequest{IsVotingOpen: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Voting opened successfully")

	// Voter casts a ballot.
	rec = s.do(t, http.MethodPost, "/vote/", voter, domain.VoteRequest{AmendmentID: amendment.ID, Choice: "YES"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var voteResp domain.VoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voteResp))

	// Voter sees their own status.
	rec = s.do(t, http.MethodGet, "/vote/"+itoa(amendment.ID)+"/has-voted", voter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status domain.VoteStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.HasVoted)

	// Admin sees the per-voter breakdown.
	rec = s.do(t, http.MethodGet, "/vote/"+itoa(amendment.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var breakdown domain.AmendmentVotes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &breakdown))
	require.Len(t, breakdown.Votes, 1)
	assert.Equal(t, "Ann", breakdown.Votes[0].VoterName)
	assert.Equal(t, 1, breakdown.YesVotes)

	// Admin deletes the vote; the tally compensates.
	rec = s.do(t, http.MethodDelete, "/vote/"+voteResp.VoteID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Vote deleted successfully")

	rec = s.do(t, http.MethodGet, "/vote/"+itoa(amendment.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &breakdown))
	assert.Empty(t, breakdown.Votes)
	assert.Equal(t, 0, breakdown.YesVotes)

	// Deleting again is a 404.
	rec = s.do(t, http.MethodDelete, "/vote/"+voteResp.VoteID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcileEndpoint(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	amendment := s.amendments.Add(domain.Amendment{Title: "Term limits", YesVotes: 9})
	require.NoError(t, s.votes.Create(context.Background(), &domain.Vote{
		VoteID:      "v1",
		UserID:      1,
		AmendmentID: amendment.ID,
		Choice:      domain.ChoiceYes,
	}))

	rec := s.do(t, http.MethodPost, "/vote/"+itoa(amendment.ID)+"/reconcile", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Amendment domain.Amendment `json:"amendment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Amendment.YesVotes)
	assert.Equal(t, 0, resp.Amendment.NoVotes)
}

func TestAmendmentsListRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	s.amendments.Add(domain.Amendment{Title: "Term limits"})

	rec := s.do(t, http.MethodGet, "/amendments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := s.signupVoter(t, "Ann", "ann@example.com")
	rec = s.do(t, http.MethodGet, "/amendments", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []domain.Amendment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
