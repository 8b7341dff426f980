package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"amendvote-be/internal/domain"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"
)

// ContextKey represents keys used in request context.
type ContextKey string

const (
	// SessionContextKey is the key for the authenticated session in context.
	SessionContextKey ContextKey = "session"
	// RequestIDContextKey is the key for the request ID in context.
	RequestIDContextKey ContextKey = "request_id"
)

// Authenticator resolves a bearer token to a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// Auth gates requests by session token. The Authorization header carries the
// raw token; a leading "Bearer " prefix is tolerated and stripped.
func Auth(auth Authenticator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeErrorResponse(w, apperrors.NewAuthenticationError("Not authorized, no token"), log)
				return
			}

			ctx := r.Context()
			session, err := auth.Authenticate(ctx, token)
			if err != nil {
				appErr := apperrors.AsAppError(err)
				if appErr == nil {
					appErr = apperrors.NewAuthenticationError("Not authorized, token failed")
				}
				writeErrorResponse(w, appErr, log)
				return
			}

			ctx = context.WithValue(ctx, SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects any caller whose session is not an admin. Must run
// after Auth.
func RequireAdmin(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil {
				writeErrorResponse(w, apperrors.NewAuthenticationError("Not authorized, no token"), log)
				return
			}
			if !session.IsAdmin {
				log.WithField("user_id", session.UserID).Warn("non-admin blocked from admin endpoint")
				writeErrorResponse(w, apperrors.NewForbiddenError("Unauthorized"), log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID adds a unique request ID to each request and response.
func RequestID(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest extracts the session token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	token := r.Header.Get("Authorization")
	token = strings.TrimPrefix(token, "Bearer ")
	return strings.TrimSpace(token)
}

// SessionFromContext returns the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *domain.Session {
	if session, ok := ctx.Value(SessionContextKey).(*domain.Session); ok {
		return session
	}
	return nil
}

func writeErrorResponse(w http.ResponseWriter, appErr *apperrors.AppError, log *logger.Logger) {
	log.WithError(appErr).Debug("request rejected")

	response := &apperrors.ErrorResponse{}
	response.Error.Code = appErr.Code
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}
