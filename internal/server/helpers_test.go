package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/launchpadhq/launchpad/internal/config"
	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/queue"
	"github.com/launchpadhq/launchpad/internal/server/middleware"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-key-0123456789")
	cfg, err := config.NewJWTConfig()
	require.NoError(t, err)
	return NewJWTService(cfg)
}

func newTestPasswords(t *testing.T) *config.PasswordConfig {
	t.Helper()
	t.Setenv("BCRYPT_COST", "10")
	cfg, err := config.NewPasswordConfig()
	require.NoError(t, err)
	return cfg
}

// stubEnqueuer records enqueued work for assertion.
type stubEnqueuer struct {
	scoringIDs []uuid.UUID
	scoringErr error
	emails     []queue.EmailJob
	emailErr   error
}

func (s *stubEnqueuer) EnqueueScoring(ctx context.Context, applicationID uuid.UUID) error {
	s.scoringIDs = append(s.scoringIDs, applicationID)
	return s.scoringErr
}

func (s *stubEnqueuer) EnqueueEmail(ctx context.Context, job queue.EmailJob) error {
	s.emails = append(s.emails, job)
	return s.emailErr
}

// jsonReq builds a request with a JSON body.
func jsonReq(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// authedReq builds a JSON request carrying an authenticated identity, as the
// auth middleware would have left it.
func authedReq(t *testing.T, method, target string, body any, userID uuid.UUID, role db.Role) *http.Request {
	t.Helper()
	req := jsonReq(t, method, target, body)
	return req.WithContext(middleware.WithIdentity(req.Context(), userID, string(role)))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}
