package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator is a test implementation of TokenValidator for unit tests.
type testTokenValidator struct {
	validTokens map[string]testClaims
}

func newTestTokenValidator() *testTokenValidator {
	return &testTokenValidator{
		validTokens: make(map[string]testClaims),
	}
}

func (v *testTokenValidator) addValidToken(token string, userID uuid.UUID, role string) {
	v.validTokens[token] = testClaims{userID: userID, role: role}
}

func (v *testTokenValidator) ValidateToken(tokenString string) (ClaimsGetter, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}
	claims, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return &claims, nil
}

type testClaims struct {
	userID uuid.UUID
	role   string
}

func (c *testClaims) GetUserID() uuid.UUID {
	return c.userID
}

func (c *testClaims) GetRole() string {
	return c.role
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestTokenValidator()
	userID := uuid.New()

	token := "valid-test-token-123"
	jwtService.addValidToken(token, userID, "student")

	handlerCalled := false
	var contextUserID uuid.UUID
	var contextRole string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		extractedUserID, err := GetUserID(r)
		require.NoError(t, err)
		contextUserID = extractedUserID
		extractedRole, err := GetRole(r)
		require.NoError(t, err)
		contextRole = extractedRole
		w.WriteHeader(http.StatusOK)
	})

	middleware := AuthMiddleware(jwtService)
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	assert.True(t, handlerCalled, "handler should be called")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, contextUserID)
	assert.Equal(t, "student", contextRole)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	jwtService := newTestTokenValidator()

	handlerCalled := false
	handler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
	})

	middleware := AuthMiddleware(jwtService)
	wrappedHandler := middleware(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	// No Authorization header
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	assert.False(t, handlerCalled, "handler should not be called")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Unauthorized")
}

func TestAuthMiddleware_InvalidFormat(t *testing.T) {
	jwtService := newTestTokenValidator()

	tests := []struct {
		name       string
		authHeader string
	}{
		{"missing Bearer prefix", "token123"},
		{"empty token", "Bearer "},
		{"only Bearer", "Bearer"},
		{"unknown token", "Bearer token123"},
		{"lowercase bearer unknown token", "bearer token123"},
		{"malformed token", "Bearer not.a.valid.jwt.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
			})

			middleware := AuthMiddleware(jwtService)
			wrappedHandler := middleware(handler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", tt.authHeader)
			w := httptest.NewRecorder()

			wrappedHandler.ServeHTTP(w, req)

			assert.False(t, handlerCalled, "handler should not be called")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_CaseInsensitiveBearer(t *testing.T) {
	jwtService := newTestTokenValidator()
	userID := uuid.New()
	jwtService.addValidToken("tok", userID, "startup")

	for _, prefix := range []string{"Bearer", "bearer", "BeArEr"} {
		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			handlerCalled = true
			w.WriteHeader(http.StatusOK)
		})

		wrappedHandler := AuthMiddleware(jwtService)(handler)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", prefix+" tok")
		w := httptest.NewRecorder()

		wrappedHandler.ServeHTTP(w, req)

		assert.True(t, handlerCalled, "handler should be called for prefix %q", prefix)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequireRole_Match(t *testing.T) {
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	wrapped := RequireRole("startup")(handler)

	req := httptest.NewRequest(http.MethodPatch, "/applications/x", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), "startup"))
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_Mismatch(t *testing.T) {
	handlerCalled := false
	handler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
	})

	wrapped := RequireRole("startup")(handler)

	req := httptest.NewRequest(http.MethodPatch, "/applications/x", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), "student"))
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.False(t, handlerCalled, "handler should not be called")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_NoIdentity(t *testing.T) {
	handler := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler should not be called")
	})

	wrapped := RequireRole("student")(handler)

	req := httptest.NewRequest(http.MethodGet, "/jobs/matched", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetUserID_Success(t *testing.T) {
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, userID))

	extractedUserID, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, extractedUserID)
}

func TestGetUserID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	// No user ID in context

	userID, err := GetUserID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, userID)
	assert.Contains(t, err.Error(), "user ID not found")
}

func TestGetUserID_InvalidType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	// Set wrong type in context
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, "not-a-uuid"))

	userID, err := GetUserID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, userID)
}

func TestGetRole_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	role, err := GetRole(req)
	assert.Error(t, err)
	assert.Empty(t, role)
}
