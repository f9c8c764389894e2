package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/utils/jwt_utils"
)

func init() {
	logger.InitLogger()
}

const testSigningKey = "test-signing-key"

type fakeSessionChecker struct {
	liveSessions   map[domain.UserID]bool
	refreshedUsers []domain.UserID
}

func (f *fakeSessionChecker) SessionExists(ctx context.Context, userID domain.UserID) (bool, error) {
	return f.liveSessions[userID], nil
}

func (f *fakeSessionChecker) RefreshSession(ctx context.Context, userID domain.UserID) error {
	f.refreshedUsers = append(f.refreshedUsers, userID)
	return nil
}

func runAuthenticatedRequest(t *testing.T, sessions *fakeSessionChecker, authHeader string) (*httptest.ResponseRecorder, *domain.User) {

	amw := &AuthMiddleware{SigningKey: testSigningKey, Sessions: sessions}

	var seenUser *domain.User

	handler := amw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if principal, ok := GetPrincipal(req.Context()); ok {
			user := principal.GetUser()
			seenUser = &user
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stock-chat/v1/messages", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr, seenUser
}

func TestAuthenticateValidToken(t *testing.T) {

	user := domain.User{ID: 42, Username: "testuser"}

	token, err := jwt_utils.GenerateSessionToken(user, testSigningKey, time.Hour)
	if err != nil {
		t.Fatal("unexpected error while generating a session token", err)
	}

	sessions := &fakeSessionChecker{liveSessions: map[domain.UserID]bool{42: true}}

	rr, seenUser := runAuthenticatedRequest(t, sessions, "Bearer "+token)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	if seenUser == nil || seenUser.ID != user.ID || seenUser.Username != user.Username {
		t.Fatalf("expected the principal to carry the user, got %+v", seenUser)
	}

	if len(sessions.refreshedUsers) != 1 || sessions.refreshedUsers[0] != user.ID {
		t.Fatalf("expected the session to be refreshed, got %+v", sessions.refreshedUsers)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {

	sessions := &fakeSessionChecker{liveSessions: map[domain.UserID]bool{}}

	rr, seenUser := runAuthenticatedRequest(t, sessions, "")

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}

	if seenUser != nil {
		t.Fatal("expected the handler not to be reached")
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {

	sessions := &fakeSessionChecker{liveSessions: map[domain.UserID]bool{}}

	rr, _ := runAuthenticatedRequest(t, sessions, "Bearer this-is-not-a-token")

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestAuthenticateTokenSignedWithAnotherKey(t *testing.T) {

	user := domain.User{ID: 42, Username: "testuser"}

	token, err := jwt_utils.GenerateSessionToken(user, "some-other-key", time.Hour)
	if err != nil {
		t.Fatal("unexpected error while generating a session token", err)
	}

	sessions := &fakeSessionChecker{liveSessions: map[domain.UserID]bool{42: true}}

	rr, _ := runAuthenticatedRequest(t, sessions, "Bearer "+token)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {

	user := domain.User{ID: 42, Username: "testuser"}

	token, err := jwt_utils.GenerateSessionToken(user, testSigningKey, time.Hour)
	if err != nil {
		t.Fatal("unexpected error while generating a session token", err)
	}

	// The token is still valid but the redis session is gone.
	sessions := &fakeSessionChecker{liveSessions: map[domain.UserID]bool{}}

	rr, _ := runAuthenticatedRequest(t, sessions, "Bearer "+token)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}

	if len(sessions.refreshedUsers) != 0 {
		t.Fatal("expected no refresh for an expired session")
	}
}
