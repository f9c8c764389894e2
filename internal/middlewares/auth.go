package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/utils/jwt_utils"

	"github.com/sirupsen/logrus"
)

const (
	authErrorMessage   = "Access denied"
	authErrorLogHeader = "Authentication error: "
)

// SessionChecker verifies that a session is still live and pushes its
// expiry forward.
type SessionChecker interface {
	SessionExists(ctx context.Context, userID domain.UserID) (bool, error)
	RefreshSession(ctx context.Context, userID domain.UserID) error
}

// AuthMiddleware authenticates requests with a bearer session token
// and a live session entry.
type AuthMiddleware struct {
	SigningKey string
	Sessions   SessionChecker
}

func (amw *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {

		tokenString := bearerToken(req)
		if tokenString == "" {
			logger.Log.Debug(authErrorLogHeader + "Missing bearer token")
			writeForbiddenResponse(w)
			return
		}

		user, err := jwt_utils.ParseSessionToken(tokenString, amw.SigningKey)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{"error": err}).Debug(authErrorLogHeader + "Invalid session token")
			writeForbiddenResponse(w)
			return
		}

		exists, err := amw.Sessions.SessionExists(req.Context(), user.ID)
		if err != nil {
			logger.LogError(authErrorLogHeader+"Unable to verify session", err)
			writeForbiddenResponse(w)
			return
		}
		if !exists {
			logger.Log.WithFields(logrus.Fields{"user_id": user.ID}).Debug(authErrorLogHeader + "Session expired")
			writeForbiddenResponse(w)
			return
		}

		if err := amw.Sessions.RefreshSession(req.Context(), user.ID); err != nil {
			logger.LogError("Unable to refresh session", err)
		}

		ctx := ContextWithPrincipal(req.Context(), user)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func bearerToken(req *http.Request) string {
	authHeader := req.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

func writeForbiddenResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]interface{}{"error": true, "message": authErrorMessage})
}
