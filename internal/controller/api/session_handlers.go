package api

import (
	"net/http"

	"github.com/stock-chat/stock-chat/internal/chat"
	"github.com/stock-chat/stock-chat/internal/middlewares"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/utils/jwt_utils"
	"github.com/stock-chat/stock-chat/internal/users"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string           `json:"token"`
	User  chat.DisplayUser `json:"user"`
}

func (cs *ChatServer) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {

		var loginReq loginRequest
		if err := decodeJSON(req.Body, &loginReq); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, err.Error(), "")
			return
		}

		log := logger.Log.WithFields(logrus.Fields{"username": loginReq.Username})

		user, err := cs.users.Authenticate(req.Context(), loginReq.Username, loginReq.Password)
		if err == users.ErrInvalidCredentials {
			log.Debug("Login rejected")
			loginCounter.With(prometheus.Labels{"outcome": "rejected"}).Inc()
			writeErrorResponse(w, http.StatusUnauthorized, "Invalid username or password.", "")
			return
		}
		if err != nil {
			loginCounter.With(prometheus.Labels{"outcome": "error"}).Inc()
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		if err := cs.sessions.RegisterSession(req.Context(), user); err != nil {
			logger.LogError("Unable to register session", err)
			loginCounter.With(prometheus.Labels{"outcome": "error"}).Inc()
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		token, err := jwt_utils.GenerateSessionToken(user, cs.config.SessionTokenSigningKey, cs.config.SessionTokenExpiry)
		if err != nil {
			logger.LogError("Unable to generate session token", err)
			loginCounter.With(prometheus.Labels{"outcome": "error"}).Inc()
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		log.Debug("Login accepted")
		loginCounter.With(prometheus.Labels{"outcome": "accepted"}).Inc()

		writeJSONResponse(w, http.StatusOK, loginResponse{
			Token: token,
			User:  chat.DisplayUser{ID: int64(user.ID), Username: string(user.Username)},
		})
	}
}

func (cs *ChatServer) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {

		principal, ok := middlewares.GetPrincipal(req.Context())
		if !ok {
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		if err := cs.sessions.RemoveSession(req.Context(), principal.GetUserID()); err != nil {
			logger.LogError("Unable to remove session", err)
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		writeJSONResponse(w, http.StatusOK, struct{}{})
	}
}
