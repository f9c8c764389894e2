package api

import (
	"context"
	"net/http"

	"github.com/stock-chat/stock-chat/internal/chat"
	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/middlewares"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/presence"
	"github.com/stock-chat/stock-chat/internal/users"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// CommandDispatcher is the command submission side of the protocol.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, user domain.User, name string, arg string) (uuid.UUID, error)
}

// ChatServer owns the chat room HTTP endpoints.
type ChatServer struct {
	router       *mux.Router
	config       *config.Config
	messageStore chat.MessageStore
	commandStore command.Store
	dispatcher   CommandDispatcher
	sessions     presence.SessionStore
	users        users.UserStore
}

func NewChatServer(r *mux.Router, cfg *config.Config, messageStore chat.MessageStore, commandStore command.Store, dispatcher CommandDispatcher, sessions presence.SessionStore, userStore users.UserStore) *ChatServer {
	return &ChatServer{
		router:       r,
		config:       cfg,
		messageStore: messageStore,
		commandStore: commandStore,
		dispatcher:   dispatcher,
		sessions:     sessions,
		users:        userStore,
	}
}

func (cs *ChatServer) Routes() {
	mmw := &middlewares.MetricsMiddleware{}
	amw := &middlewares.AuthMiddleware{
		SigningKey: cs.config.SessionTokenSigningKey,
		Sessions:   cs.sessions,
	}

	openSubRouter := cs.router.PathPrefix(cs.config.UrlBasePath).Subrouter()
	openSubRouter.Use(logger.AccessLoggerMiddleware,
		middlewares.RecoveryMiddleware,
		mmw.RecordHTTPMetrics)

	openSubRouter.HandleFunc("/login", cs.handleLogin()).Methods(http.MethodPost)

	securedSubRouter := cs.router.PathPrefix(cs.config.UrlBasePath).Subrouter()
	securedSubRouter.Use(logger.AccessLoggerMiddleware,
		middlewares.RecoveryMiddleware,
		mmw.RecordHTTPMetrics,
		amw.Authenticate)

	securedSubRouter.HandleFunc("/message", cs.handlePostMessage()).Methods(http.MethodPost)
	securedSubRouter.HandleFunc("/messages", cs.handleLastMessages()).Methods(http.MethodGet)
	securedSubRouter.HandleFunc("/updates", cs.handleUpdates()).Methods(http.MethodGet)
	securedSubRouter.HandleFunc("/users/online", cs.handleOnlineUsers()).Methods(http.MethodGet)
	securedSubRouter.HandleFunc("/logout", cs.handleLogout()).Methods(http.MethodPost)
}
