package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/stock-chat/stock-chat/internal/chat"
	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/middlewares"
	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

const (
	emptyMessageErrorCode = "CH01"
	dispatchErrorCode     = "CH02"
	databaseErrorCode     = "DB01"
	defaultLastCount      = 50
)

type postMessageRequest struct {
	Message string `json:"message"`
}

// queuedResponse acknowledges a command that was handed to the bot.
// The answer arrives later through the updates endpoint.
type queuedResponse struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Error  bool   `json:"error"`
}

func (cs *ChatServer) handlePostMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {

		principal, ok := middlewares.GetPrincipal(req.Context())
		if !ok {
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		var postReq postMessageRequest
		if err := decodeJSON(req.Body, &postReq); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, err.Error(), "")
			return
		}

		if postReq.Message == "" {
			writeErrorResponse(w, http.StatusBadRequest,
				"Parameter \"message\" was not send or was empty.", emptyMessageErrorCode)
			return
		}

		if name, arg, isCommand := command.ParseCommandLine(postReq.Message); isCommand {
			cs.dispatchCommand(w, req, principal, name, arg)
			return
		}

		message := &chat.Message{
			UserID:   principal.GetUserID(),
			Username: principal.GetUsername(),
			PostedAt: time.Now().UTC(),
			Text:     postReq.Message,
		}

		if err := cs.messageStore.Append(req.Context(), message); err != nil {
			writeErrorResponse(w, http.StatusInternalServerError,
				"Error saving message in database.", databaseErrorCode)
			return
		}

		messagesPostedCounter.Inc()

		writeJSONResponse(w, http.StatusCreated, message.AsDisplayMessage())
	}
}

func (cs *ChatServer) dispatchCommand(w http.ResponseWriter, req *http.Request, principal middlewares.Principal, name string, arg string) {

	log := logger.Log.WithFields(logrus.Fields{"user_id": principal.GetUserID(), "command": name})

	correlationID, err := cs.dispatcher.Dispatch(req.Context(), principal.GetUser(), name, arg)
	if err == command.ErrUnknownCommand {
		log.Debug("Rejecting unrecognized command")
		writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Command \"%s\" not recognized.", name), "")
		return
	}
	if err != nil {
		logger.LogError("Unable to dispatch command to the bot", err)
		writeErrorResponse(w, http.StatusInternalServerError,
			"Error dispatching command to the bot.", dispatchErrorCode)
		return
	}

	log.WithFields(logrus.Fields{"correlation_id": correlationID}).Debug("Command queued")
	commandsQueuedCounter.Inc()

	writeJSONResponse(w, http.StatusOK, queuedResponse{Type: "command", Status: "queued", Error: false})
}

func (cs *ChatServer) handleLastMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {

		count := defaultLastCount
		if countParam := req.URL.Query().Get("count"); countParam != "" {
			parsed, err := strconv.Atoi(countParam)
			if err != nil || parsed < 1 {
				writeErrorResponse(w, http.StatusBadRequest,
					fmt.Sprintf("Invalid count: %s", countParam), "")
				return
			}
			count = parsed
		}

		messages, err := cs.messageStore.LastN(req.Context(), count)
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError,
				"Error reading messages from database.", databaseErrorCode)
			return
		}

		displayMessages := make([]chat.DisplayMessage, 0, len(messages))
		for _, message := range messages {
			displayMessages = append(displayMessages, message.AsDisplayMessage())
		}

		writeJSONResponse(w, http.StatusOK, displayMessages)
	}
}
