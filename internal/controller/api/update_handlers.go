package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/stock-chat/stock-chat/internal/chat"
	"github.com/stock-chat/stock-chat/internal/middlewares"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
)

// updatesMessageLimit caps how many chat messages one poll can return
// when the client sends a very old last_t.
const updatesMessageLimit = 100

// handleUpdates merges chat messages posted since last_t with the
// caller's answered command records.  Delivered records are removed in
// the same database statement that reads them, so a second poll never
// sees the same answer again.
func (cs *ChatServer) handleUpdates() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {

		principal, ok := middlewares.GetPrincipal(req.Context())
		if !ok {
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		var after time.Time
		if lastT := req.URL.Query().Get("last_t"); lastT != "" {
			parsed, err := time.Parse(time.RFC3339, lastT)
			if err != nil {
				writeErrorResponse(w, http.StatusBadRequest,
					fmt.Sprintf("Invalid date: %s", lastT), "")
				return
			}
			after = parsed
		}

		messages, err := cs.messageStore.PostedAfter(req.Context(), after, updatesMessageLimit)
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError,
				"Error reading messages from database.", databaseErrorCode)
			return
		}

		displayMessages := make([]chat.DisplayMessage, 0, len(messages))
		for _, message := range messages {
			displayMessages = append(displayMessages, message.AsDisplayMessage())
		}

		records, err := cs.commandStore.TakeAnswered(req.Context(), principal.GetUserID())
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError,
				"Error reading command responses from database.", databaseErrorCode)
			return
		}

		for _, record := range records {
			displayMessages = append(displayMessages, chat.ConvertCommandRecord(record)...)
		}

		updateMessagesDeliveredCounter.Add(float64(len(displayMessages)))

		writeJSONResponse(w, http.StatusOK, displayMessages)
	}
}

func (cs *ChatServer) handleOnlineUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {

		principal, ok := middlewares.GetPrincipal(req.Context())
		if !ok {
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		online, err := cs.sessions.OnlineUsers(req.Context(), principal.GetUserID())
		if err != nil {
			logger.LogError("Unable to read online users", err)
			writeErrorResponse(w, http.StatusInternalServerError, unexpectedErrorMessage, "")
			return
		}

		displayUsers := make([]chat.DisplayUser, 0, len(online))
		for _, user := range online {
			displayUsers = append(displayUsers, chat.DisplayUser{ID: int64(user.ID), Username: string(user.Username)})
		}

		writeJSONResponse(w, http.StatusOK, displayUsers)
	}
}
