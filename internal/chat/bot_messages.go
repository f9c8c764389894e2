package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

// ConvertCommandRecord converts an answered command record into the
// display messages shown to its owner.  A top-level error produces one
// error-flagged message, a stock success one message, and a day_range
// success one message per results entry.  A malformed stored response
// degrades to a single synthetic error message instead of failing the
// poll; the record counts as delivered either way.
func ConvertCommandRecord(record command.Record) []DisplayMessage {

	log := logger.Log.WithFields(logrus.Fields{"correlation_id": record.ID})

	answeredAt := time.Now()
	if record.AnsweredAt != nil {
		answeredAt = *record.AnsweredAt
	}

	if record.ResponsePayload == nil {
		log.Error("Command record delivered without an answer")
		return []DisplayMessage{syntheticBotError(answeredAt)}
	}

	var response command.Response
	if err := json.Unmarshal([]byte(*record.ResponsePayload), &response); err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Command record has an undecodable answer")
		return []DisplayMessage{syntheticBotError(answeredAt)}
	}

	if response.Error {
		return []DisplayMessage{botErrorMessage(response.Message, answeredAt)}
	}

	var request command.Request
	if err := json.Unmarshal([]byte(record.RequestPayload), &request); err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Command record has an undecodable request")
		return []DisplayMessage{syntheticBotError(answeredAt)}
	}

	switch request.Type {
	case command.StockCommand:
		return []DisplayMessage{botMessage(response.Message, answeredAt)}
	case command.DayRangeCommand:
		messages := make([]DisplayMessage, 0, len(response.Results))
		for _, result := range response.Results {
			if result.Error {
				messages = append(messages, botErrorMessage(result.Message, answeredAt))
			} else {
				messages = append(messages, botMessage(result.Message, answeredAt))
			}
		}
		return messages
	default:
		return []DisplayMessage{botErrorMessage(
			fmt.Sprintf("Response to command %s not implemented.", request.Type), answeredAt)}
	}
}

func botMessage(text string, answeredAt time.Time) DisplayMessage {
	isError := false
	return DisplayMessage{
		Text:      text,
		User:      DisplayUser{ID: int64(domain.BotUser.ID), Username: string(domain.BotUser.Username)},
		Timestamp: answeredAt.Format(time.RFC3339),
		Type:      "command",
		Error:     &isError,
	}
}

func botErrorMessage(text string, answeredAt time.Time) DisplayMessage {
	isError := true
	message := botMessage(text, answeredAt)
	message.Error = &isError
	return message
}

func syntheticBotError(answeredAt time.Time) DisplayMessage {
	return botErrorMessage("Error getting response from bot.", answeredAt)
}
