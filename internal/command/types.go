package command

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/stock-chat/stock-chat/internal/domain"

	"github.com/google/uuid"
)

const (
	StockCommand    = "stock"
	DayRangeCommand = "day_range"
)

// Bot error taxonomy.  Every worker side failure is converted into a
// response carrying one of these codes so the correlation contract is
// always completed.
const (
	ErrCodeMissingArgument   = "BOT01"
	ErrCodeNonSerializable   = "BOT02"
	ErrCodeTransportFailure  = "BOT03"
	ErrCodeIncompletePayload = "BOT04"
)

var ErrRecordNotFound = errors.New("command record not found")

// Arg is the command argument as submitted: nothing, a single company
// code, or a list of codes.  On the wire it is encoded as null, a JSON
// string or a JSON array to stay compatible with the original payload
// shape.
type Arg struct {
	Codes  []string
	IsList bool
}

func SingleArg(code string) Arg {
	return Arg{Codes: []string{code}}
}

func ListArg(codes []string) Arg {
	return Arg{Codes: codes, IsList: true}
}

func (a Arg) IsEmpty() bool {
	if len(a.Codes) == 0 {
		return true
	}
	return !a.IsList && a.Codes[0] == ""
}

// Single returns the argument as one company code.
func (a Arg) Single() string {
	if len(a.Codes) == 0 {
		return ""
	}
	return a.Codes[0]
}

func (a Arg) MarshalJSON() ([]byte, error) {
	if a.IsList {
		return json.Marshal(a.Codes)
	}
	if len(a.Codes) == 0 {
		return json.Marshal(nil)
	}
	return json.Marshal(a.Codes[0])
}

func (a *Arg) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Arg{}
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = SingleArg(single)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = ListArg(list)
		return nil
	}

	return errors.New("command argument must be a string or a list of strings")
}

// Request is the wire payload published to the bot_requests queue.
type Request struct {
	Type string `json:"type"`
	Arg  Arg    `json:"arg"`
}

// Result is a single lookup outcome.  A stock response is one bare
// Result; a day_range response wraps one Result per company in the
// Results list of the envelope.
type Result struct {
	Error       bool     `json:"error"`
	Message     string   `json:"message,omitempty"`
	Code        string   `json:"code,omitempty"`
	CompanyCode string   `json:"companyCode,omitempty"`
	Name        string   `json:"name,omitempty"`
	Lang        string   `json:"lang,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	DaysLow     *float64 `json:"daysLow,omitempty"`
	DaysHigh    *float64 `json:"daysHigh,omitempty"`
}

// Response is the wire payload published to the bot_responses queue.
type Response struct {
	Result
	Results []Result `json:"results,omitempty"`
}

func ErrorResponse(message string, code string) Response {
	return Response{Result: ErrorResult(message, code)}
}

func ErrorResult(message string, code string) Result {
	return Result{Error: true, Message: message, Code: code}
}

// Record is one issued command.  The ID doubles as the queue
// correlation id.  AnsweredAt and ResponsePayload stay nil until the
// response receiver records the bot's answer.
type Record struct {
	ID              uuid.UUID
	PostedAt        time.Time
	AnsweredAt      *time.Time
	RequestPayload  string
	ResponsePayload *string
	UserID          domain.UserID
	Username        domain.Username
}

func (r Record) Answered() bool {
	return r.AnsweredAt != nil
}
