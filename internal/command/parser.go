package command

import (
	"regexp"
	"strings"
)

// commandPattern is the command grammar: a leading slash, a word
// character command name and an optional "="-delimited argument
// capturing the remainder of the line.  Slash text that fails the
// grammar is not a command and falls through to a plain chat message.
var commandPattern = regexp.MustCompile(`^/(\w+)(?:=(.*))?$`)

// ParseCommandLine reports whether the posted text is a command and,
// if so, its name and raw argument.
func ParseCommandLine(text string) (name string, arg string, ok bool) {
	match := commandPattern.FindStringSubmatch(text)
	if match == nil {
		return "", "", false
	}
	return match[1], match[2], true
}

type requestBuilder func(arg string) Request

// requestBuilders maps each recognized command name to its request
// builder.  Names not present here are rejected by the dispatcher
// before any record is created or message published.
var requestBuilders = map[string]requestBuilder{
	StockCommand:    buildStockRequest,
	DayRangeCommand: buildDayRangeRequest,
}

func buildStockRequest(arg string) Request {
	return Request{Type: StockCommand, Arg: SingleArg(arg)}
}

func buildDayRangeRequest(arg string) Request {
	// A comma separated argument queries several companies at once.
	if strings.Contains(arg, ",") {
		codes := strings.Split(arg, ",")
		for i := range codes {
			codes[i] = strings.TrimSpace(codes[i])
		}
		return Request{Type: DayRangeCommand, Arg: ListArg(codes)}
	}
	return Request{Type: DayRangeCommand, Arg: SingleArg(arg)}
}
