package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stock-chat/stock-chat/internal/bot/quotes"
	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

// QuoteFetcher is the boundary to the external quote source.
type QuoteFetcher interface {
	FetchStock(ctx context.Context, companyCode string) (quotes.StockEntry, error)
	FetchDayRange(ctx context.Context, companyCodes []string) ([]quotes.RangeEntry, error)
}

// Handler executes one command request and always produces a response,
// converting every failure into an error response so the correlation
// is completed.
type Handler func(ctx context.Context, arg command.Arg) command.Response

// NewHandlers builds the command name to handler mapping.  Repeated
// stock lookups for the same code within the cache TTL are served from
// a small in-memory cache instead of hammering the quote source.
func NewHandlers(fetcher QuoteFetcher, cacheSize int, cacheTTL time.Duration) map[string]Handler {

	stockCache := expirable.NewLRU[string, command.Response](cacheSize, nil, cacheTTL)

	return map[string]Handler{
		command.StockCommand: func(ctx context.Context, arg command.Arg) command.Response {
			return queryStock(ctx, fetcher, stockCache, arg.Single())
		},
		command.DayRangeCommand: func(ctx context.Context, arg command.Arg) command.Response {
			return queryDayRange(ctx, fetcher, arg)
		},
	}
}

func queryStock(ctx context.Context, fetcher QuoteFetcher, cache *expirable.LRU[string, command.Response], companyCode string) command.Response {

	log := logger.Log.WithFields(logrus.Fields{"company_code": companyCode})

	if companyCode == "" {
		return command.ErrorResponse("Could not find information for company "+companyCode, "")
	}

	if response, found := cache.Get(companyCode); found {
		metrics.stockCacheHitCounter.Inc()
		return response
	}

	entry, err := fetcher.FetchStock(ctx, companyCode)
	if err == quotes.ErrNotFound {
		return command.ErrorResponse(fmt.Sprintf("Could not find information for company %s", companyCode), "")
	}
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Stock lookup failed")
		return command.ErrorResponse(
			fmt.Sprintf("Error when querying Stock API for company %s.", companyCode),
			command.ErrCodeTransportFailure)
	}

	if entry.Name == "" || entry.Price == "" {
		return command.ErrorResponse("Stock API returned answer without name or price fields.",
			command.ErrCodeIncompletePayload)
	}

	price, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err, "price": entry.Price}).Error("Unparseable price field")
		return command.ErrorResponse(
			fmt.Sprintf("Error when querying Stock API for company %s.", companyCode),
			command.ErrCodeTransportFailure)
	}

	response := command.Response{Result: command.Result{
		CompanyCode: companyCode,
		Name:        entry.Name,
		Price:       &price,
		Message:     fmt.Sprintf("%s (%s) quote is $%s per share.", companyCode, entry.Name, entry.Price),
		Lang:        "en",
	}}

	cache.Add(companyCode, response)

	return response
}

func queryDayRange(ctx context.Context, fetcher QuoteFetcher, arg command.Arg) command.Response {

	if arg.IsEmpty() {
		return command.ErrorResponse("Company code not provided.", command.ErrCodeMissingArgument)
	}

	entries, err := fetcher.FetchDayRange(ctx, arg.Codes)
	if err != nil {
		logger.LogError("Day range lookup failed", err)
		return command.ErrorResponse(
			fmt.Sprintf("Error getting data from the ranges API for company %s.", strings.Join(arg.Codes, ",")),
			command.ErrCodeTransportFailure)
	}

	// The upstream source returns a placeholder entry even for unknown
	// codes.  An entry with no name or range fields populated marks an
	// unknown company and becomes a per entry error result instead of
	// failing the whole batch.
	results := make([]command.Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, convertRangeEntry(entry))
	}

	return command.Response{Results: results}
}

func convertRangeEntry(entry quotes.RangeEntry) command.Result {

	if entry.Symbol == "" || entry.Name == "" || entry.DaysLow == "" || entry.DaysHigh == "" {
		logger.Log.WithFields(logrus.Fields{
			"company_code": entry.Symbol,
			"name":         entry.Name,
			"days_low":     entry.DaysLow,
			"days_high":    entry.DaysHigh,
		}).Error("Incomplete entry from the ranges API")
		return command.ErrorResult(fmt.Sprintf("Could not find information for company %s", entry.Symbol), "")
	}

	daysLow, lowErr := strconv.ParseFloat(entry.DaysLow, 64)
	daysHigh, highErr := strconv.ParseFloat(entry.DaysHigh, 64)
	if lowErr != nil || highErr != nil {
		logger.Log.WithFields(logrus.Fields{"company_code": entry.Symbol}).Error("Unparseable range fields")
		return command.ErrorResult(fmt.Sprintf("Error getting data for company %s", entry.Symbol), "")
	}

	return command.Result{
		CompanyCode: entry.Symbol,
		Name:        entry.Name,
		DaysLow:     &daysLow,
		DaysHigh:    &daysHigh,
		Message: fmt.Sprintf("%s (%s) Days Low quote is $%s and Days High is $%s.",
			entry.Symbol, entry.Name, entry.DaysLow, entry.DaysHigh),
		Lang: "en",
	}
}
