package quotes

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

// ErrNotFound means the quote source had no information for the
// requested company code.
var ErrNotFound = errors.New("no quote information for company")

// StockEntry is one parsed single-quote document.  Field values are
// kept as the raw upstream text; empty means the field was absent.
type StockEntry struct {
	Name  string
	Price string
}

// RangeEntry is one quote element from a batched range document.  The
// upstream source emits a placeholder entry even for unknown codes, so
// empty Name/DaysLow/DaysHigh marks an unknown company rather than a
// transport failure.
type RangeEntry struct {
	Symbol   string
	Name     string
	DaysLow  string
	DaysHigh string
}

type stockDocument struct {
	Resources []stockResource `xml:"resources>resource"`
}

type stockResource struct {
	Fields []stockField `xml:"field"`
}

type stockField struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type rangeDocument struct {
	Quotes []rangeQuote `xml:"results>quote"`
}

type rangeQuote struct {
	Symbol   string `xml:"symbol,attr"`
	Name     string `xml:"Name"`
	DaysLow  string `xml:"DaysLow"`
	DaysHigh string `xml:"DaysHigh"`
}

// Client fetches quote data over HTTP and parses the two XML document
// shapes the finance API serves.
type Client struct {
	httpClient *http.Client
	stockUrl   string
	rangeUrl   string
	userAgent  string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.QuoteApiTimeout},
		stockUrl:   cfg.QuoteApiStockUrl,
		rangeUrl:   cfg.QuoteApiRangeUrl,
		userAgent:  cfg.QuoteApiUserAgent,
	}
}

// NewClientWithHTTPClient is used by tests to point the client at an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, stockUrl string, rangeUrl string, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		stockUrl:   stockUrl,
		rangeUrl:   rangeUrl,
		userAgent:  userAgent,
	}
}

// FetchStock looks up the current quote for a single company code.  A
// document without resource elements yields ErrNotFound.
func (c *Client) FetchStock(ctx context.Context, companyCode string) (StockEntry, error) {

	var entry StockEntry

	requestUrl := fmt.Sprintf(c.stockUrl, url.QueryEscape(companyCode))

	body, err := c.get(ctx, requestUrl)
	if err != nil {
		return entry, err
	}

	var document stockDocument
	if err := xml.Unmarshal(body, &document); err != nil {
		return entry, fmt.Errorf("unable to parse stock quote document: %w", err)
	}

	if len(document.Resources) == 0 {
		// No resources means there is no information for the given company.
		return entry, ErrNotFound
	}

	for _, field := range document.Resources[0].Fields {
		switch field.Name {
		case "name":
			entry.Name = field.Value
		case "price":
			entry.Price = field.Value
		}
	}

	return entry, nil
}

// FetchDayRange issues one batched lookup for the given company codes
// and returns the quote entries in upstream order.
func (c *Client) FetchDayRange(ctx context.Context, companyCodes []string) ([]RangeEntry, error) {

	quoted := make([]string, len(companyCodes))
	for i, code := range companyCodes {
		quoted[i] = `"` + code + `"`
	}

	requestUrl := fmt.Sprintf(c.rangeUrl, url.QueryEscape(strings.Join(quoted, ",")))

	body, err := c.get(ctx, requestUrl)
	if err != nil {
		return nil, err
	}

	var document rangeDocument
	if err := xml.Unmarshal(body, &document); err != nil {
		return nil, fmt.Errorf("unable to parse range quote document: %w", err)
	}

	if len(document.Quotes) == 0 {
		logger.Log.WithFields(logrus.Fields{"body": string(body)}).Error("Unexpected response from the ranges API")
		return nil, errors.New("unexpected response from the ranges API")
	}

	entries := make([]RangeEntry, 0, len(document.Quotes))
	for _, quote := range document.Quotes {
		entries = append(entries, RangeEntry{
			Symbol:   quote.Symbol,
			Name:     quote.Name,
			DaysLow:  quote.DaysLow,
			DaysHigh: quote.DaysHigh,
		})
	}

	return entries, nil
}

func (c *Client) get(ctx context.Context, requestUrl string) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	observeUpstreamRequest(resp.StatusCode, time.Since(startTime))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote source returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
