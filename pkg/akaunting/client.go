package akaunting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when Akaunting responds with 404.
var ErrNotFound = errors.New("akaunting: not found")

// DefaultCurrencyRates is the static rate table sent with every document and
// transaction when none is configured.
var DefaultCurrencyRates = map[string]string{
	"USD": "1.2",
	"EUR": "1",
}

// ClientConfig represents the configuration for Akaunting API client.
type ClientConfig struct {
	APIURL            string
	Email             string
	Password          string
	CompanyID         int64
	Limit             int           // Default: 100
	Timeout           time.Duration // Default: 30 seconds
	RequestsPerSecond float64       // 0 means unthrottled
	CurrencyRates     map[string]string
	PaymentMethod     string // Default: Bank Transfer
}

// Client is an Akaunting API client.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	email         string
	password      string
	companyID     int64
	limit         int
	limiter       *rate.Limiter
	currencyRates map[string]string
	paymentMethod string
}

// NewClient creates a new Akaunting API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	limit := config.Limit
	if limit <= 0 {
		limit = 100
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), max(1, int(config.RequestsPerSecond)))
	}

	rates := config.CurrencyRates
	if len(rates) == 0 {
		rates = DefaultCurrencyRates
	}

	paymentMethod := config.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "Bank Transfer"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:       strings.TrimRight(config.APIURL, "/"),
		email:         config.Email,
		password:      config.Password,
		companyID:     config.CompanyID,
		limit:         limit,
		limiter:       limiter,
		currencyRates: rates,
		paymentMethod: paymentMethod,
	}
}

// Ping checks that the API is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/api/ping", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to ping akaunting: %w", err)
	}
	return nil
}

// ListAccounts lists all bank accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	return listAll[Account](ctx, c, "/api/accounts", "")
}

// ListItems lists all items.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	return listAll[Item](ctx, c, "/api/items", "")
}

// ListCategories lists all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return listAll[Category](ctx, c, "/api/categories", "")
}

// ListContacts lists contacts of a type (customer or vendor).
func (c *Client) ListContacts(ctx context.Context, contactType string) ([]Contact, error) {
	return listAll[Contact](ctx, c, "/api/contacts", "type:"+contactType)
}

// ListInvoices lists all invoices.
func (c *Client) ListInvoices(ctx context.Context) ([]Document, error) {
	return listAll[Document](ctx, c, "/api/documents", "type:invoice")
}

// ListTransactions lists transactions of a type (income or expense).
func (c *Client) ListTransactions(ctx context.Context, transactionType string) ([]Transaction, error) {
	return listAll[Transaction](ctx, c, "/api/transactions", "type:"+transactionType)
}

// listAll follows the pagination cursor until the last page.
func listAll[T any](ctx context.Context, c *Client, path, search string) ([]T, error) {
	var all []T
	page := 1

	for {
		query := url.Values{}
		if search != "" {
			query.Set("search", search)
		}
		query.Set("limit", strconv.Itoa(c.limit))
		query.Set("page", strconv.Itoa(page))

		var resp ListResponse[T]
		if err := c.do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to list %s (page=%d): %w", path, page, err)
		}

		all = append(all, resp.Data...)

		if resp.Meta == nil || resp.Meta.Pagination.CurrentPage >= resp.Meta.Pagination.TotalPages {
			break
		}

		page = resp.Meta.Pagination.CurrentPage + 1
	}

	return all, nil
}

// do sends a request and decodes the response into out when it is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("company_id", strconv.FormatInt(c.companyID, 10))

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode()), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.email, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// parseError parses an error response from Akaunting API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiError(resp.StatusCode, "failed to read error response")
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		return apiError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	msg := errResp.Message
	if len(errResp.Errors) > 0 {
		var fields []string
		for field, errs := range errResp.Errors {
			fields = append(fields, fmt.Sprintf("%s: %s", field, strings.Join(errs, ", ")))
		}
		slices.Sort(fields)
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(fields, "; "))
	}

	return apiError(resp.StatusCode, msg)
}

func apiError(status int, msg string) error {
	if status == http.StatusNotFound {
		return fmt.Errorf("%w (status %d): %s", ErrNotFound, status, msg)
	}
	return fmt.Errorf("akaunting API error (status %d): %s", status, msg)
}
