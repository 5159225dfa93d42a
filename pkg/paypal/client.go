package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultAPIURL is the live REST endpoint.
	DefaultAPIURL = "https://api-m.paypal.com"

	// MaxWindow is the longest range a single transaction search may cover.
	MaxWindow = 31 * 24 * time.Hour

	defaultPageSize = 100
)

// ClientConfig represents the configuration for the PayPal API client.
type ClientConfig struct {
	APIURL       string
	ClientID     string
	ClientSecret string
	PageSize     int
	Timeout      time.Duration // Default: 30 seconds
}

// Client is a PayPal Transaction Search API client.
// Access tokens are obtained with the client credentials grant and refreshed
// automatically.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
}

// NewClient creates a new PayPal API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(config.APIURL, "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	creds := clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	// The token source keeps this context for refreshes, so it must not be
	// request scoped.
	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	httpClient := creds.Client(ctx)
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		pageSize:   pageSize,
	}
}

// ListTransactions fetches one page of transactions between start and end.
// The range must not exceed MaxWindow.
func (c *Client) ListTransactions(ctx context.Context, start, end time.Time, page int) (*TransactionsResponse, error) {
	queryParams := url.Values{}
	queryParams.Set("start_date", start.Format(TimeLayout))
	queryParams.Set("end_date", end.Format(TimeLayout))
	queryParams.Set("fields", "all")
	queryParams.Set("page_size", strconv.Itoa(c.pageSize))
	queryParams.Set("page", strconv.Itoa(page))

	endpoint := fmt.Sprintf("%s/v1/reporting/transactions?%s", c.baseURL, queryParams.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var txnsResp TransactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&txnsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &txnsResp, nil
}

// FetchAllTransactions fetches every transaction in [from, to), splitting the
// range into MaxWindow chunks and following pagination within each chunk.
// Transactions are returned in the order PayPal reports them.
func (c *Client) FetchAllTransactions(ctx context.Context, from, to time.Time) ([]TransactionDetail, error) {
	var all []TransactionDetail

	for _, w := range splitWindow(from, to, MaxWindow) {
		page := 1
		for {
			resp, err := c.ListTransactions(ctx, w[0], w[1], page)
			if err != nil {
				return nil, fmt.Errorf("failed to list transactions (start=%s, page=%d): %w",
					w[0].Format(time.DateOnly), page, err)
			}

			all = append(all, resp.TransactionDetails...)

			if resp.TotalPages <= page || len(resp.TransactionDetails) == 0 {
				break
			}
			page++
		}
	}

	return all, nil
}

// splitWindow splits [from, to) into consecutive ranges no longer than size.
func splitWindow(from, to time.Time, size time.Duration) [][2]time.Time {
	var windows [][2]time.Time
	for start := from; start.Before(to); start = start.Add(size) {
		end := start.Add(size)
		if end.After(to) {
			end = to
		}
		windows = append(windows, [2]time.Time{start, end})
	}
	return windows
}

// parseError parses an error response from the PayPal API.
func parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paypal API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("paypal API error (status %d): %s", resp.StatusCode, string(body))
	}

	switch {
	case errResp.Name != "":
		return fmt.Errorf("paypal API error (status %d): %s - %s (debug_id=%s)",
			resp.StatusCode, errResp.Name, errResp.Message, errResp.DebugID)
	case errResp.ErrorDescription != "":
		return fmt.Errorf("paypal API error (status %d): %s - %s", resp.StatusCode, errResp.Error, errResp.ErrorDescription)
	default:
		return fmt.Errorf("paypal API error (status %d): %s", resp.StatusCode, string(body))
	}
}
