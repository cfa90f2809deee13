package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/alim08/fin_folio/pkg/models"
)

// MarketDataError is what the dashboard shows when the batch call fails.
const MarketDataError = "Failed to fetch market data from API"

// Client calls the batch endpoint of the API service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient targets baseURL, e.g. http://localhost:3001/api.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

type batchRequest struct {
	Symbols []string `json:"symbols"`
}

// BatchQuotes posts symbols and decodes the quote array.
func (c *Client) BatchQuotes(ctx context.Context, symbols []string) ([]models.MarketQuote, error) {
	if symbols == nil {
		symbols = []string{}
	}
	body, err := json.Marshal(batchRequest{Symbols: symbols})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode batch request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stocks/batch", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reach batch endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("batch endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var quotes []models.MarketQuote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, errors.Wrap(err, "failed to decode batch response")
	}
	return quotes, nil
}
