package joshlei

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/stockwatch/internal/domain/stock"
	apperrors "github.com/yanqian/stockwatch/pkg/errors"
)

const (
	defaultURL     = "https://api.joshlei.com/v2/growagarden/stock"
	defaultTimeout = 5 * time.Second
	maxErrorBody   = 4 << 10
)

// Client fetches the combined stock and weather payload.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds an API client. The same client serves the local proxy
// when pointed at /api/alldata, since both return the AllData shape.
func NewClient(url string, timeout time.Duration) *Client {
	endpoint := strings.TrimSpace(url)
	if endpoint == "" {
		endpoint = defaultURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL reports the endpoint this client calls.
func (c *Client) URL() string {
	return c.url
}

// FetchAllData performs one GET. Failures are returned as AppErrors coded
// network_error, http_status_error or parse_error.
func (c *Client) FetchAllData(ctx context.Context) (stock.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return stock.Payload{}, apperrors.Wrap(stock.CodeNetworkError, "build upstream request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return stock.Payload{}, apperrors.Wrap(stock.CodeNetworkError, "upstream request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return stock.Payload{}, apperrors.Wrap(stock.CodeHTTPStatusError,
			fmt.Sprintf("upstream returned status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return stock.Payload{}, apperrors.Wrap(stock.CodeNetworkError, "read upstream response", err)
	}

	data, err := decode(body)
	if err != nil {
		return stock.Payload{}, apperrors.Wrap(stock.CodeParseError, "decode upstream response", err)
	}
	return stock.Payload{Data: data, Raw: body}, nil
}

func decode(body []byte) (stock.AllData, error) {
	var data stock.AllData
	if len(strings.TrimSpace(string(body))) == 0 {
		return data, fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return stock.AllData{}, err
	}
	return data, nil
}
