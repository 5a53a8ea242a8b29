package jumpseller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pricesync/config"
	"pricesync/models"
)

var ErrProductNotFound = errors.New("product-not-found")

const maxErrorBody = 512

// StatusError is returned for any non-2xx answer from the remote API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jumpseller returned %d: %s", e.StatusCode, e.Body)
}

// Searcher is what the matcher needs from the remote catalog.
type Searcher interface {
	SearchProducts(ctx context.Context, query string) ([]models.RemoteProduct, error)
}

// ProductStore is what the applier needs from the remote catalog.
type ProductStore interface {
	GetProduct(ctx context.Context, id int64) (models.RemoteProduct, error)
	UpdatePrice(ctx context.Context, id int64, price string) error
	UpdateField(ctx context.Context, productID, fieldID int64, value string) error
}

// Client talks to the Jumpseller REST API with basic auth. It holds no
// mutable state besides the rate limiter, so one instance can serve
// concurrent requests.
type Client struct {
	baseURL string
	login   string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg config.Jumpseller) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
		burst = int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		baseURL: cfg.BaseURL,
		login:   cfg.Login,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// SearchProducts calls GET /products/search.json?query=. Results are the
// remote's fuzzy matches; exactness is the matcher's job.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]models.RemoteProduct, error) {
	body, err := c.do(ctx, http.MethodGet, "/products/search.json", url.Values{"query": {query}}, nil)
	if err != nil {
		return nil, err
	}
	return DecodeProducts(body)
}

func (c *Client) GetProduct(ctx context.Context, id int64) (models.RemoteProduct, error) {
	body, err := c.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10)+".json", nil, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return models.RemoteProduct{}, ErrProductNotFound
		}
		return models.RemoteProduct{}, err
	}

	products, err := DecodeProducts(body)
	if err != nil {
		return models.RemoteProduct{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.RemoteProduct{}, ErrProductNotFound
}

func (c *Client) UpdatePrice(ctx context.Context, id int64, price string) error {
	payload := map[string]any{
		"product": map[string]any{"price": json.Number(price)},
	}
	_, err := c.do(ctx, http.MethodPut, "/products/"+strconv.FormatInt(id, 10)+".json", nil, payload)
	return err
}

func (c *Client) UpdateField(ctx context.Context, productID, fieldID int64, value string) error {
	payload := map[string]any{
		"field": map[string]any{"value": value},
	}
	path := fmt.Sprintf("/products/%d/fields/%d.json", productID, fieldID)
	_, err := c.do(ctx, http.MethodPut, path, nil, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.login, c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		zap.L().Warn("jumpseller request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
