package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"wa-order-bridge/internal/domain"
)

// FetchOrder fetches a single order directly by identifier. Returns nil when
// the provider answers 400 or 404, letting the caller try the next lookup
// strategy.
func (c *Client) FetchOrder(ctx context.Context, accessToken string, identifier domain.OrderIdentifier) (map[string]any, error) {
	endpoint := c.baseURL + "/orders/" + url.PathEscape(identifier.String())
	body, status, err := c.getOrders(ctx, accessToken, endpoint)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		return nil, nil
	}

	var order map[string]any
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("decoding order: %w", err)
	}
	return order, nil
}

// ListOrdersBy lists candidate orders using one filter query parameter.
// A 400 or 404 answer means the provider does not support that filter and
// yields an empty list.
func (c *Client) ListOrdersBy(ctx context.Context, accessToken, param, value string) ([]map[string]any, error) {
	query := url.Values{}
	query.Set(param, value)
	endpoint := c.baseURL + "/orders?" + query.Encode()

	body, status, err := c.getOrders(ctx, accessToken, endpoint)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		return nil, nil
	}
	return decodeList(body)
}

// ListOrdersPage lists one page of orders for the paginated scan.
func (c *Client) ListOrdersPage(ctx context.Context, accessToken string, page, limit int) ([]map[string]any, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/orders?" + query.Encode()

	body, status, err := c.getOrders(ctx, accessToken, endpoint)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		return nil, nil
	}
	return decodeList(body)
}

// getOrders performs one authenticated GET. Client-side not-found answers
// (400, 404) come back as a status for the caller to interpret; every other
// non-2xx status is a LookupError that aborts the cascade.
func (c *Client) getOrders(ctx context.Context, accessToken, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &domain.LookupError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, resp.StatusCode, nil
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, nil
	default:
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("endpoint", endpoint).
			Msg("order lookup rejected by provider")
		return nil, 0, &domain.LookupError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// decodeList tolerates the body shapes storefront platforms use for
// collections: a bare array, {"data": [...]}, or {"items": [...]}.
func decodeList(body []byte) ([]map[string]any, error) {
	var asArray []map[string]any
	if err := json.Unmarshal(body, &asArray); err == nil {
		return asArray, nil
	}

	var wrapped struct {
		Data  []map[string]any `json:"data"`
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding order list: %w", err)
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return wrapped.Items, nil
}
