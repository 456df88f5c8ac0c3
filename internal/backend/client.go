// Package backend is the client for the commerce REST backend that owns carts
// and products. Responses are loosely typed, so decoding is lenient.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "cart backend"

// Client talks to the backend REST API on behalf of the calling user. The
// caller's bearer token and user id are taken from the request context.
type Client struct {
	http    httpclient.Doer
	baseURL string
	workers int
	logger  *slog.Logger
}

// NewClient creates a backend client. detailWorkers bounds concurrent product
// lookups when enriching a cart.
func NewClient(doer httpclient.Doer, baseURL string, detailWorkers int, logger *slog.Logger) *Client {
	if detailWorkers < 1 {
		detailWorkers = 1
	}
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		workers: detailWorkers,
		logger:  logger,
	}
}

// FetchCart returns the cart lines as the backend reports them.
func (c *Client) FetchCart(ctx context.Context) ([]domain.CartItem, error) {
	raw, err := c.call(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, err
	}

	items := []domain.CartItem{}
	for _, el := range elements(raw) {
		var w wireCartItem
		if err := json.Unmarshal(el, &w); err != nil {
			c.logger.WarnContext(ctx, "skipping undecodable cart item", slog.String("error", err.Error()))
			continue
		}
		if w.ID == "" {
			c.logger.WarnContext(ctx, "skipping cart item without id")
			continue
		}
		items = append(items, w.toDomain())
	}
	return items, nil
}

// FetchCartWithDetails returns the cart enriched with product details. A
// failed product lookup leaves that item with its cart-level fields.
func (c *Client) FetchCartWithDetails(ctx context.Context) ([]domain.CartItem, error) {
	items, err := c.FetchCart(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		products = map[string]domain.Product{}
		seen     = map[string]struct{}{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, it := range items {
		if it.ProductID == "" {
			continue
		}
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		id := it.ProductID
		g.Go(func() error {
			p, err := c.GetProduct(gctx, id)
			if err != nil {
				c.logger.DebugContext(gctx, "product detail lookup failed",
					slog.String("product_id", id),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			products[id] = *p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range items {
		if p, ok := products[items[i].ProductID]; ok {
			items[i] = withProduct(items[i], p)
		}
	}
	return items, nil
}

// AddItem adds quantity of a product to the cart.
func (c *Client) AddItem(ctx context.Context, productID string, quantity int) error {
	id, err := numericOrString(productID)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodPost, "/cart/items", map[string]any{
		"product_id": id,
		"quantity":   quantity,
	})
	return err
}

// UpdateItem sets the quantity of a cart line.
func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	_, err := c.call(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(itemID), map[string]any{
		"quantity": quantity,
	})
	return err
}

// RemoveItem deletes a cart line.
func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	_, err := c.call(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(itemID), nil)
	return err
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodDelete, "/cart", nil)
	return err
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	raw, err := c.call(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var w wireProduct
	if err := json.Unmarshal(unwrap(raw), &w); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", id, err)
	}
	p := w.toDomain()
	if p.ID == "" {
		p.ID = domain.NormalizeID(id)
	}
	return &p, nil
}

// ListProducts fetches one page of the catalog and the total product count.
func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]domain.Product, int, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	raw, err := c.call(ctx, http.MethodGet, "/products?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}

	products := []domain.Product{}
	for _, el := range elements(raw) {
		var w wireProduct
		if err := json.Unmarshal(el, &w); err != nil || w.ID == "" {
			continue
		}
		products = append(products, w.toDomain())
	}
	return products, total(raw, len(products)), nil
}

// call performs a request and returns the raw response body. Non-2xx answers
// become AppErrors; transport failures become 503s.
func (c *Client) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := middleware.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if userID := middleware.UserIDFromContext(ctx); userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, httpclient.AsServiceUnavailable(err, serviceName)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, httpclient.AsServiceUnavailable(fmt.Errorf("read %s %s: %w", method, path, err), serviceName)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s %s: response is not JSON", method, path)
	}
	return raw, nil
}

// numericOrString sends numeric ids as JSON numbers, as the backend expects.
func numericOrString(id string) (any, error) {
	id = domain.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n, nil
	}
	return id, nil
}
