package frisbii

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://checkout-api.frisbii.com"
	DefaultLocale  = "da_DK"
	DefaultTimeout = 10 * time.Second
)

// Gateway is the subset of the provider API the platform uses.
type Gateway interface {
	CreateChargeSession(ctx context.Context, req SessionRequest) (*SessionResponse, error)
	GetCharge(ctx context.Context, handleOrID string) (*Charge, error)
	GetInvoice(ctx context.Context, handle string) (*Invoice, error)
	CreateCustomer(ctx context.Context, customer Customer) (*Customer, error)
	GetCustomer(ctx context.Context, handle string) (*Customer, error)
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	validate   *validator.Validate
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithValidator(v *validator.Validate) Option {
	return func(c *Client) {
		if v != nil {
			c.validate = v
		}
	}
}

// New builds a client authenticated with the organization's private API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateChargeSession opens a hosted checkout session. Settle defaults to true
// and locale to da_DK.
func (c *Client) CreateChargeSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	if req.Settle == nil {
		settle := true
		req.Settle = &settle
	}
	if strings.TrimSpace(req.Locale) == "" {
		req.Locale = DefaultLocale
	}
	for i := range req.Order.OrderLines {
		if req.Order.OrderLines[i].Quantity == 0 {
			req.Order.OrderLines[i].Quantity = 1
		}
	}
	if req.Order.Customer.IsZero() {
		return nil, fmt.Errorf("%w: order.customer is required", ErrInvalidRequest)
	}
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var resp SessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/session/charge", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetCharge(ctx context.Context, handleOrID string) (*Charge, error) {
	var resp Charge
	if err := c.do(ctx, http.MethodGet, "/v1/charge/"+url.PathEscape(handleOrID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetInvoice(ctx context.Context, handle string) (*Invoice, error) {
	var resp Invoice
	if err := c.do(ctx, http.MethodGet, "/v1/invoice/"+url.PathEscape(handle), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateCustomer(ctx context.Context, customer Customer) (*Customer, error) {
	if err := c.validate.Struct(customer); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	var resp Customer
	if err := c.do(ctx, http.MethodPost, "/v1/customer", customer, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetCustomer(ctx context.Context, handle string) (*Customer, error) {
	var resp Customer
	if err := c.do(ctx, http.MethodGet, "/v1/customer/"+url.PathEscape(handle), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) (err error) {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	ctx, span := otel.Tracer("limaskap/frisbii").Start(ctx, "frisbii "+method+" "+routeOf(path))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "frisbii request failed")
		}
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return marshalErr
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(c.apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("frisbii request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("frisbii %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	c.log.Debug("frisbii request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("frisbii %s %s: read body: %w", method, path, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var parsed map[string]any
		if jsonErr := json.Unmarshal(raw, &parsed); jsonErr != nil {
			parsed = map[string]any{}
		}
		apiErr := newAPIError(res.StatusCode, parsed)
		c.log.Warn("frisbii api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("frisbii %s %s: decode response: %w", method, path, err)
	}
	return nil
}

func basicAuth(apiKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(apiKey + ":"))
}

// routeOf strips the resource handle so span names stay low-cardinality.
func routeOf(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 3 && parts[1] != "session" {
		parts[2] = "{handle}"
	}
	return "/" + strings.Join(parts, "/")
}

var _ Gateway = (*Client)(nil)
