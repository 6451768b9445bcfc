package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

const maxErrorBodyBytes = 64 << 10

// Observer получает длительность каждого запроса к backend.
type Observer interface {
	ObserveBackendRequest(operation, result string, duration time.Duration)
}

// Options задаёт параметры клиента.
type Options struct {
	HTTPClient *http.Client
	// Timeout ограничивает один запрос; 0 отключает ограничение.
	Timeout  time.Duration
	Logger   *log.Entry
	Observer Observer
}

// Option настраивает Client.
type Option func(*Options)

// WithHTTPClient задаёт http.Client (например, из httptest).
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithTimeout задаёт таймаут одного запроса.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithObserver задаёт получателя метрик запросов.
func WithObserver(observer Observer) Option {
	return func(opts *Options) {
		opts.Observer = observer
	}
}

// Client это REST-клиент backend Abasta. Повторных попыток нет: ошибка возвращается один раз.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	timeout  time.Duration
	logger   *log.Entry
	observer Observer
}

// NewClient создаёт клиент для baseURL вида http://host:port.
func NewClient(baseURL string, options ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend base url must be absolute: %q", baseURL)
	}

	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "backend-client")
	}
	if opts.Timeout < 0 {
		opts.Timeout = 0
	}

	return &Client{
		baseURL:  parsed,
		http:     opts.HTTPClient,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		observer: opts.Observer,
	}, nil
}

type call struct {
	operation string
	method    string
	path      string
	query     url.Values
	token     string
	body      any
}

// do выполняет запрос и декодирует поле data конверта в out (если out != nil).
func (c *Client) do(ctx context.Context, req call, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	err := c.roundTrip(ctx, req, out)

	result := "ok"
	if err != nil {
		result = "error"
		if rErr, ok := domain.AsRequestError(err); ok && rErr.StatusCode > 0 {
			result = fmt.Sprintf("%dxx", rErr.StatusCode/100)
		}
	}
	if c.observer != nil {
		c.observer.ObserveBackendRequest(req.operation, result, time.Since(started))
	}
	if err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"operation": req.operation,
			"path":      req.path,
		}).Debug("backend request failed")
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, req call, out any) error {
	// req.path уже экранирован escape: RawPath сохраняет его, Path хранит декодированный вид.
	endpoint := *c.baseURL
	endpoint.RawPath = c.baseURL.EscapedPath() + req.path
	decoded, err := url.PathUnescape(endpoint.RawPath)
	if err != nil {
		return fmt.Errorf("build %s path: %w", req.operation, err)
	}
	endpoint.Path = decoded
	if len(req.query) > 0 {
		endpoint.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", req.operation, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.operation, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &domain.RequestError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &domain.RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.RequestError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
			Err:        fmt.Errorf("%s %s: %s", req.method, req.path, http.StatusText(resp.StatusCode)),
		}
	}

	return decodeEnvelope(raw, out)
}

// Ping проверяет, что backend отвечает. Любой HTTP-ответ считается доступностью.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &domain.RequestError{Err: err}
	}
	_ = resp.Body.Close()
	return nil
}

func decodeEnvelope(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return &domain.RequestError{Err: errors.New("empty response body")}
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &domain.RequestError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if env.Success != nil && !*env.Success {
		return &domain.RequestError{Message: env.Message, Err: errors.New("backend reported failure")}
	}
	if out == nil {
		return nil
	}

	data := env.Data
	if len(data) == 0 && env.Success == nil {
		// Ответ без конверта.
		data = raw
	}
	if len(data) == 0 || string(data) == "null" {
		return &domain.RequestError{Message: env.Message, Err: errors.New("response has no data")}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.RequestError{Err: fmt.Errorf("decode response data: %w", err)}
	}
	return nil
}

func errorMessage(raw []byte) string {
	if len(raw) > maxErrorBodyBytes {
		raw = raw[:maxErrorBodyBytes]
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func pageQuery(req domain.PageRequest) url.Values {
	req = req.Normalize()
	q := url.Values{}
	q.Set("page", fmt.Sprint(req.Page))
	q.Set("size", fmt.Sprint(req.Size))
	q.Set("sortBy", req.SortBy)
	q.Set("sortDir", string(req.SortDir))
	return q
}

func escape(id string) string {
	return url.PathEscape(id)
}
