package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"employee-gateway/employee/domain"
	"employee-gateway/internal/jsoncodec"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 10 << 20

	OpListAll      = "list_all"
	OpGetOne       = "get_one"
	OpDeleteByName = "delete_by_name"
	OpCreate       = "create"
)

// Client é o adapter do serviço upstream. Faz uma chamada HTTP por operação,
// desembrulha o envelope e classifica o status. Nunca re-tenta.
//
// É seguro para uso concorrente: o único estado compartilhado é o *http.Client.
type Client struct {
	baseURL  string
	http     *http.Client
	recorder domain.OutcomeRecorder
	tracer   trace.Tracer

	recordTimeout time.Duration

	maxConnsPerHost       int
	maxIdleConns          int
	dialTimeout           time.Duration
	responseHeaderTimeout time.Duration
	idleConnTimeout       time.Duration
}

var _ domain.Upstream = (*Client)(nil)

type ClientOption func(*Client)

// WithPool dimensiona o pool de conexões (total ocioso e máximo por host).
func WithPool(maxConnsPerHost, maxIdleConns int) ClientOption {
	return func(c *Client) {
		c.maxConnsPerHost = maxConnsPerHost
		c.maxIdleConns = maxIdleConns
	}
}

func WithTimeouts(dial, responseHeader time.Duration) ClientOption {
	return func(c *Client) {
		c.dialTimeout = dial
		c.responseHeaderTimeout = responseHeader
	}
}

// WithHTTPClient substitui o *http.Client montado por NewClient (testes, proxies).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithRecorder(r domain.OutcomeRecorder) ClientOption {
	return func(c *Client) { c.recorder = r }
}

// WithRecordTimeout limita quanto cada registro de desfecho pode segurar a
// chamada. Zero ou negativo desliga o limite.
func WithRecordTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.recordTimeout = d }
}

func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) { c.tracer = t }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:               strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		maxConnsPerHost:       20,
		maxIdleConns:          100,
		dialTimeout:           5 * time.Second,
		responseHeaderTimeout: 10 * time.Second,
		idleConnTimeout:       90 * time.Second,
		recordTimeout:         250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Transport: c.newTransport()}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("employee-gateway/upstream")
	}
	return c
}

func (c *Client) newTransport() *http.Transport {
	idlePerHost := c.maxConnsPerHost
	if idlePerHost <= 0 || idlePerHost > c.maxIdleConns {
		idlePerHost = c.maxIdleConns
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   c.dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          c.maxIdleConns,
		MaxIdleConnsPerHost:   idlePerHost,
		MaxConnsPerHost:       c.maxConnsPerHost,
		IdleConnTimeout:       c.idleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: c.responseHeaderTimeout,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// ListAll busca a coleção inteira. Corpo ou data ausente vira slice vazio.
func (c *Client) ListAll(ctx context.Context) ([]domain.UpstreamEmployee, error) {
	var env domain.Envelope[[]domain.UpstreamEmployee]
	if _, err := c.do(ctx, request{op: OpListAll, method: http.MethodGet, url: c.baseURL}, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []domain.UpstreamEmployee{}, nil
	}
	return env.Data, nil
}

// GetOne busca um funcionário; 404 do upstream vira (zero, false, nil).
func (c *Client) GetOne(ctx context.Context, id string) (domain.UpstreamEmployee, bool, error) {
	var env domain.Envelope[*domain.UpstreamEmployee]
	found, err := c.do(ctx, request{
		op:         OpGetOne,
		method:     http.MethodGet,
		url:        c.baseURL + "/" + url.PathEscape(id),
		notFoundOK: true,
	}, &env)
	if err != nil || !found || env.Data == nil {
		return domain.UpstreamEmployee{}, false, err
	}
	return *env.Data, true, nil
}

// DeleteByName remove pelo nome; o resultado é o booleano do envelope (false se ausente).
func (c *Client) DeleteByName(ctx context.Context, name string) (bool, error) {
	var env domain.Envelope[*bool]
	if _, err := c.do(ctx, request{
		op:     OpDeleteByName,
		method: http.MethodDelete,
		url:    c.baseURL,
		body:   domain.UpstreamDeleteRequest{Name: name},
	}, &env); err != nil {
		return false, err
	}
	return env.Data != nil && *env.Data, nil
}

// Create cria no upstream e devolve a entidade do envelope, se houver.
func (c *Client) Create(ctx context.Context, req domain.UpstreamCreateRequest) (domain.UpstreamEmployee, bool, error) {
	var env domain.Envelope[*domain.UpstreamEmployee]
	if _, err := c.do(ctx, request{
		op:     OpCreate,
		method: http.MethodPost,
		url:    c.baseURL,
		body:   req,
	}, &env); err != nil {
		return domain.UpstreamEmployee{}, false, err
	}
	if env.Data == nil {
		return domain.UpstreamEmployee{}, false, nil
	}
	return *env.Data, true, nil
}

type request struct {
	op     string
	method string
	url    string
	body   any
	// notFoundOK faz o 404 virar "ausente" em vez de falha.
	notFoundOK bool
}

// record desacopla do cancelamento da request mas não do prazo próprio.
func (c *Client) record(ctx context.Context, ev domain.OutcomeEvent) {
	if c.recorder == nil {
		return
	}
	rctx := context.WithoutCancel(ctx)
	if c.recordTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, c.recordTimeout)
		defer cancel()
	}
	_ = c.recorder.Record(rctx, ev)
}

// do executa a chamada e classifica o resultado:
//   - 429 → *domain.RateLimitError (prioridade sobre qualquer outra regra)
//   - 404 com notFoundOK → (false, nil)
//   - outro não-2xx, erro de transporte ou JSON inválido → *domain.UpstreamError
//   - 2xx → envelope decodificado em out, (true, nil)
func (c *Client) do(ctx context.Context, r request, out any) (found bool, err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "upstream."+r.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", r.method),
			attribute.String("upstream.op", r.op),
		),
	)
	ev := domain.OutcomeEvent{Op: r.op, At: start}
	defer func() {
		ev.Duration = time.Since(start)
		span.SetAttributes(
			attribute.Int("http.status_code", ev.StatusCode),
			attribute.String("upstream.outcome", string(ev.Outcome)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(ev.Outcome))
		}
		span.End()
		c.record(ctx, ev)
	}()

	status, header, body, err := c.roundTrip(ctx, r)
	if err != nil {
		ev.Outcome = domain.OutcomeFailure
		return false, &domain.UpstreamError{Op: r.op, Method: r.method, URL: r.url, Err: err}
	}
	ev.StatusCode = status

	switch {
	case status == http.StatusTooManyRequests:
		rl := domain.NewRateLimitError(r.op, header.Get("Retry-After"))
		ev.Outcome = domain.OutcomeRateLimited
		ev.RetryAfterSeconds, ev.HasRetryAfter = rl.RetryAfterSeconds, rl.HasRetryAfter
		return false, rl
	case status == http.StatusNotFound && r.notFoundOK:
		ev.Outcome = domain.OutcomeNotFound
		return false, nil
	case status < 200 || status >= 300:
		ev.Outcome = domain.OutcomeFailure
		return false, &domain.UpstreamError{Op: r.op, Method: r.method, URL: r.url, StatusCode: status, Body: body}
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := jsoncodec.Unmarshal(body, out); err != nil {
			ev.Outcome = domain.OutcomeFailure
			return false, &domain.UpstreamError{
				Op: r.op, Method: r.method, URL: r.url, StatusCode: status, Body: body,
				Err: fmt.Errorf("decode envelope: %w", err),
			}
		}
	}
	ev.Outcome = domain.OutcomeOK
	return true, nil
}

// roundTrip sempre lê e fecha o corpo para o transporte poder reaproveitar a conexão.
func (c *Client) roundTrip(ctx context.Context, r request) (int, http.Header, []byte, error) {
	var reader io.Reader
	if r.body != nil {
		b, err := jsoncodec.Marshal(r.body)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Accept", contentTypeJSON)
	if reader != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}
