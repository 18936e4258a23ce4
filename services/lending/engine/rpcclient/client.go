package rpcclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"nhbrepay/observability"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultTokenTTL = 5 * time.Minute
	clientName      = "nhb-repay"
)

// Config controls how the Client connects to the node's lending RPC endpoint.
type Config struct {
	BaseURL string
	// BearerToken is sent verbatim when set and takes precedence over JWTSecret.
	BearerToken string
	// JWTSecret signs short lived HS256 bearer tokens per the node's auth
	// middleware.
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	JWTTTL             time.Duration
	SharedSecretHeader string
	SharedSecretValue  string
	TLSClientCAFile    string
	AllowInsecure      bool
	Timeout            time.Duration
	// RatePerSecond bounds outgoing calls; zero disables the limiter.
	RatePerSecond float64
	RateBurst     int
}

// Error is a JSON-RPC error object returned by the node.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s: %s", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("rpc call failed with status %s", e.Status)
}

// Client implements the subset of JSON-RPC 2.0 used by the lending adapter.
type Client struct {
	baseURL      string
	http         *http.Client
	bearer       string
	tokens       *tokenSource
	sharedHeader string
	sharedValue  string
	limiter      *rate.Limiter
	nextID       atomic.Int64
}

// NewClient constructs a Client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	tlsConfig := &tls.Config{}
	if cfg.AllowInsecure {
		tlsConfig.InsecureSkipVerify = true
	} else {
		systemPool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("load system cert pool: %w", err)
		}
		if systemPool == nil {
			systemPool = x509.NewCertPool()
		}
		if strings.TrimSpace(cfg.TLSClientCAFile) != "" {
			pemBytes, err := os.ReadFile(cfg.TLSClientCAFile)
			if err != nil {
				return nil, fmt.Errorf("read client ca file: %w", err)
			}
			if ok := systemPool.AppendCertsFromPEM(pemBytes); !ok {
				return nil, fmt.Errorf("append client ca certificates: invalid pem data")
			}
		}
		tlsConfig.RootCAs = systemPool
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := otelhttp.NewTransport(&http.Transport{TLSClientConfig: tlsConfig})
	client := &Client{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: timeout, Transport: transport},
		bearer:       strings.TrimSpace(cfg.BearerToken),
		sharedHeader: strings.TrimSpace(cfg.SharedSecretHeader),
		sharedValue:  strings.TrimSpace(cfg.SharedSecretValue),
	}
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" && client.bearer == "" {
		ttl := cfg.JWTTTL
		if ttl <= 0 {
			ttl = defaultTokenTTL
		}
		client.tokens = &tokenSource{
			secret:   []byte(secret),
			issuer:   strings.TrimSpace(cfg.JWTIssuer),
			audience: strings.TrimSpace(cfg.JWTAudience),
			ttl:      ttl,
			now:      time.Now,
		}
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return client, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// Call performs a JSON-RPC request to the configured endpoint.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	start := time.Now()
	err := c.call(ctx, method, params, result)
	observability.RPCMetrics().Observe(method, classify(err), time.Since(start))
	return err
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	if c.limiter != nil {
		if c.limiter.Tokens() < 1 {
			observability.RPCMetrics().RecordThrottle(method, "wait")
		}
		if err := c.limiter.Wait(ctx); err != nil {
			observability.RPCMetrics().RecordThrottle(method, "rejected")
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	reqBody := rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Client", clientName)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	bearer, err := c.bearerToken()
	if err != nil {
		return err
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}
	if c.sharedHeader != "" && c.sharedValue != "" {
		httpReq.Header.Set(c.sharedHeader, c.sharedValue)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call rpc: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

func (c *Client) bearerToken() (string, error) {
	if c.bearer != "" {
		return c.bearer, nil
	}
	if c.tokens == nil {
		return "", nil
	}
	return c.tokens.Token()
}

func classify(err error) string {
	if err == nil {
		return ""
	}
	var rpcErr *Error
	var httpErr *HTTPError
	switch {
	case errors.As(err, &rpcErr):
		return "rpc"
	case errors.As(err, &httpErr):
		return "http"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	default:
		return "transport"
	}
}

// tokenSource mints HS256 tokens and reuses each one for most of its lifetime.
type tokenSource struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	token   string
	renewAt time.Time
}

func (s *tokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.token != "" && now.Before(s.renewAt) {
		return s.token, nil
	}
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   clientName,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign bearer token: %w", err)
	}
	s.token = signed
	s.renewAt = now.Add(s.ttl * 4 / 5)
	return signed, nil
}
