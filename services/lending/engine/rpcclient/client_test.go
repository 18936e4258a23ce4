package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	header http.Header
}

type requestLog struct {
	mu   sync.Mutex
	reqs []capturedRequest
}

func (l *requestLog) all() []capturedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]capturedRequest(nil), l.reqs...)
}

func newServer(t *testing.T, handler func(req capturedRequest) (int, string)) (*httptest.Server, *requestLog) {
	t.Helper()
	seen := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.header = r.Header.Clone()
		seen.mu.Lock()
		seen.reqs = append(seen.reqs, req)
		seen.mu.Unlock()
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestCallDecodesResult(t *testing.T) {
	srv, seen := newServer(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"address":"nhb1abc"}}`
	})
	client, err := NewClient(Config{BaseURL: srv.URL, AllowInsecure: true, BearerToken: "static", SharedSecretHeader: "X-NHB-Shared-Secret", SharedSecretValue: "s3"})
	require.NoError(t, err)

	var out struct {
		Address string `json:"address"`
	}
	require.NoError(t, client.Call(context.Background(), "lending_getReserve", []string{"nhb1abc"}, &out))
	require.Equal(t, "nhb1abc", out.Address)

	reqs := seen.all()
	require.Len(t, reqs, 1)
	req := reqs[0]
	require.Equal(t, "lending_getReserve", req.Method)
	require.JSONEq(t, `["nhb1abc"]`, string(req.Params))
	require.Equal(t, "Bearer static", req.header.Get("Authorization"))
	require.Equal(t, "s3", req.header.Get("X-NHB-Shared-Secret"))
	require.Equal(t, "nhb-repay", req.header.Get("X-Client"))
	require.NotEmpty(t, req.header.Get("X-Request-ID"))
}

func TestCallSignsJWT(t *testing.T) {
	secret := "repay-secret"
	srv, seen := newServer(t, func(capturedRequest) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":null}`
	})
	client, err := NewClient(Config{BaseURL: srv.URL, AllowInsecure: true, JWTSecret: secret, JWTIssuer: "nhb-repay", JWTAudience: "nhb-node"})
	require.NoError(t, err)

	require.NoError(t, client.Call(context.Background(), "lending_getMint", nil, nil))
	require.NoError(t, client.Call(context.Background(), "lending_getMint", nil, nil))
	reqs := seen.all()
	require.Len(t, reqs, 2)

	first := strings.TrimPrefix(reqs[0].header.Get("Authorization"), "Bearer ")
	second := strings.TrimPrefix(reqs[1].header.Get("Authorization"), "Bearer ")
	require.Equal(t, first, second, "token should be reused within its lifetime")

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(first, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithAudience("nhb-node"), jwt.WithIssuer("nhb-repay"))
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, "nhb-repay", claims.Subject)
}

func TestTokenSourceRenews(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	source := &tokenSource{secret: []byte("k"), ttl: time.Minute, now: func() time.Time { return now }}
	first, err := source.Token()
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	again, err := source.Token()
	require.NoError(t, err)
	require.Equal(t, first, again)
	now = now.Add(20 * time.Second)
	renewed, err := source.Token()
	require.NoError(t, err)
	require.NotEqual(t, first, renewed)
}

func TestCallReturnsTypedRPCError(t *testing.T) {
	srv, _ := newServer(t, func(capturedRequest) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"insufficient balance"}}`
	})
	client, err := NewClient(Config{BaseURL: srv.URL, AllowInsecure: true})
	require.NoError(t, err)

	err = client.Call(context.Background(), "lending_repay", nil, nil)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, -32000, rpcErr.Code)
	require.Equal(t, "insufficient balance", rpcErr.Message)
	require.Equal(t, "rpc", classify(err))
}

func TestCallReturnsHTTPError(t *testing.T) {
	srv, _ := newServer(t, func(capturedRequest) (int, string) {
		return http.StatusUnauthorized, `{}`
	})
	client, err := NewClient(Config{BaseURL: srv.URL, AllowInsecure: true})
	require.NoError(t, err)

	err = client.Call(context.Background(), "lending_getReserve", nil, nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	require.Equal(t, "http", classify(err))
}

func TestLimiterHonoursContext(t *testing.T) {
	srv, seen := newServer(t, func(capturedRequest) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":null}`
	})
	client, err := NewClient(Config{BaseURL: srv.URL, AllowInsecure: true, RatePerSecond: 0.001, RateBurst: 1})
	require.NoError(t, err)

	require.NoError(t, client.Call(context.Background(), "lending_getMint", nil, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = client.Call(ctx, "lending_getMint", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limit")
	require.Len(t, seen.all(), 1)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{AllowInsecure: true})
	require.Error(t, err)
}
