package marketplace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL:             url,
		Timeout:             2 * time.Second,
		AppCredentialHeader: "X-App-Credentials",
		AccessTokenHeader:   "X-Access-Token",
	})
}

var testCreds = Credentials{AppCredential: "app-secret", AccessToken: "token-1"}

func TestFetchPage_HeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "app-secret", r.Header.Get("X-App-Credentials"))
		assert.Equal(t, "token-1", r.Header.Get("X-Access-Token"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "c1", r.URL.Query().Get("cursor"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[{"id":"p1"},{"id":"p2"}],"cursor":"c2"}`))
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).FetchPage(context.Background(), EntityProducts, testCreds, "c1")
	require.NoError(t, err)
	assert.Len(t, page.Records, 2)
	assert.Equal(t, "c2", page.Cursor)
}

func TestFetchPage_LastPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("cursor"))
		// 无 Content-Type 也按 JSON 解析
		w.Write([]byte(`{"orders":[{"id":"o1"}],"cursor":null}`))
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).FetchPage(context.Background(), EntityOrders, testCreds, "")
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Empty(t, page.Cursor)
}

func TestFetchPage_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).FetchPage(context.Background(), EntityOrders, testCreds, "")
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Empty(t, page.Cursor)
}

func TestFetchPage_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad token"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), EntityProducts, testCreds, "")
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Contains(t, te.Body, "bad token")
	assert.False(t, IsRetryable(err))
}

func TestFetchPage_NoRetryInsideClient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), EntityProducts, testCreds, "")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 1, calls)
}

// 单次请求超过 Client 超时时间：未收到响应，按网络错误可重试
func TestFetchPage_ClientTimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:             srv.URL,
		Timeout:             100 * time.Millisecond,
		AppCredentialHeader: "X-App-Credentials",
		AccessTokenHeader:   "X-Access-Token",
	})
	_, err := client.FetchPage(context.Background(), EntityProducts, testCreds, "")
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
	assert.True(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"网络错误", &TransportError{Err: errors.New("connection reset")}, true},
		{"429", &TransportError{StatusCode: 429}, true},
		{"502", &TransportError{StatusCode: 502}, true},
		{"404", &TransportError{StatusCode: 404}, false},
		{"请求超时", &TransportError{Err: context.DeadlineExceeded}, true},
		{"其他错误", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
