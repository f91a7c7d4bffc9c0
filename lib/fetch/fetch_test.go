package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return NewClient(resty.New(), Options{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Cooldown:    -1,
	})
}

func TestOptionsDefaults(t *testing.T) {
	client := NewClient(resty.New(), Options{})
	require.Equal(t, 15*time.Second, client.opts.Timeout)
	require.Equal(t, 3, client.opts.MaxAttempts)
	require.Equal(t, 500*time.Millisecond, client.opts.BaseDelay)
	require.Equal(t, 5*time.Second, client.opts.MaxDelay)
	require.Equal(t, 250*time.Millisecond, client.opts.Cooldown)
}

func TestGetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	body, err := testClient().Get(context.Background(), server.URL, map[string]string{
		"X-Requested-With": "XMLHttpRequest",
	})
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(body))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	body, err := testClient().Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	require.Equal(t, "recovered", string(body))
	require.EqualValues(t, 3, calls.Load())
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testClient().Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.EqualValues(t, 3, calls.Load())

	var fe *Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, KindServer, fe.Kind)
	require.Equal(t, http.StatusBadGateway, fe.StatusCode)
	require.True(t, fe.Retryable())
}

func TestGetClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient().Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())

	var fe *Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, KindClient, fe.Kind)
	require.Equal(t, http.StatusNotFound, fe.StatusCode)
	require.False(t, fe.Retryable())
}

func TestGetTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(resty.New(), Options{
		Timeout:     50 * time.Millisecond,
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		Cooldown:    -1,
	})
	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, KindTimeout, fe.Kind)
}

func TestGetCooldownThrottlesAfterSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(resty.New(), Options{
		Timeout:     5 * time.Second,
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		Cooldown:    60 * time.Millisecond,
	})

	start := time.Now()
	_, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestGetCooldownThrottlesAfterFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(resty.New(), Options{
		Timeout:     5 * time.Second,
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		Cooldown:    60 * time.Millisecond,
	})

	start := time.Now()
	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestGetNetworkError(t *testing.T) {
	// nothing listens here
	_, err := testClient().Get(context.Background(), "http://127.0.0.1:1", nil)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	require.True(t, fe.Retryable())
}
