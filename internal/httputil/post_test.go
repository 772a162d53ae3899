// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestPostJSON_Success(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		var in echo
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.Value++
		json.NewEncoder(w).Encode(in)
	}))
	defer ts.Close()

	var out echo
	header := http.Header{"X-API-Key": []string{"secret"}}
	err := PostJSON(context.Background(), ts.Client(), ts.URL, header, echo{Name: "a", Value: 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, echo{Name: "a", Value: 2}, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostJSON_RateLimitedIsNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer ts.Close()

	err := PostJSON(context.Background(), ts.Client(), ts.URL, nil, echo{}, &echo{})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.RateLimited())
	assert.Equal(t, "slow down", se.Body)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostJSON_ServerErrorTruncatesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer ts.Close()

	err := PostJSON(context.Background(), ts.Client(), ts.URL, nil, echo{}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.False(t, se.RateLimited())
	assert.Len(t, se.Body, maxErrorBody)
}

func TestPostJSON_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	err := PostJSON(context.Background(), ts.Client(), ts.URL, nil, echo{}, &echo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestPostJSON_TooLarge(t *testing.T) {
	old := MaxResponseSize
	MaxResponseSize = 8
	defer func() { MaxResponseSize = old }()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"a long enough reply"}`))
	}))
	defer ts.Close()

	err := PostJSON(context.Background(), ts.Client(), ts.URL, nil, echo{}, &echo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestPostJSON_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PostJSON(ctx, ts.Client(), ts.URL, nil, echo{}, &echo{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
