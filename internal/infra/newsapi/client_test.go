package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetJSON_Success(t *testing.T) {
	var gotQuery url.Values
	var gotPath, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"results":[],"total":0,"page":2,"limit":5}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/api/", time.Second, 3)
	body, err := client.GetJSON(context.Background(), "/news", url.Values{
		"page":     {"2"},
		"limit":    {"5"},
		"category": {"Sports,World"},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[],"total":0,"page":2,"limit":5}`, string(body))
	assert.Equal(t, "/api/news", gotPath)
	assert.Equal(t, "Sports,World", gotQuery.Get("category"))
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, server.URL+"/api", client.BaseURL())
}

func TestClient_GetJSON_StatusClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{"not found", http.StatusNotFound, `{"message":"no such article"}`, KindClientError, MsgNotFound},
		{"forbidden", http.StatusForbidden, ``, KindClientError, MsgForbidden},
		{"server error", http.StatusBadGateway, `<html>bad gateway</html>`, KindServerError, MsgServerError},
		{"other 4xx uses server message", http.StatusBadRequest, `{"message":"limit too large"}`, KindClientError, "limit too large"},
		{"other 4xx without message", http.StatusTeapot, `nope`, KindClientError, MsgUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second, 0)
			_, err := client.GetJSON(context.Background(), "news/x", nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.UserMessage)
			assert.Equal(t, tt.wantMessage, UserMessage(err))
		})
	}
}

func TestClient_GetJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond, 0)
	_, err := client.GetJSON(context.Background(), "news", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNetworkUnreachable, apiErr.Kind)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.Equal(t, MsgConnectivity, UserMessage(err))
}

func TestClient_GetJSON_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client := NewClient(base, time.Second, 0)
	_, err := client.GetJSON(context.Background(), "news", nil)

	assert.Equal(t, MsgConnectivity, UserMessage(err))
}

func TestClient_GetJSON_BreakerOpens(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 2)
	for i := 0; i < 2; i++ {
		_, err := client.GetJSON(context.Background(), "news", nil)
		require.Error(t, err)
	}

	// Third call is rejected locally
	_, err := client.GetJSON(context.Background(), "news", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNetworkUnreachable, apiErr.Kind)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_GetJSON_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 1)
	for i := 0; i < 3; i++ {
		_, err := client.GetJSON(context.Background(), "news/missing", nil)
		assert.Equal(t, MsgNotFound, UserMessage(err))
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/contact", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Ada", payload["name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/api", time.Second, 0)
	status, body, err := client.PostJSON(context.Background(), "contact", map[string]string{"name": "Ada"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"status":"success"}`, string(body))
}

func TestUserMessage_Unclassified(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, MsgUnexpected, UserMessage(errors.New("boom")))
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "hi", ServerMessage([]byte(`{"message":"hi"}`)))
	assert.Equal(t, "", ServerMessage([]byte(`not json`)))
}
