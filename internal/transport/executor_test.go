package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"market_client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Value string `json:"value"`
}

func newTestExecutor(t *testing.T, handler http.HandlerFunc) (*Executor, *httptest.Server) {
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewExecutor(ts.URL+"/api", logger.NewNop()), ts
}

func TestExecutor_Do(t *testing.T) {
	var gotPath, gotMethod, gotBody, gotContentType, gotRequestID string
	executor, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotPath, gotMethod, gotBody = r.URL.Path, r.Method, string(body)
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(logger.RequestIDHeader)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"value":"pong"}`))
	})

	var out echo
	err := executor.Do(context.Background(), http.MethodPost, "/ping", echo{Value: "ping"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "/api/ping", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"value":"ping"}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "pong", out.Value)
}

func TestExecutor_DoWithoutBody(t *testing.T) {
	var gotBody string
	executor, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, executor.Do(context.Background(), http.MethodPost, "/user", nil, nil))
	assert.Empty(t, gotBody)
}

func TestExecutor_Failures(t *testing.T) {
	testCases := []struct {
		name           string
		status         int
		body           string
		expectedStatus int
		expectedText   string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: "User not found", expectedStatus: http.StatusBadRequest, expectedText: "User not found"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: "Not logged in", expectedStatus: http.StatusUnauthorized, expectedText: "Not logged in"},
		{name: "other success code", status: http.StatusCreated, body: "created", expectedStatus: http.StatusCreated, expectedText: "created"},
		{name: "body kept verbatim", status: http.StatusInternalServerError, body: " spaced \n", expectedStatus: http.StatusInternalServerError, expectedText: " spaced \n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			executor, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			var out echo
			err := executor.Do(context.Background(), http.MethodPost, "/x", nil, &out)
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.expectedStatus, apiErr.StatusCode)
			assert.Equal(t, tc.expectedText, apiErr.Error())
			assert.Empty(t, out.Value)
		})
	}
}

func TestExecutor_UndecodableBody(t *testing.T) {
	executor, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var out echo
	err := executor.Do(context.Background(), http.MethodPost, "/x", nil, &out)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.NotNil(t, apiErr.Unwrap())
}

func TestExecutor_TransportFailure(t *testing.T) {
	executor, ts := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {})
	ts.Close()

	err := executor.Do(context.Background(), http.MethodGet, "/hello", nil, nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
	assert.NotNil(t, apiErr.Unwrap())
}

func TestExecutor_Text(t *testing.T) {
	executor, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Value must be alphanumeric"))
	})

	text, err := executor.Text(context.Background(), http.MethodPost, "/validate/username", echo{Value: "a b"})
	require.NoError(t, err)
	assert.Equal(t, "Value must be alphanumeric", text)
}

func TestExecutor_Upload(t *testing.T) {
	var gotName, gotContent string
	executor, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		gotName, gotContent = header.Filename, string(content)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"value":"stored"}`))
	})

	var out echo
	err := executor.Upload(context.Background(), "/attachment/upload", "file", "cat.png", strings.NewReader("png-bytes"), &out)
	require.NoError(t, err)

	assert.Equal(t, "cat.png", gotName)
	assert.Equal(t, "png-bytes", gotContent)
	assert.Equal(t, "stored", out.Value)
}

func TestExecutor_KeepsSessionCookie(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "token", Path: "/"})
			w.WriteHeader(http.StatusOK)
		default:
			if c, err := r.Cookie("session"); err != nil || c.Value != "token" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Not logged in"))
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}
	executor, ts := newTestExecutor(t, handler)
	other := NewExecutor(ts.URL+"/api", logger.NewNop())

	require.NoError(t, executor.Do(context.Background(), http.MethodPost, "/login", nil, nil))
	require.NoError(t, executor.Do(context.Background(), http.MethodPost, "/me", nil, nil))

	err := other.Do(context.Background(), http.MethodPost, "/me", nil, nil)
	assert.EqualError(t, err, "Not logged in")
}
