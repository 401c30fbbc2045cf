// Package transport performs the HTTP round trips to the marketplace API.
// It builds JSON, plain and multipart requests, sends each of them exactly once,
// and classifies the outcome as a decoded success or an *Error carrying the
// status code and the raw response text.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"market_client/internal/pkg/logger"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Error is the single failure kind of the executor. A non-200 response carries
// its status code and body text; a transport failure has StatusCode 0 and wraps
// the underlying error.
type Error struct {
	StatusCode int    // HTTP status, 0 when no response was received.
	Message    string // Raw response body, or the transport's error text.
	Err        error  // Underlying cause, if any.
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Executor sends requests to the API root it was created for.
// Each Executor keeps its own cookie jar, so the backend's session cookie
// follows every call made through it and never leaks to another Executor.
type Executor struct {
	client *resty.Client
	log    *logger.Logger
}

// NewExecutor creates an Executor for the given API root, e.g. "http://localhost:3030/api".
func NewExecutor(baseURL string, l *logger.Logger) *Executor {
	client := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetLogger(l.Sugar())
	return &Executor{client: client, log: l}
}

// Do sends body as JSON (no body when nil) and expects status 200.
// On success the response is decoded into out unless out is nil.
func (e *Executor) Do(ctx context.Context, method, path string, body, out any) error {
	resp, err := e.send(ctx, method, path, withJSON(body))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// Raw sends body as JSON, expects status 200 and returns the undecoded response body.
func (e *Executor) Raw(ctx context.Context, method, path string, body any) ([]byte, error) {
	resp, err := e.send(ctx, method, path, withJSON(body))
	if err != nil {
		return nil, err
	}
	if err := decode(resp, nil); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Text sends body as JSON and returns the response text whatever the status.
// Only transport failures produce an error.
func (e *Executor) Text(ctx context.Context, method, path string, body any) (string, error) {
	resp, err := e.send(ctx, method, path, withJSON(body))
	if err != nil {
		return "", err
	}
	return string(resp.Body()), nil
}

// Upload posts r as a multipart form file under field and expects status 200.
// On success the response is decoded into out unless out is nil.
func (e *Executor) Upload(ctx context.Context, path, field, fileName string, r io.Reader, out any) error {
	resp, err := e.send(ctx, http.MethodPost, path, func(req *resty.Request) {
		req.SetFileReader(field, fileName, r)
	})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (e *Executor) send(ctx context.Context, method, path string, prepare func(*resty.Request)) (*resty.Response, error) {
	requestID := uuid.NewString()
	req := e.client.R().
		SetContext(ctx).
		SetHeader(logger.RequestIDHeader, requestID)
	prepare(req)

	l := e.log.ForRequest(method, path, requestID)
	t1 := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		l.Debug("request failed", zap.Duration("duration", time.Since(t1)), zap.Error(err))
		return nil, &Error{Message: err.Error(), Err: err}
	}

	l.Debug("request completed",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", time.Since(t1)),
		zap.Int("size", len(resp.Body())))
	return resp, nil
}

func withJSON(body any) func(*resty.Request) {
	return func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json")
		if body != nil {
			req.SetBody(body)
		}
	}
}

func decode(resp *resty.Response, out any) error {
	if resp.StatusCode() != http.StatusOK {
		return &Error{StatusCode: resp.StatusCode(), Message: string(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &Error{
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("decoding response: %s", err),
			Err:        err,
		}
	}
	return nil
}
