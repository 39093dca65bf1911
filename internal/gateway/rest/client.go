package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	statusPath      = "/api/v1/attendance/status"
	breakStatusPath = "/api/v1/attendance/break-status"
	attendancePath  = "/api/v1/attendance"
	breakPath       = "/api/v1/attendance/break"

	// DefaultTimeout bounds every gateway call.
	DefaultTimeout = 15 * time.Second

	maxErrorBody = 4 << 10
)

// Client is the HTTP implementation of attendance.Gateway.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid gateway url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) FetchPunch(ctx context.Context, session attendance.Session) (attendance.PunchRecord, error) {
	const op = "fetch attendance status"

	var env attendance.Envelope[attendance.PunchRecordDTO]
	if err := c.do(ctx, session, op, http.MethodGet, statusPath, nil, &env); err != nil {
		return attendance.PunchRecord{}, err
	}
	if len(env.Data) == 0 {
		return attendance.PunchRecord{Status: attendance.PunchStatusNone}, nil
	}

	rec, err := env.Data[0].ToRecord()
	if err != nil {
		return attendance.PunchRecord{}, &attendance.FetchError{Op: op, Err: fmt.Errorf("%w: %w", attendance.ErrMalformedRecord, err)}
	}
	return rec, nil
}

func (c *Client) FetchBreak(ctx context.Context, session attendance.Session) (attendance.BreakRecord, error) {
	const op = "fetch break status"

	var env attendance.Envelope[attendance.BreakRecordDTO]
	if err := c.do(ctx, session, op, http.MethodGet, breakStatusPath, nil, &env); err != nil {
		return attendance.BreakRecord{}, err
	}
	if len(env.Data) == 0 {
		return attendance.BreakRecord{Status: attendance.BreakStatusNone}, nil
	}

	rec, err := env.Data[0].ToRecord()
	if err != nil {
		return attendance.BreakRecord{}, &attendance.FetchError{Op: op, Err: fmt.Errorf("%w: %w", attendance.ErrMalformedRecord, err)}
	}
	return rec, nil
}

func (c *Client) PostAttendance(ctx context.Context, session attendance.Session, req attendance.CreateAttendanceRequest) (attendance.ActionResponse, error) {
	var env attendance.Envelope[json.RawMessage]
	if err := c.do(ctx, session, "post attendance", http.MethodPost, attendancePath, req, &env); err != nil {
		return attendance.ActionResponse{}, err
	}
	return attendance.ActionResponse{Message: env.Message}, nil
}

func (c *Client) PostBreak(ctx context.Context, session attendance.Session, req attendance.CreateBreakRequest) (attendance.ActionResponse, error) {
	var env attendance.Envelope[json.RawMessage]
	if err := c.do(ctx, session, "post break", http.MethodPost, breakPath, req, &env); err != nil {
		return attendance.ActionResponse{}, err
	}
	return attendance.ActionResponse{Message: env.Message}, nil
}

// outcome is implemented by every Envelope instantiation.
type outcome interface {
	Outcome() (bool, string)
}

func (c *Client) do(ctx context.Context, session attendance.Session, op, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return &attendance.FetchError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return &attendance.FetchError{Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session.Token != "" {
		(&oauth2.Token{AccessToken: session.Token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Gateway request failed", "op", op, "request_id", requestID, "error", err)
		return &attendance.FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Gateway request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &attendance.FetchError{Op: op, StatusCode: resp.StatusCode, Err: errorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &attendance.FetchError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if o, ok := out.(outcome); ok {
		if accepted, message := o.Outcome(); !accepted {
			return &attendance.BusinessRejection{Op: op, Message: message}
		}
	}
	return nil
}

// errorMessage extracts the envelope message of an error response, if any.
func errorMessage(r io.Reader) error {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&env); err != nil || env.Message == "" {
		return nil
	}
	return errors.New(env.Message)
}
