// Package agentclient talks to the privileged control agent over loopback HTTP.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/restartfu/truefan/internal/domain"
)

const (
	DefaultBaseURL = "http://127.0.0.1:5088"
	DefaultTimeout = 600 * time.Millisecond

	errConnectionFailed = "connection_failed"
)

// Result is the envelope every agent call produces.
type Result struct {
	OK         bool            `json:"ok"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

// Message returns the agent's error message from Data, if any.
func (r Result) Message() string {
	var body struct {
		Message string `json:"message"`
	}
	if len(r.Data) == 0 || json.Unmarshal(r.Data, &body) != nil {
		return ""
	}
	return body.Message
}

// RequestError wraps a failed Result. It matches ErrAgentOffline when the
// agent could not be reached and ErrAgentRejected when it answered non-2xx.
type RequestError struct {
	Result Result
}

func (e *RequestError) Error() string {
	if msg := e.Result.Message(); msg != "" {
		return fmt.Sprintf("%s: %s", e.Result.Error, msg)
	}
	return e.Result.Error
}

func (e *RequestError) Unwrap() error {
	if e.Result.StatusCode == 0 {
		return domain.ErrAgentOffline
	}
	return domain.ErrAgentRejected
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Status(ctx context.Context) (domain.AgentStatus, error) {
	var status domain.AgentStatus
	res := c.Do(ctx, http.MethodGet, "/status", nil)
	if !res.OK {
		return status, &RequestError{Result: res}
	}
	if err := json.Unmarshal(res.Data, &status); err != nil {
		return status, fmt.Errorf("decode agent status: %w", err)
	}
	return status, nil
}

func (c *Client) SetPWM(ctx context.Context, pwm int) (domain.SetPWMResult, error) {
	var out domain.SetPWMResult
	res := c.Do(ctx, http.MethodPost, "/set_pwm", map[string]int{"pwm": pwm})
	if !res.OK {
		return out, &RequestError{Result: res}
	}
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return out, fmt.Errorf("decode set_pwm response: %w", err)
	}
	return out, nil
}

// Do performs one request. It never returns an error; failures are described
// by the Result.
func (c *Client) Do(ctx context.Context, method, path string, payload any) Result {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Result{Error: err.Error()}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("control agent connection failed", "url", url, "error", err)
		return Result{Error: errConnectionFailed}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.logger.Error("control agent read failed", "url", url, "error", err)
		return Result{StatusCode: resp.StatusCode, Error: errConnectionFailed}
	}
	data := json.RawMessage("{}")
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && json.Valid(trimmed) {
		data = trimmed
	} else if len(trimmed) > 0 {
		c.logger.Debug("control agent returned non-JSON body", "url", url, "status", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("control agent HTTP error", "url", url, "status", resp.StatusCode)
		return Result{StatusCode: resp.StatusCode, Data: data, Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return Result{OK: true, StatusCode: resp.StatusCode, Data: data}
}
