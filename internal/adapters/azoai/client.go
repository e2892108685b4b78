// Package azoai provides the Azure OpenAI chat-completion client used as the
// generative backend for note generation and validation
package azoai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "cpoflow/internal/platform/errors"
	"cpoflow/internal/platform/logger"
)

const defaultTimeout = 60 * time.Second

// Options configures the Client
type Options struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	Timeout    time.Duration
}

// Client calls one chat-completion deployment. Timeouts are classified so the
// caller's retry policy can tell a slow backend from a broken one
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	o.Endpoint = strings.TrimRight(o.Endpoint, "/")
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("azoai"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) completionsURL() string {
	return c.opts.Endpoint +
		"/openai/deployments/" + url.PathEscape(c.opts.Deployment) +
		"/chat/completions?api-version=" + url.QueryEscape(c.opts.APIVersion)
}

// Complete sends one system+user exchange and returns the first choice's text
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "azoai marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL(), bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "azoai new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.opts.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeoutErr(err) {
			return "", perr.Wrapf(err, perr.ErrorCodeBackendTimeout, "azoai completion timed out")
		}
		return "", perr.Wrapf(err, perr.ErrorCodeBackend, "azoai completion failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("failed to close response body")
		}
	}()

	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Float64("temperature", temperature).
		Int("max_tokens", maxTokens).
		Msg("azoai completion response")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeBackend, "azoai read body")
	}
	if resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout {
		return "", perr.Newf(perr.ErrorCodeBackendTimeout, "azoai returned %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", perr.Newf(perr.ErrorCodeBackend, "azoai returned %d body %s", resp.StatusCode, string(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeBackend, "azoai decode response")
	}
	if out.Error != nil {
		return "", perr.Newf(perr.ErrorCodeBackend, "azoai error %s: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", perr.Newf(perr.ErrorCodeBackend, "azoai returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// isTimeoutErr covers client deadline, context deadline, and net-level timeouts
func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// http.Client wraps its own deadline in a url.Error with a timeout message
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}
