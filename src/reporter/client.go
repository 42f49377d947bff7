// Package reporter is the agent side of the API: it registers agents and sends
// error events to a running server.
package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"errorcentral/src/model"
)

// APIError is a non-2xx answer from the server. Fields holds validation messages
// for 400 responses.
type APIError struct {
	Status int
	Body   string
	Fields map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// Event is one error occurrence to report.
type Event struct {
	AgentID     uint
	Title       string
	Description string
	Level       model.Level
	Environment model.Environment
}

type Client struct {
	baseURL string
	http    *resty.Client
}

// isRetryableResp retries reads on transport errors and transient statuses.
// Writes are never retried since a lost response may hide a stored row.
func isRetryableResp(r *resty.Response, err error) bool {
	if r != nil && r.Request != nil && r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(isRetryableResp)
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{baseURL: baseURL, http: httpClient}
}

// RegisterAgent creates an agent for address.
func (c *Client) RegisterAgent(ctx context.Context, address string) (*model.Agent, error) {
	var agent model.Agent
	if err := c.post(ctx, "/api/agents/", model.AgentPayload{Address: &address}, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// FindException looks up an exception by exact title. Returns (nil, nil) when there is none.
// The search is a substring match, so the exact title may sit on any page.
func (c *Client) FindException(ctx context.Context, title string) (*model.AppException, error) {
	for pageNum := 1; ; pageNum++ {
		var page model.Page[model.AppException]

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("search", title).
			SetQueryParam("page", strconv.Itoa(pageNum)).
			SetResult(&page).
			Get("/api/exceptions/")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, apiError(resp)
		}

		for _, exc := range page.Results {
			if exc.Title == title {
				found := exc
				return &found, nil
			}
		}
		if page.Next == nil || len(page.Results) == 0 {
			return nil, nil
		}
	}
}

// EnsureException returns the exception titled title, creating it when missing.
func (c *Client) EnsureException(ctx context.Context, title string) (*model.AppException, error) {
	exc, err := c.FindException(ctx, title)
	if err != nil || exc != nil {
		return exc, err
	}

	var created model.AppException
	err = c.post(ctx, "/api/exceptions/", model.AppExceptionPayload{Title: &title}, &created)
	if err == nil {
		return &created, nil
	}

	// Another reporter may have created it in between.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && len(apiErr.Fields["title"]) > 0 {
		if exc, findErr := c.FindException(ctx, title); findErr == nil && exc != nil {
			return exc, nil
		}
	}
	return nil, err
}

// Report sends ev, creating its exception on first use.
func (c *Client) Report(ctx context.Context, ev Event) (*model.ErrorLog, error) {
	exc, err := c.EnsureException(ctx, ev.Title)
	if err != nil {
		return nil, fmt.Errorf("resolve exception %q: %w", ev.Title, err)
	}

	body := map[string]interface{}{
		"description": ev.Description,
		"level":       ev.Level,
		"environment": ev.Environment,
		"agent":       ev.AgentID,
		"exception":   exc.ID,
	}

	var entry model.ErrorLog
	if err := c.post(ctx, "/api/logs/", body, &entry); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"component":    "reporter",
		"error_log_id": entry.ID,
		"exception_id": exc.ID,
	}).Info("Error event reported")

	return &entry, nil
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(result).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	e := &APIError{Status: resp.StatusCode(), Body: resp.String()}
	if e.Status == http.StatusBadRequest {
		// Validation bodies are {field: [messages]}; other 400s are left in Body.
		fields := map[string][]string{}
		if err := json.Unmarshal(resp.Body(), &fields); err == nil {
			e.Fields = fields
		}
	}
	return e
}
