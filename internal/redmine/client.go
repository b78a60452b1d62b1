// Package redmine is a thin HTTP client for the Redmine REST API,
// implementing the core.TicketSource capability.
package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ymgch/pomotick/internal/core"
)

const (
	defaultStatus  = "open"
	requestLimit   = "100"
	requestTimeout = 15 * time.Second
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Wire types. Only the fields the task list consumes are decoded.

type issueJSON struct {
	ID       int    `json:"id"`
	Subject  string `json:"subject"`
	Priority struct {
		Name string `json:"name"`
	} `json:"priority"`
	Project struct {
		Name string `json:"name"`
	} `json:"project"`
	EstimatedHours float64 `json:"estimated_hours"`
}

type issuesResponse struct {
	Issues []issueJSON `json:"issues"`
}

type issueResponse struct {
	Issue issueJSON `json:"issue"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Redmine-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: tracker returned %s", method, path, resp.Status)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func toTicket(is issueJSON) core.Ticket {
	return core.Ticket{
		ID:             is.ID,
		Subject:        is.Subject,
		Priority:       is.Priority.Name,
		Project:        is.Project.Name,
		EstimatedHours: is.EstimatedHours,
	}
}

func (c *Client) listIssues(ctx context.Context, query url.Values) ([]core.Ticket, error) {
	var resp issuesResponse
	if err := c.do(ctx, http.MethodGet, "/issues.json", query, nil, &resp); err != nil {
		return nil, err
	}
	tickets := make([]core.Ticket, 0, len(resp.Issues))
	for _, is := range resp.Issues {
		tickets = append(tickets, toTicket(is))
	}
	return tickets, nil
}

// ListAssigned fetches open tickets assigned to the API key's user.
func (c *Client) ListAssigned(ctx context.Context, status string) ([]core.Ticket, error) {
	if status == "" {
		status = defaultStatus
	}
	q := url.Values{
		"assigned_to_id": {"me"},
		"status_id":      {status},
		"limit":          {requestLimit},
	}
	return c.listIssues(ctx, q)
}

// ListByProject fetches open tickets in one project.
func (c *Client) ListByProject(ctx context.Context, project, status string) ([]core.Ticket, error) {
	if status == "" {
		status = defaultStatus
	}
	q := url.Values{
		"project_id": {project},
		"status_id":  {status},
		"limit":      {requestLimit},
	}
	return c.listIssues(ctx, q)
}

// Get fetches a single ticket by id.
func (c *Client) Get(ctx context.Context, id int) (*core.Ticket, error) {
	var resp issueResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/issues/%d.json", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	t := toTicket(resp.Issue)
	return &t, nil
}

// CreateTimeEntry posts hours spent against a ticket, dated today.
func (c *Client) CreateTimeEntry(ctx context.Context, issueID int, hours float64, activityID int, comment string) error {
	body := map[string]any{
		"time_entry": map[string]any{
			"issue_id":    issueID,
			"hours":       hours,
			"activity_id": activityID,
			"comments":    comment,
			"spent_on":    time.Now().Format("2006-01-02"),
		},
	}
	return c.do(ctx, http.MethodPost, "/time_entries.json", nil, body, nil)
}

// UpdateIssue applies field updates (status, done ratio, notes, ...) to a
// ticket.
func (c *Client) UpdateIssue(ctx context.Context, id int, fields map[string]any) error {
	body := map[string]any{"issue": fields}
	return c.do(ctx, http.MethodPut, "/issues/"+strconv.Itoa(id)+".json", nil, body, nil)
}

// TestConnection verifies the base URL and API key by fetching the current
// user.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/users/current.json", nil, nil, nil)
}

var _ core.TicketSource = (*Client)(nil)
