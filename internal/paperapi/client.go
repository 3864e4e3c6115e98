package paperapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/abhisek/paperz/internal/paper"
)

// UserHeader carries the caller's user id. Authentication is handled
// elsewhere; the service trusts this header.
const UserHeader = "X-User-Id"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Client talks to the paper service over HTTP.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a Client for baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL, userID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    httpClient,
	}
}

func (c *Client) GetPaperDetail(ctx context.Context, paperID string) (*paper.Paper, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/papers/"+url.PathEscape(paperID), nil, "paper", paperID)
	if err != nil {
		return nil, err
	}
	if err := paper.ValidatePayload(raw); err != nil {
		return nil, &ErrDecode{Op: OpGetPaperDetail, Err: err}
	}
	p, err := paper.DecodePaper(raw)
	if err != nil {
		return nil, &ErrDecode{Op: OpGetPaperDetail, Err: err}
	}
	return p, nil
}

func (c *Client) GetUserPapersByPaper(ctx context.Context, paperID string) ([]paper.Attempt, error) {
	var out []paper.Attempt
	err := c.doJSON(ctx, http.MethodGet, "/api/papers/"+url.PathEscape(paperID)+"/user-papers", nil, &out, OpGetUserPapersByPaper, "paper", paperID)
	return out, err
}

func (c *Client) GetUserPaperAnswers(ctx context.Context, attemptID string) ([]paper.AnswerRecord, error) {
	var out []paper.AnswerRecord
	err := c.doJSON(ctx, http.MethodGet, attemptPath(attemptID, "answers"), nil, &out, OpGetUserPaperAnswers, "user paper", attemptID)
	return out, err
}

func (c *Client) StartUserPaper(ctx context.Context, attemptID string) (*StartResult, error) {
	var out StartResult
	if err := c.doJSON(ctx, http.MethodPost, attemptPath(attemptID, "start"), nil, &out, OpStartUserPaper, "user paper", attemptID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, attemptID string, req SubmitRequest) error {
	_, err := c.do(ctx, http.MethodPost, attemptPath(attemptID, "answers"), req, "user paper", attemptID)
	return err
}

func (c *Client) CompletePaper(ctx context.Context, attemptID string) (*FinishResult, error) {
	var out FinishResult
	if err := c.doJSON(ctx, http.MethodPost, attemptPath(attemptID, "complete"), nil, &out, OpCompletePaper, "user paper", attemptID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AbandonPaper(ctx context.Context, attemptID string) (*FinishResult, error) {
	var out FinishResult
	if err := c.doJSON(ctx, http.MethodPost, attemptPath(attemptID, "abandon"), nil, &out, OpAbandonPaper, "user paper", attemptID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenewPaper(ctx context.Context, attemptID string) (*RenewResult, error) {
	var out RenewResult
	if err := c.doJSON(ctx, http.MethodPost, attemptPath(attemptID, "renew"), nil, &out, OpRenewPaper, "user paper", attemptID); err != nil {
		return nil, err
	}
	return &out, nil
}

func attemptPath(attemptID, action string) string {
	return "/api/user-papers/" + url.PathEscape(attemptID) + "/" + action
}

// doJSON performs a request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, op, resource, id string) error {
	raw, err := c.do(ctx, method, path, body, resource, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrDecode{Op: op, Err: err}
	}
	return nil
}

// do performs a request and returns the response body of a 2xx response.
// Non-2xx responses are mapped onto the package's error types.
func (c *Client) do(ctx context.Context, method, path string, body any, resource, id string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(UserHeader, c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ErrUnavailable{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ErrNotFound{Resource: resource, ID: id}
	case resp.StatusCode >= 500:
		return nil, &ErrUnavailable{StatusCode: resp.StatusCode}
	default:
		return nil, &ErrRejected{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
}

// errorMessage extracts the message of an {"error": "..."} body.
func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
