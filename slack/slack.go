package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fitagent/bulk"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// PostBulkSummary posts a human-readable summary of a bulk operation,
// listing each failed item with its reason.
func (c *Client) PostBulkSummary(ctx context.Context, channel string, title string, result bulk.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", title, result.Summary())
	for _, f := range result.Failed {
		fmt.Fprintf(&b, "\n• %d: %s", f.ID, f.Reason)
	}
	return c.PostMessage(ctx, channel, b.String())
}
