package fitagent

import (
	"context"
	"net/http"

	"fitagent/bulk"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier posts user-facing run summaries to an outside channel.
type Notifier interface {
	PostMessage(ctx context.Context, channel string, message string) error
	PostBulkSummary(ctx context.Context, channel string, title string, result bulk.Result) error
}
