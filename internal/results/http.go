package results

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tic-tac-toe-server/internal/httpclient"

	"github.com/oklog/ulid/v2"
)

// HTTPReporter posts lifecycle events to a remote results service.
//
//	POST {base}/sessions/{id}/start
//	POST {base}/sessions/{id}/participants   {"participantId": n}
//	POST {base}/sessions/{id}/result         {"participants": [...]}
//	POST {base}/sessions/{id}/abandon        {"reason": "..."}
//
// Each request carries a stable Idempotency-Key derived from the session and
// event so a retried delivery is recognisable on the receiving side.
type HTTPReporter struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

func NewHTTPReporter(client *httpclient.Client, baseURL, apiKey string) *HTTPReporter {
	return &HTTPReporter{
		client:  client,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
	}
}

func (r *HTTPReporter) ReportStart(ctx context.Context, sessionID string) error {
	return r.post(ctx, sessionID, "start", sessionID+":start", map[string]any{})
}

func (r *HTTPReporter) ReportJoin(ctx context.Context, sessionID string, participantID int64) error {
	key := sessionID + ":join:" + strconv.FormatInt(participantID, 10)
	return r.post(ctx, sessionID, "participants", key, map[string]any{"participantId": participantID})
}

func (r *HTTPReporter) ReportResult(ctx context.Context, sessionID string, result Result) error {
	return r.post(ctx, sessionID, "result", sessionID+":result", result)
}

func (r *HTTPReporter) ReportAbandonment(ctx context.Context, sessionID, reason string) error {
	return r.post(ctx, sessionID, "abandon", sessionID+":abandon", map[string]any{"reason": reason})
}

func (r *HTTPReporter) post(ctx context.Context, sessionID, action, idempotencyKey string, body any) error {
	if r.baseURL == "" {
		return ErrNotConfigured
	}
	endpoint := fmt.Sprintf("%s/sessions/%s/%s", r.baseURL, url.PathEscape(sessionID), action)
	headers := map[string]string{
		"Idempotency-Key": idempotencyKey,
		"X-Request-Id":    ulid.Make().String(),
	}
	if r.apiKey != "" {
		headers["Authorization"] = "Bearer " + r.apiKey
	}
	if err := r.client.PostJSON(ctx, endpoint, headers, body); err != nil {
		return fmt.Errorf("report %s: %w", action, err)
	}
	return nil
}
