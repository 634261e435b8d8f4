package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tic-tac-toe-server/internal/httpclient"
)

// HTTPVerifier delegates credential exchange to a remote identity service.
// It POSTs {"credential": ...} and expects {"participantId", "displayName"}.
type HTTPVerifier struct {
	client   *httpclient.Client
	endpoint string
	apiKey   string
}

func NewHTTPVerifier(client *httpclient.Client, endpoint, apiKey string) *HTTPVerifier {
	return &HTTPVerifier{client: client, endpoint: strings.TrimSpace(endpoint), apiKey: apiKey}
}

func (v *HTTPVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	if strings.TrimSpace(credential) == "" {
		return Identity{}, ErrInvalidCredential
	}
	headers := map[string]string{}
	if v.apiKey != "" {
		headers["Authorization"] = "Bearer " + v.apiKey
	}
	var out Identity
	err := v.client.PostJSONDecode(ctx, v.endpoint, headers, map[string]string{"credential": credential}, &out)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
			return Identity{}, fmt.Errorf("%w: status %d", ErrInvalidCredential, se.StatusCode)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	out.ParticipantID = strings.TrimSpace(out.ParticipantID)
	if out.ParticipantID == "" {
		return Identity{}, fmt.Errorf("%w: empty participant id", ErrInvalidCredential)
	}
	if strings.TrimSpace(out.DisplayName) == "" {
		out.DisplayName = out.ParticipantID
	}
	return out, nil
}
