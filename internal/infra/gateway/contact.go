package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/metrics"
	"github.com/NewsFlow/internal/infra/newsapi"
)

const (
	msgMissingFields  = "All fields are required: name, email, subject, and message"
	msgSubmitFailed   = "Error submitting form"
	msgNoConnection   = "Unable to connect to the server. Please try again later."
	msgContactUnknown = "An unexpected error occurred. Please try again later."
)

// Poster sends a JSON body and returns whatever the backend answered.
type Poster interface {
	PostJSON(ctx context.Context, path string, payload any) (int, []byte, error)
}

// ContactForwarder relays contact form posts to the news backend.
type ContactForwarder struct {
	poster Poster
}

var _ domain.ContactGateway = (*ContactForwarder)(nil)

func NewContactForwarder(poster Poster) *ContactForwarder {
	return &ContactForwarder{poster: poster}
}

// ContactBaseURL makes sure base ends in /api, where the backend mounts /contact.
func ContactBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/api") {
		return base
	}
	return base + "/api"
}

func (f *ContactForwarder) Forward(ctx context.Context, submission domain.ContactSubmission) domain.ContactReply {
	if !submission.Complete() {
		return f.reply(http.StatusBadRequest, errorBody(msgMissingFields))
	}

	status, body, err := f.poster.PostJSON(ctx, "contact", submission)
	if err != nil {
		slog.Error("Error forwarding contact form", "error", err)
		var apiErr *newsapi.APIError
		if errors.As(err, &apiErr) && apiErr.Kind == newsapi.KindNetworkUnreachable {
			return f.reply(http.StatusServiceUnavailable, errorBody(msgNoConnection))
		}
		return f.reply(http.StatusInternalServerError, errorBody(msgContactUnknown))
	}

	if status < 200 || status > 299 {
		msg := newsapi.ServerMessage(body)
		if msg == "" {
			msg = msgSubmitFailed
		}
		slog.Warn("Backend rejected contact form", "status_code", status)
		return f.reply(status, errorBody(msg))
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		payload = map[string]any{"status": "success"}
	}
	return f.reply(status, payload)
}

func (f *ContactForwarder) reply(status int, body map[string]any) domain.ContactReply {
	metrics.ContactForwards.WithLabelValues(http.StatusText(status)).Inc()
	return domain.ContactReply{StatusCode: status, Body: body}
}

func errorBody(msg string) map[string]any {
	return map[string]any{"status": "error", "message": msg}
}
