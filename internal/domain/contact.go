package domain

import (
	"context"
	"strings"
)

// ContactSubmission is a contact form post relayed to the backend.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Complete reports whether every required field is non-blank.
func (c ContactSubmission) Complete() bool {
	for _, v := range []string{c.Name, c.Email, c.Subject, c.Message} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// ContactReply is what the site returns to the browser for a contact post.
type ContactReply struct {
	StatusCode int
	Body       map[string]any
}

// ContactGateway forwards contact submissions.
type ContactGateway interface {
	Forward(ctx context.Context, submission ContactSubmission) ContactReply
}
