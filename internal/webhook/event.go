package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tdcjreform/community/internal/models"
)

const (
	EventHeader    = "X-GitHub-Event"
	DeliveryHeader = "X-GitHub-Delivery"

	EventPush = "push"
	EventPing = "ping"
)

type pushPayload struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		Owner    struct {
			Name  string `json:"name"`
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

// NewEvent captures the raw body and GitHub headers of an inbound request.
// The body is not parsed until the signature has been checked.
func NewEvent(header http.Header, body []byte) *models.WebhookEvent {
	return &models.WebhookEvent{
		Event:     header.Get(EventHeader),
		Delivery:  header.Get(DeliveryHeader),
		Signature: header.Get(SignatureHeader),
		Body:      body,
	}
}

// IsPush reports whether the event should run the deployment pipeline.
// Senders that omit X-GitHub-Event are treated as pushes.
func IsPush(event *models.WebhookEvent) bool {
	return event.Event == "" || event.Event == EventPush
}

// ParsePushEvent decodes the event body and fills in the repository, ref and head commit
func ParsePushEvent(event *models.WebhookEvent) error {
	var payload pushPayload
	if err := json.Unmarshal(event.Body, &payload); err != nil {
		return fmt.Errorf("failed to parse push event: %w", err)
	}

	repository := repositoryID(payload)
	if repository == "" {
		return fmt.Errorf("push event has no repository")
	}

	event.Repository = repository
	event.Ref = payload.Ref
	event.After = payload.After
	return nil
}

// repositoryID builds owner/name from repository.owner.name and repository.name,
// falling back to the owner login and then full_name.
func repositoryID(payload pushPayload) string {
	owner := payload.Repository.Owner.Name
	if owner == "" {
		owner = payload.Repository.Owner.Login
	}
	if owner != "" && payload.Repository.Name != "" {
		return owner + "/" + payload.Repository.Name
	}
	return payload.Repository.FullName
}
