package models

import "encoding/json"

// Deployment maps a subdirectory of a GitHub repository to a Cloud Function.
type Deployment struct {
	Repository  string            `json:"repository" yaml:"repository"`                       // owner/name
	Path        string            `json:"path" yaml:"path"`                                   // Directory within the repository
	Function    string            `json:"function" yaml:"function"`                           // Cloud Function name
	Location    string            `json:"location" yaml:"location"`                           // Region, e.g. us-central1
	Runtime     string            `json:"runtime,omitempty" yaml:"runtime,omitempty"`         // e.g. nodejs20, go122
	EntryPoint  string            `json:"entry_point,omitempty" yaml:"entry_point,omitempty"` // Exported handler name
	MemoryMB    int64             `json:"memory_mb,omitempty" yaml:"memory_mb,omitempty"`
	Timeout     string            `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Duration string, e.g. 60s
	Environment map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`
}

// WebhookEvent is a single inbound push notification.
type WebhookEvent struct {
	Repository string `json:"repository"` // owner/name
	Event      string `json:"event"`      // X-GitHub-Event
	Delivery   string `json:"delivery"`   // X-GitHub-Delivery
	Ref        string `json:"ref"`
	After      string `json:"after"` // Head commit after the push
	Signature  string `json:"-"`     // X-Hub-Signature
	Body       []byte `json:"-"`     // Raw request body, exactly as received
}

// Result is the outcome of one deployment: the deployed function descriptor
// returned by the completed operation, annotated with its configuration.
type Result struct {
	Operation  string          `json:"operation"`
	Function   json.RawMessage `json:"function"`
	Deployment Deployment      `json:"deployment"`
}
