package errors

import (
	"errors"
	"net/http"
)

var (
	ErrSecretRequired       = errors.New("webhook secret is required")
	ErrProjectRequired      = errors.New("GCLOUD_PROJECT environment variable is required")
	ErrBucketRequired       = errors.New("storage bucket is required")
	ErrNoDeployments        = errors.New("no deployments configured")
	ErrInvalidDeployment    = errors.New("invalid deployment configuration")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrNoMatchingDeployment = errors.New("no deployment configured for repository")
	ErrInvalidPath          = errors.New("deployment path escapes repository")
	ErrDeployTimeout        = errors.New("timed out waiting for deploy operation")
)

// Kind identifies the pipeline stage an Error originated from.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindFetch          Kind = "fetch"
	KindArchive        Kind = "archive"
	KindUpload         Kind = "upload"
	KindDeploy         Kind = "deploy"
)

// Error is a pipeline failure tagged with its stage and the HTTP status the
// webhook should answer with. The message is the wrapped error's message.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, status int, err error) error {
	return &Error{Kind: kind, Status: status, Err: err}
}

func NewAuthenticationError(err error) error {
	return newError(KindAuthentication, http.StatusForbidden, err)
}

func NewNotFoundError(err error) error {
	return newError(KindNotFound, http.StatusInternalServerError, err)
}

func NewFetchError(err error) error {
	return newError(KindFetch, http.StatusInternalServerError, err)
}

func NewArchiveError(err error) error {
	return newError(KindArchive, http.StatusInternalServerError, err)
}

func NewUploadError(err error) error {
	return newError(KindUpload, http.StatusInternalServerError, err)
}

func NewDeployError(err error) error {
	return newError(KindDeploy, http.StatusInternalServerError, err)
}

// KindOf returns the Kind of the first Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusCode returns the HTTP status attached to err, defaulting to 500.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
