package earthengine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind groups remote failures by what the user can do about them
type Kind string

const (
	KindAuth    Kind = "auth"
	KindQuota   Kind = "quota"
	KindInvalid Kind = "invalid"
	KindNetwork Kind = "network"
	KindService Kind = "service"
)

// Failure is a classified error from the Earth Engine API. Failures are never
// retried automatically.
type Failure struct {
	Kind       Kind
	StatusCode int // 0 when no HTTP response was received
	Message    string
	Err        error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("earth engine %s error (HTTP %d): %s", f.Kind, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("earth engine %s error: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsKind reports whether err is a Failure of kind k
func IsKind(err error, k Kind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == k
}

// classify wraps err in a Failure. Context cancellation passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		kind := statusKind(apiErr.Code, apiErr.Message)
		return &Failure{
			Kind:       kind,
			StatusCode: apiErr.Code,
			Message:    buildMessage(kind, apiErr.Message),
			Err:        err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Failure{Kind: KindNetwork, Message: buildMessage(KindNetwork, err.Error()), Err: err}
	}
	return &Failure{Kind: KindService, Message: err.Error(), Err: err}
}

func statusKind(code int, message string) Kind {
	switch {
	case code == http.StatusTooManyRequests || code == 509:
		return KindQuota
	case code == http.StatusForbidden && strings.Contains(strings.ToLower(message), "quota"):
		return KindQuota
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusBadRequest || code == http.StatusNotFound:
		return KindInvalid
	default:
		return KindService
	}
}

func buildMessage(kind Kind, detail string) string {
	var hint string
	switch kind {
	case KindAuth:
		hint = "check that the credentials are valid and the project is registered for Earth Engine"
	case KindQuota:
		hint = "request quota exhausted, try again later"
	case KindNetwork:
		hint = "could not reach the Earth Engine API"
	}
	switch {
	case hint == "":
		return detail
	case detail == "":
		return hint
	default:
		return hint + ": " + detail
	}
}
