package planning

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrLogin is returned when no host/version candidate accepted the login.
var ErrLogin = errors.New("planning login failed")

// Kind classifies a rejection from the planning system.
type Kind int

const (
	// KindRejected is any refusal without a more specific meaning.
	KindRejected Kind = iota
	// KindUnauthorized means the bearer expired or was revoked.
	KindUnauthorized
	// KindForbidden is an HTTP 403 or a "forbidden" refusal.
	KindForbidden
	// KindAccessDenied means the plan belongs to someone else.
	KindAccessDenied
	// KindInvalidCrew means a crew id in the payload was not accepted.
	KindInvalidCrew
	// KindTransient covers network failures, timeouts and 5xx responses.
	KindTransient
	// KindDecode means a success response could not be parsed.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindAccessDenied:
		return "access_denied"
	case KindInvalidCrew:
		return "invalid_crew"
	case KindTransient:
		return "transient"
	case KindDecode:
		return "decode"
	default:
		return "rejected"
	}
}

// Error is a classified failure of a planning API call.
type Error struct {
	Op      string
	Status  int
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("planning %s: %s (HTTP %d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("planning %s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a planning error, and false for other errors.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a planning error of kind k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsDeleteRefused reports whether the planning system refused a delete on
// permission grounds. Such a plan should be left alone rather than retried.
func IsDeleteRefused(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == KindForbidden || pe.Kind == KindAccessDenied || pe.Status == http.StatusForbidden
}

// classify turns an HTTP status and response body into an error, or nil when
// the response is a success. A 2xx body whose status.success is explicitly
// false is a refusal.
func classify(op string, status int, body []byte) error {
	msg := statusMessage(body)

	switch {
	case status == http.StatusUnauthorized:
		return &Error{Op: op, Status: status, Kind: KindUnauthorized, Message: msg}
	case status == http.StatusForbidden:
		kind := KindForbidden
		if isAccessDenied(msg) {
			kind = KindAccessDenied
		}
		return &Error{Op: op, Status: status, Kind: kind, Message: msg}
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return &Error{Op: op, Status: status, Kind: KindTransient, Message: msg}
	case status >= 400:
		return &Error{Op: op, Status: status, Kind: kindFromMessage(msg), Message: msg}
	}

	if !gjson.ValidBytes(body) {
		return &Error{Op: op, Status: status, Kind: KindDecode, Message: "response is not JSON: " + preview(body)}
	}
	success := gjson.GetBytes(body, "status.success")
	if success.Exists() && !success.Bool() {
		return &Error{Op: op, Status: status, Kind: kindFromMessage(msg), Message: msg}
	}
	return nil
}

func kindFromMessage(msg string) Kind {
	m := strings.ToLower(msg)
	switch {
	case isAccessDenied(m):
		return KindAccessDenied
	case strings.Contains(m, "pic_id"), strings.Contains(m, "pic id"),
		strings.Contains(m, "fo_id"), strings.Contains(m, "tic_id"),
		strings.Contains(m, "invalid crew"):
		return KindInvalidCrew
	case strings.Contains(m, "forbidden"):
		return KindForbidden
	case strings.Contains(m, "unauthorized"), strings.Contains(m, "token expired"):
		return KindUnauthorized
	default:
		return KindRejected
	}
}

func isAccessDenied(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "access denied")
}

// statusMessage extracts the human readable refusal from a response body.
func statusMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"status.message", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	return preview(body)
}

func preview(body []byte) string {
	const limit = 400
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
