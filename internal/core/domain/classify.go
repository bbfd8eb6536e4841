package domain

import (
	"errors"
	"strings"
)

// ErrorKind is the fixed taxonomy for cloud backup transport failures.
type ErrorKind string

const (
	ErrorKindNetwork              ErrorKind = "network"
	ErrorKindNotSignedIn          ErrorKind = "not_signed_in"
	ErrorKindContainerUnavailable ErrorKind = "container_unavailable"
	ErrorKindQuotaExceeded        ErrorKind = "quota_exceeded"
	ErrorKindInvalidFileName      ErrorKind = "invalid_file_name"
	ErrorKindFileNotFound         ErrorKind = "file_not_found"
	ErrorKindUnknown              ErrorKind = "unknown"
)

// ClassifiedError is a raw transport failure mapped onto the taxonomy,
// with a retry decision and a user-facing message.
type ClassifiedError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Err       error     `json:"-"`
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// userMessages are the fixed user-facing message templates per kind.
var userMessages = map[ErrorKind]string{
	ErrorKindNetwork:              "Network problem while talking to cloud storage. Will retry automatically.",
	ErrorKindNotSignedIn:          "Not signed in to cloud storage. Sign in on this device and try again.",
	ErrorKindContainerUnavailable: "Cloud storage container is unavailable on this device.",
	ErrorKindQuotaExceeded:        "Backup is too large or cloud storage quota is exceeded.",
	ErrorKindInvalidFileName:      "The backup name is invalid.",
	ErrorKindFileNotFound:         "No backup was found in cloud storage.",
	ErrorKindUnknown:              "Cloud backup failed with an unexpected error.",
}

// NewClassifiedError builds a ClassifiedError of a known kind wrapping err.
// Retryability follows the kind: only network and unknown failures retry.
func NewClassifiedError(kind ErrorKind, err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:      kind,
		Message:   userMessages[kind],
		Retryable: kind == ErrorKindNetwork || kind == ErrorKindUnknown,
		Err:       err,
	}
}

// classifyRule maps substrings of a raw failure description to a kind.
type classifyRule struct {
	needles []string
	kind    ErrorKind
}

// classifyRules is ordered: the first matching rule wins. The transport
// exposes no structured error codes, so this is a best-effort heuristic
// over unstructured text. Do not reorder - later rules are more specific
// exceptions to the "unknown means retry" default.
var classifyRules = []classifyRule{
	{[]string{"network", "connection"}, ErrorKindNetwork},
	{[]string{"not signed in", "no account"}, ErrorKindNotSignedIn},
	{[]string{"container", "ubiquity"}, ErrorKindContainerUnavailable},
	{[]string{"quota", "exceed", "size"}, ErrorKindQuotaExceeded},
	{[]string{"not found", "no such file"}, ErrorKindFileNotFound},
}

// Classify maps a raw transport failure onto the taxonomy.
// An error that is already classified passes through unchanged.
// A nil error returns nil.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	desc := strings.ToLower(err.Error())
	for _, rule := range classifyRules {
		for _, needle := range rule.needles {
			if strings.Contains(desc, needle) {
				return NewClassifiedError(rule.kind, err)
			}
		}
	}

	return NewClassifiedError(ErrorKindUnknown, err)
}
