package llm

import (
	"errors"
	"fmt"
)

// Common errors matched by Failure.Is
var (
	ErrNoCredential      = errors.New("no credential configured")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrTimeout           = errors.New("request timed out")
	ErrConnectionRefused = errors.New("connection refused")
	ErrNetwork           = errors.New("network error")
	ErrModelNotFound     = errors.New("model not found")
	ErrRemoteStatus      = errors.New("unexpected remote status")
	ErrInvalidResponse   = errors.New("invalid response from language model")
	ErrEmptyContent      = errors.New("content is empty")
	ErrCanceled          = errors.New("request canceled")
	ErrStorage           = errors.New("storage failure")
)

// FailureKind identifies why a generation failed
type FailureKind string

const (
	KindNoCredential      FailureKind = "NoCredential"
	KindUnknownProvider   FailureKind = "UnknownProvider"
	KindTimeout           FailureKind = "Timeout"
	KindConnectionRefused FailureKind = "ConnectionRefused"
	KindNetwork           FailureKind = "Network"
	KindModelNotFound     FailureKind = "ModelNotFound"
	KindRemoteStatus      FailureKind = "RemoteStatus"
	KindInvalidResponse   FailureKind = "InvalidResponse"
	KindEmptyContent      FailureKind = "EmptyContent"
	KindCanceled          FailureKind = "Canceled"
	KindStorage           FailureKind = "Storage"
)

// Category groups failure kinds for callers that only care about the broad cause
type Category string

const (
	CategoryConfiguration Category = "ConfigurationError"
	CategoryTransport     Category = "TransportError"
	CategoryRemote        Category = "RemoteError"
	CategoryParse         Category = "ParseError"
	CategoryContent       Category = "ContentError"
	CategoryStorage       Category = "StorageError"
)

var kindInfo = map[FailureKind]struct {
	category Category
	sentinel error
}{
	KindNoCredential:      {CategoryConfiguration, ErrNoCredential},
	KindUnknownProvider:   {CategoryConfiguration, ErrUnknownProvider},
	KindTimeout:           {CategoryTransport, ErrTimeout},
	KindConnectionRefused: {CategoryTransport, ErrConnectionRefused},
	KindNetwork:           {CategoryTransport, ErrNetwork},
	KindCanceled:          {CategoryTransport, ErrCanceled},
	KindModelNotFound:     {CategoryRemote, ErrModelNotFound},
	KindRemoteStatus:      {CategoryRemote, ErrRemoteStatus},
	KindInvalidResponse:   {CategoryParse, ErrInvalidResponse},
	KindEmptyContent:      {CategoryContent, ErrEmptyContent},
	KindStorage:           {CategoryStorage, ErrStorage},
}

// Category returns the taxonomy group of the kind
func (k FailureKind) Category() Category {
	return kindInfo[k].category
}

// Failure is the failure arm of an Outcome. It carries a remediation hint
// suitable for showing to users.
type Failure struct {
	Kind       FailureKind
	Provider   ProviderID
	Message    string
	Hint       string
	StatusCode int   // Set for RemoteStatus
	Err        error // Underlying cause, if any
}

// NewFailure creates a failure of the given kind
func NewFailure(kind FailureKind, provider ProviderID, message string) *Failure {
	return &Failure{Kind: kind, Provider: provider, Message: message}
}

// WithHint sets the remediation hint
func (f *Failure) WithHint(hint string) *Failure {
	f.Hint = hint
	return f
}

// WithCause records the underlying error
func (f *Failure) WithCause(err error) *Failure {
	f.Err = err
	return f
}

// Category returns the taxonomy group of the failure
func (f *Failure) Category() Category {
	return f.Kind.Category()
}

func (f *Failure) Error() string {
	msg := f.Message
	if f.Provider != "" {
		msg = fmt.Sprintf("%s: %s", f.Provider, msg)
	}
	if f.Hint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, f.Hint)
	}
	return msg
}

// Unwrap returns the underlying cause
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the sentinel error of the failure kind
func (f *Failure) Is(target error) bool {
	info, ok := kindInfo[f.Kind]
	return ok && target == info.sentinel
}

// Outcome is either a successful value or a Failure
type Outcome[T any] struct {
	value   T
	failure *Failure
}

// Success wraps a value
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Fail wraps a failure
func Fail[T any](f *Failure) Outcome[T] {
	return Outcome[T]{failure: f}
}

// OK reports whether the outcome is a success
func (o Outcome[T]) OK() bool {
	return o.failure == nil
}

// Value returns the success value (zero on failure)
func (o Outcome[T]) Value() T {
	return o.value
}

// Failure returns the failure (nil on success)
func (o Outcome[T]) Failure() *Failure {
	return o.failure
}

// Result converts the outcome to Go's (value, error) convention
func (o Outcome[T]) Result() (T, error) {
	if o.failure != nil {
		return o.value, o.failure
	}
	return o.value, nil
}
