package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// transportFailure converts an error raised while talking to a backend
func transportFailure(id ProviderID, err error, timeout time.Duration) *Failure {
	info, _ := Lookup(id)

	switch {
	case errors.Is(err, context.Canceled):
		return NewFailure(KindCanceled, id, "request canceled").WithCause(err)

	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		f := NewFailure(KindTimeout, id, fmt.Sprintf("no response within %s", timeout)).WithCause(err)
		if info.Local {
			return f.WithHint("the server may be loading the model; first-load warm-up can take minutes, retry or raise provider.timeout")
		}
		return f.WithHint("the service is slow or unreachable, retry later")

	case errors.Is(err, syscall.ECONNREFUSED):
		f := NewFailure(KindConnectionRefused, id, "connection refused").WithCause(err)
		if info.Local {
			return f.WithHint("is the local service running? start it with 'ollama serve'")
		}
		return f.WithHint("check the endpoint URL and network connectivity")
	}

	return NewFailure(KindNetwork, id, fmt.Sprintf("request failed: %v", err)).
		WithCause(err).
		WithHint("check network connectivity")
}

// statusFailure converts a non-success HTTP status
func statusFailure(id ProviderID, status int, detail, model string) *Failure {
	detail = strings.TrimSpace(detail)
	if len(detail) > 300 {
		detail = detail[:300] + "..."
	}

	if status == http.StatusNotFound {
		return modelNotFound(id, model, detail)
	}

	f := NewFailure(KindRemoteStatus, id, fmt.Sprintf("API error (%d): %s", status, detail))
	f.StatusCode = status

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return f.WithHint("check the API key")
	case status == http.StatusTooManyRequests:
		return f.WithHint("rate limited, retry later")
	case status >= 500:
		return f.WithHint("the service reported an internal error, retry later")
	}
	return f
}

func modelNotFound(id ProviderID, model, detail string) *Failure {
	msg := fmt.Sprintf("model %q not found", model)
	if detail != "" {
		msg += ": " + detail
	}
	f := NewFailure(KindModelNotFound, id, msg)
	f.StatusCode = http.StatusNotFound
	if id == Ollama {
		return f.WithHint(fmt.Sprintf("pull it first with 'ollama pull %s'", model))
	}
	return f.WithHint("check the model name; it may be unavailable to this account")
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
