package downloader

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Category groups pipeline failures by the step that produced them.
type Category string

const (
	CategoryUnknown    Category = "unknown"
	CategoryConfig     Category = "config"
	CategoryResolution Category = "resolution"
	CategoryIO         Category = "io"
	CategoryExtraction Category = "extraction"
)

// Reason refines a category for logging. Control flow never branches on it.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonNetwork     Reason = "network"
	ReasonRestricted  Reason = "restricted"
	ReasonUnavailable Reason = "unavailable"
	ReasonCanceled    Reason = "canceled"
)

// CategorizedError attaches a Category (and optional Reason) to an error.
type CategorizedError struct {
	Category Category
	Reason   Reason
	Err      error
}

func (e CategorizedError) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return e.Err.Error()
}

func (e CategorizedError) Unwrap() error {
	return e.Err
}

func wrapCategory(category Category, err error) error {
	if err == nil {
		return nil
	}
	var existing CategorizedError
	if errors.As(err, &existing) {
		return err
	}
	return CategorizedError{Category: category, Reason: reasonOf(err), Err: err}
}

// CategoryOf returns the category of err, or CategoryUnknown.
func CategoryOf(err error) Category {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryUnknown
}

// ReasonOf returns the logging sub-cause attached to err.
func ReasonOf(err error) Reason {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return reasonOf(err)
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	switch CategoryOf(err) {
	case CategoryConfig:
		return 2
	default:
		return 1
	}
}

func reasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ReasonNetwork
	}
	if isRestrictedAccess(err) {
		return ReasonRestricted
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") || strings.Contains(msg, "removed") || strings.Contains(msg, "not playable") {
		return ReasonUnavailable
	}
	return ReasonNone
}

var restrictedMarkers = []string{
	"private",
	"sign in",
	"login required",
	"members only",
	"premium",
	"copyright",
	"unavailable",
	"age-restricted",
	"age restricted",
	"not available",
}

// isRestrictedAccess reports whether err looks like an access restriction
// rather than a transport failure.
func isRestrictedAccess(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range restrictedMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
