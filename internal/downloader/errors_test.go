package downloader

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestIsRestrictedAccess(t *testing.T) {
	tests := []struct {
		name       string
		errMsg     string
		wantResult bool
	}{
		{name: "nil error", errMsg: "", wantResult: false},
		{name: "private video", errMsg: "This video is private", wantResult: true},
		{name: "sign in required", errMsg: "Please sign in to view", wantResult: true},
		{name: "login required", errMsg: "Login required", wantResult: true},
		{name: "members only", errMsg: "This content is members only", wantResult: true},
		{name: "age restricted", errMsg: "This video is age-restricted", wantResult: true},
		{name: "not available", errMsg: "Video not available in your country", wantResult: true},
		{name: "case insensitive", errMsg: "PRIVATE VIDEO", wantResult: true},
		{name: "network error", errMsg: "network timeout", wantResult: false},
		{name: "false positive - availability", errMsg: "check availability", wantResult: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var err error
			if test.errMsg != "" {
				err = fmt.Errorf("%s", test.errMsg)
			}
			if got := isRestrictedAccess(err); got != test.wantResult {
				t.Fatalf("isRestrictedAccess(%v) = %v, want %v", err, got, test.wantResult)
			}
		})
	}
}

func TestWrapCategoryKeepsFirstCategory(t *testing.T) {
	inner := wrapCategory(CategoryResolution, errors.New("video is private"))
	outer := wrapCategory(CategoryIO, fmt.Errorf("context: %w", inner))

	if got := CategoryOf(outer); got != CategoryResolution {
		t.Fatalf("CategoryOf = %q, want %q", got, CategoryResolution)
	}
	if got := ReasonOf(outer); got != ReasonRestricted {
		t.Fatalf("ReasonOf = %q, want %q", got, ReasonRestricted)
	}
	if wrapCategory(CategoryIO, nil) != nil {
		t.Fatalf("wrapCategory(nil) should be nil")
	}
}

func TestReasonOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{name: "canceled", err: fmt.Errorf("copy: %w", context.Canceled), want: ReasonCanceled},
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonCanceled},
		{name: "network", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: ReasonNetwork},
		{name: "removed", err: errors.New("video has been removed"), want: ReasonUnavailable},
		{name: "plain", err: errors.New("boom"), want: ReasonNone},
	}
	for _, tt := range tests {
		if got := ReasonOf(tt.err); got != tt.want {
			t.Fatalf("%s: ReasonOf = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: nil, want: 0},
		{err: CategorizedError{Category: CategoryConfig, Err: errors.New("bad flag")}, want: 2},
		{err: wrapCategory(CategoryResolution, errors.New("gone")), want: 1},
		{err: wrapCategory(CategoryIO, context.Canceled), want: 130},
		{err: errors.New("plain"), want: 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
