package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "status only",
			err:  &Error{StatusCode: 503, Transient: true},
			want: "HTTP 503",
		},
		{
			name: "message and cause",
			err:  &Error{Message: "request failed", Cause: errors.New("connection refused")},
			want: "request failed: connection refused",
		},
		{
			name: "empty",
			err:  &Error{},
			want: "send failed",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "server error", err: &Error{StatusCode: 500, Transient: true}, want: true},
		{name: "client error", err: &Error{StatusCode: 400, Transient: false}, want: false},
		{name: "rate limited", err: &Error{StatusCode: 429, Transient: true}, want: true},
		{
			name: "wrapped send error",
			err:  fmt.Errorf("resend: %w", &Error{StatusCode: 502, Transient: true}),
			want: true,
		},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestTransientHTTPStatusWindow(t *testing.T) {
	t.Parallel()

	transient := []int{429, 500, 503, 599}
	for _, code := range transient {
		if !isTransientHTTPStatus(code) {
			t.Errorf("isTransientHTTPStatus(%d) = false, want true", code)
		}
	}

	permanent := []int{200, 301, 400, 404, 418}
	for _, code := range permanent {
		if isTransientHTTPStatus(code) {
			t.Errorf("isTransientHTTPStatus(%d) = true, want false", code)
		}
	}
}
