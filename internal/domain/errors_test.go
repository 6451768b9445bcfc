package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsVersionConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "version conflict error",
			err:  ErrSessionVersionConflict,
			want: true,
		},
		{
			name: "wrapped version conflict error",
			err:  errors.Join(ErrSessionVersionConflict, errors.New("additional context")),
			want: true,
		},
		{
			name: "other error",
			err:  ErrSessionNotFound,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsVersionConflict(tt.err)
			if got != tt.want {
				t.Errorf("IsVersionConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsIdempotencyConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "idempotency already exists",
			err:  ErrIdempotencyKeyAlreadyExists,
			want: true,
		},
		{
			name: "idempotency hash mismatch",
			err:  ErrIdempotencyHashMismatch,
			want: true,
		},
		{
			name: "wrapped idempotency conflict",
			err:  errors.Join(ErrIdempotencyHashMismatch, errors.New("extra context")),
			want: true,
		},
		{
			name: "non idempotency error",
			err:  ErrSessionVersionConflict,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsIdempotencyConflict(tt.err)
			if got != tt.want {
				t.Errorf("IsIdempotencyConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: ErrSupplierRequired, want: "select a supplier"},
		{name: "wrapped validation", err: fmt.Errorf("save: %w", ErrItemsRequired), want: "add at least one product"},
		{name: "server message", err: &RequestError{StatusCode: 409, Message: "order already sent"}, want: "order already sent"},
		{name: "no server message", err: &RequestError{Err: errors.New("dial tcp: refused")}, want: FallbackRequestMessage},
		{name: "unknown", err: errors.New("boom"), want: FallbackRequestMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Fatalf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestError(t *testing.T) {
	cause := errors.New("timeout")
	err := &RequestError{StatusCode: 404, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("RequestError must unwrap cause")
	}
	if !err.NotFound() || err.Unauthorized() {
		t.Fatalf("unexpected classification for 404")
	}
	if (&RequestError{StatusCode: 401}).Unauthorized() != true {
		t.Fatalf("401 must be unauthorized")
	}

	wrapped := fmt.Errorf("get order: %w", err)
	got, ok := AsRequestError(wrapped)
	if !ok || got.StatusCode != 404 {
		t.Fatalf("AsRequestError failed: %v", got)
	}
	if IsValidation(wrapped) {
		t.Fatalf("request error must not be a validation error")
	}
}
