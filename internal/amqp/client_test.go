package amqp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"bankdash/internal/ledger"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := exponentialBackoff(tt.attempt); got != tt.expected {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network", errors.New("use of closed network connection"), true},
		{"closed channel", errors.New("message channel closed"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestCircuitBreaker(t *testing.T) {
	client := &Client{}

	t.Run("initially closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("circuit should start closed")
		}
	})

	t.Run("opens after max failures", func(t *testing.T) {
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		if !client.isCircuitOpen() {
			t.Error("circuit should be open after max failures")
		}
	})

	t.Run("success closes circuit", func(t *testing.T) {
		client.recordSuccess()
		if client.isCircuitOpen() {
			t.Error("circuit should be closed after success")
		}
		if client.failureCount != 0 {
			t.Errorf("failureCount = %d, want 0", client.failureCount)
		}
	})

	t.Run("half-open after timeout", func(t *testing.T) {
		client.state = StateOpen
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		if client.isCircuitOpen() {
			t.Error("circuit should allow a probe after the open timeout")
		}
		if client.state != StateHalfOpen {
			t.Errorf("state = %d, want StateHalfOpen", client.state)
		}
	})

	t.Run("failure in half-open reopens", func(t *testing.T) {
		client.state = StateHalfOpen
		client.failureCount = 0
		client.recordFailure()
		if client.state != StateOpen {
			t.Errorf("state = %d, want StateOpen", client.state)
		}
	})
}

func TestPublishPasswordResetFailsFast(t *testing.T) {
	reset := ledger.PasswordReset{ID: "r-1", Email: "user@test.com"}

	t.Run("open circuit", func(t *testing.T) {
		client := &Client{exchangeName: "bankdash", queueName: "password_resets"}
		client.state = StateOpen
		client.lastFailure = time.Now()

		err := client.PublishPasswordReset(context.Background(), reset)
		if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
			t.Fatalf("PublishPasswordReset() error = %v, want circuit breaker error", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := &Client{exchangeName: "bankdash", queueName: "password_resets"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.NotifyPasswordReset(ctx, reset); !errors.Is(err, context.Canceled) {
			t.Fatalf("NotifyPasswordReset() error = %v, want context.Canceled", err)
		}
	})
}

func TestPasswordResetMessage(t *testing.T) {
	requested := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	reset := ledger.PasswordReset{
		ID:          "r-1",
		Email:       "user@test.com",
		UserID:      "u-1",
		Status:      ledger.ResetRequested,
		RequestedAt: requested,
	}

	data, err := NewPasswordResetMessage(reset).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	for _, key := range []string{`"reset_id":"r-1"`, `"email":"user@test.com"`, `"user_id":"u-1"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("message JSON %s missing %s", data, key)
		}
	}

	msg, err := PasswordResetMessageFromJSON(data)
	if err != nil {
		t.Fatalf("PasswordResetMessageFromJSON() error = %v", err)
	}
	if diff := cmp.Diff(reset, msg.Reset()); diff != "" {
		t.Errorf("Reset() mismatch (-want +got):\n%s", diff)
	}

	if _, err := PasswordResetMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
