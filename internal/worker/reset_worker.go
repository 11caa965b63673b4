// Package worker delivers password reset requests, either straight from the
// web process or from the AMQP queue in cmd/bankdash-worker.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bankdash/internal/amqp"
	"bankdash/internal/ledger"
)

// Mailer sends the reset link to the account holder.
type Mailer interface {
	SendPasswordReset(ctx context.Context, r ledger.PasswordReset) error
}

// LogMailer writes resets to the log instead of sending mail.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, r ledger.PasswordReset) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Password reset link issued",
		"reset_id", r.ID,
		"email", r.Email,
		"known_user", r.UserID != "")
	return nil
}

// ResetWorker records each reset, hands it to the mailer and records the
// delivery.
type ResetWorker struct {
	mailer   Mailer
	recorder ledger.ResetRecorder
	logger   *slog.Logger
}

func NewResetWorker(mailer Mailer, recorder ledger.ResetRecorder, logger *slog.Logger) *ResetWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetWorker{mailer: mailer, recorder: recorder, logger: logger}
}

// HandleResetMessage processes a single reset message from AMQP.
func (w *ResetWorker) HandleResetMessage(ctx context.Context, msg *amqp.PasswordResetMessage) error {
	w.logger.InfoContext(ctx, "Processing password reset message",
		"reset_id", msg.ResetID,
		"queued_at", msg.Timestamp)
	return w.Deliver(ctx, msg.Reset())
}

// NotifyPasswordReset delivers inline so the worker can serve as the auth
// notifier when no broker is configured.
func (w *ResetWorker) NotifyPasswordReset(ctx context.Context, r ledger.PasswordReset) error {
	return w.Deliver(ctx, r)
}

func (w *ResetWorker) Deliver(ctx context.Context, r ledger.PasswordReset) error {
	if r.ID == "" {
		return fmt.Errorf("deliver password reset: empty id")
	}

	r.Status = ledger.ResetRequested
	if err := w.recorder.RecordPasswordReset(ctx, r); err != nil {
		return fmt.Errorf("record password reset: %w", err)
	}

	if err := w.mailer.SendPasswordReset(ctx, r); err != nil {
		w.logger.ErrorContext(ctx, "Failed to send password reset", "reset_id", r.ID, "error", err)
		return fmt.Errorf("send password reset: %w", err)
	}

	r.Status = ledger.ResetDelivered
	if err := w.recorder.RecordPasswordReset(ctx, r); err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}

	w.logger.InfoContext(ctx, "Password reset delivered", "reset_id", r.ID)
	return nil
}
