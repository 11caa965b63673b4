package amqp

import (
	"encoding/json"
	"time"

	"bankdash/internal/ledger"
)

// PasswordResetMessage carries one forgot-password request to the worker.
type PasswordResetMessage struct {
	ResetID     string    `json:"reset_id"`
	Email       string    `json:"email"`
	UserID      string    `json:"user_id,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewPasswordResetMessage(r ledger.PasswordReset) *PasswordResetMessage {
	return &PasswordResetMessage{
		ResetID:     r.ID,
		Email:       r.Email,
		UserID:      r.UserID,
		RequestedAt: r.RequestedAt,
		Timestamp:   time.Now(),
	}
}

// Reset converts the message back into the ledger record it was built from.
func (m *PasswordResetMessage) Reset() ledger.PasswordReset {
	return ledger.PasswordReset{
		ID:          m.ResetID,
		Email:       m.Email,
		UserID:      m.UserID,
		Status:      ledger.ResetRequested,
		RequestedAt: m.RequestedAt,
	}
}

func (m *PasswordResetMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PasswordResetMessageFromJSON(data []byte) (*PasswordResetMessage, error) {
	var msg PasswordResetMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
