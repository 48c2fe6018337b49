package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePasswordResetRequested = "auth.password_reset_requested"
	EventTypePasswordChanged        = "auth.password_changed"
)

// PasswordResetRequestedEvent carries the opaque reset token to the mail
// delivery boundary. Email sending itself lives outside this service.
type PasswordResetRequestedEvent struct {
	BaseEvent
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

func NewPasswordResetRequestedEvent(userID int64, email, resetToken string) *PasswordResetRequestedEvent {
	return &PasswordResetRequestedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePasswordResetRequested,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
			},
		},
		UserID:     userID,
		Email:      email,
		ResetToken: resetToken,
	}
}

type PasswordChangedEvent struct {
	BaseEvent
	UserID int64 `json:"user_id"`
}

func NewPasswordChangedEvent(userID int64) *PasswordChangedEvent {
	return &PasswordChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePasswordChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
			},
		},
		UserID: userID,
	}
}
