package mailer

import (
	"encoding/json"
	"time"
)

// Message kinds understood by the mail worker.
const (
	KindInvite        = "budget_invite"
	KindPasswordReset = "password_reset"
)

// Message is one outbound email job. The worker fetches the template for the
// kind and renders it with the fields below; the API never talks SMTP itself.
type Message struct {
	Kind       string    `json:"kind"`
	RefID      uint      `json:"ref_id,omitempty"`
	To         string    `json:"to"`
	From       string    `json:"from"`
	BudgetName string    `json:"budget_name,omitempty"`
	InvitedBy  string    `json:"invited_by,omitempty"`
	Link       string    `json:"link"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewInviteMessage builds the email job for a budget invite.
func NewInviteMessage(to, from, budgetName, invitedBy, link string) *Message {
	return &Message{
		Kind:       KindInvite,
		To:         to,
		From:       from,
		BudgetName: budgetName,
		InvitedBy:  invitedBy,
		Link:       link,
		Timestamp:  time.Now(),
	}
}

// NewPasswordResetMessage builds the email job for a password reset.
func NewPasswordResetMessage(to, from, link string) *Message {
	return &Message{
		Kind:      KindPasswordReset,
		To:        to,
		From:      from,
		Link:      link,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON decodes a message from JSON bytes.
func FromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
