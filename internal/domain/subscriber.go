package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// SubscriberEmail is an email address that passed shape validation.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates the raw string and returns a SubscriberEmail.
// Validation is shape-only; deliverability is the transport's problem.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberEmail{}, fmt.Errorf("email is empty")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return SubscriberEmail{}, fmt.Errorf("%q is not a valid email address", raw)
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string {
	return e.value
}

const maxNameLength = 256

const forbiddenNameChars = `/()"<>\{}`

// SubscriberName is a display name that passed validation.
type SubscriberName struct {
	value string
}

// ParseSubscriberName rejects empty, overlong, and injection-prone names.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberName{}, fmt.Errorf("name is empty")
	}
	if utf8.RuneCountInString(raw) > maxNameLength {
		return SubscriberName{}, fmt.Errorf("name is longer than %d characters", maxNameLength)
	}
	if strings.ContainsAny(raw, forbiddenNameChars) {
		return SubscriberName{}, fmt.Errorf("name contains a forbidden character")
	}
	return SubscriberName{value: raw}, nil
}

func (n SubscriberName) String() string {
	return n.value
}

// NewSubscriber is a validated subscription request.
type NewSubscriber struct {
	Email SubscriberEmail
	Name  SubscriberName
}

// Subscription statuses.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
)
