package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation. Turns are appended, never mutated.
type Turn struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// NewTurn creates a new Turn stamped with the current time
func NewTurn(role Role, content string) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// ValidateTurn validates a Turn instance
func ValidateTurn(t Turn) error {
	if !IsValidRole(t.Role) {
		return NewDomainErrorWithCause(ErrCodeValidation, fmt.Sprintf("turn role %q is not allowed", t.Role), ErrInvalidTurn)
	}
	if strings.TrimSpace(t.Content) == "" {
		return NewDomainErrorWithCause(ErrCodeValidation, "turn content is required", ErrInvalidTurn)
	}
	return nil
}

// IsValidRole checks if a Role is valid
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	}
	return false
}
