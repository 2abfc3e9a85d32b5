package util

import "github.com/google/uuid"

// NewID returns a fresh unique identifier for executions and tool calls.
func NewID() string {
	return uuid.NewString()
}
