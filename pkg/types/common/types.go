// Package common holds transport-neutral types shared by the API server, the
// worker and the CLI: response envelopes, health reporting and message-bus
// payload carriers.
package common

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunID identifies one analysis run.
type RunID string

// NewRunID returns a fresh random run identifier.
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

// String returns the raw identifier.
func (r RunID) String() string { return string(r) }

// Valid reports whether r parses as a UUID.
func (r RunID) Valid() bool {
	_, err := uuid.Parse(string(r))
	return err == nil
}

// Metadata is an open-ended key-value bag.
type Metadata map[string]interface{}

// ErrorDetail is the error body of an API response.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// APIResponse is the generic wrapper for API responses.
type APIResponse[T any] struct {
	Success   bool         `json:"success"`
	Data      T            `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

// HealthStatus indicates the health of a component.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
)

// ComponentHealth reports one dependency's health.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  HealthStatus  `json:"status"`
	Latency time.Duration `json:"latency"`
	Message string        `json:"message,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Messaging
// ─────────────────────────────────────────────────────────────────────────────

// ProducerMessage is a message handed to a producer.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Message is a message delivered to a consumer handler.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one consumed message. A non-nil error triggers the
// consumer's retry policy.
type MessageHandler func(ctx context.Context, msg *Message) error

//Personal.AI order the ending
