package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/pkg/timestamp"
)

// Write priority bounds. Priority 1 is the highest, 16 the lowest;
// commands that omit the field get DefaultPriority.
const (
	MinPriority     = 1
	MaxPriority     = 16
	DefaultPriority = 8
)

// WriteCommand is an inbound request to write a point on the field bus.
// The correlation id is opaque and caller-supplied; commands arriving
// without one are tagged with a generated id so the result can still be
// matched to a log line.
type WriteCommand struct {
	CorrelationID  string  `json:"correlationId"`
	DeviceID       uint32  `json:"deviceId"`
	ObjectType     string  `json:"objectType"`
	ObjectInstance uint32  `json:"objectInstance"`
	Value          float64 `json:"value"`
	Priority       int     `json:"priority"`
	// Release relinquishes the priority slot instead of asserting Value.
	Release bool `json:"release,omitempty"`
	// SemanticName is an optional hint; when present the validator
	// rejects the command if it does not match the resolved point's
	// configured name.
	SemanticName string `json:"semanticName,omitempty"`
	Originator   string `json:"originator,omitempty"`
}

// ObjectID returns the target object identity as "<type>-<instance>".
func (c *WriteCommand) ObjectID() string {
	return fmt.Sprintf("%s-%d", c.ObjectType, c.ObjectInstance)
}

// Normalize fills defaults for fields the caller may omit.
func (c *WriteCommand) Normalize() {
	if c.CorrelationID == "" {
		c.CorrelationID = uuid.New().String()
	}
}

// Validate checks the payload data for correctness. Semantic acceptance
// (writable flag, priority bounds, value range) is the command
// validator's job; this only rejects structurally unusable commands.
func (c *WriteCommand) Validate() error {
	if c.ObjectType == "" {
		return fmt.Errorf("object type is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (c *WriteCommand) MarshalJSON() ([]byte, error) {
	type Alias WriteCommand
	return json.Marshal((*Alias)(c))
}

// UnmarshalJSON implements json.Unmarshaler. An absent priority field
// decodes to DefaultPriority; an explicit value is kept as-is so
// out-of-range priorities are visible to validation.
func (c *WriteCommand) UnmarshalJSON(data []byte) error {
	type Alias WriteCommand
	aux := &struct {
		Priority *int `json:"priority"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if aux.Priority == nil {
		c.Priority = DefaultPriority
	} else {
		c.Priority = *aux.Priority
	}

	return nil
}

// WriteResult reports the outcome of a WriteCommand. Exactly one result
// is published per received command, for both accepted and rejected
// paths.
type WriteResult struct {
	CorrelationID  string  `json:"correlationId"`
	Success        bool    `json:"success"`
	DeviceID       uint32  `json:"deviceId"`
	ObjectType     string  `json:"objectType"`
	ObjectInstance uint32  `json:"objectInstance"`
	Value          float64 `json:"value"`
	Priority       int     `json:"priority"`
	Release        bool    `json:"release"`
	Timestamp      string  `json:"timestamp"`
	ProcessingMS   int64   `json:"processingTimeMs"`
	// Error is null on success.
	Error            *string                  `json:"error"`
	ValidationErrors []errors.ValidationError `json:"validationErrors"`
}

// NewWriteResult builds a result echoing the command's target fields.
// err may be nil; verrs may be empty.
func NewWriteResult(cmd *WriteCommand, success bool, elapsed time.Duration, err error, verrs errors.ValidationErrors) *WriteResult {
	result := &WriteResult{
		CorrelationID:    cmd.CorrelationID,
		Success:          success,
		DeviceID:         cmd.DeviceID,
		ObjectType:       cmd.ObjectType,
		ObjectInstance:   cmd.ObjectInstance,
		Value:            cmd.Value,
		Priority:         cmd.Priority,
		Release:          cmd.Release,
		Timestamp:        timestamp.Format(timestamp.Now()),
		ProcessingMS:     elapsed.Milliseconds(),
		ValidationErrors: []errors.ValidationError(verrs),
	}
	if result.ValidationErrors == nil {
		result.ValidationErrors = []errors.ValidationError{}
	}
	if err != nil {
		msg := err.Error()
		result.Error = &msg
	}
	return result
}

// Validate checks the payload data for correctness
func (r *WriteResult) Validate() error {
	if r.CorrelationID == "" {
		return fmt.Errorf("correlation id is required")
	}
	if r.Timestamp == "" {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (r *WriteResult) MarshalJSON() ([]byte, error) {
	type Alias WriteResult
	return json.Marshal((*Alias)(r))
}

// UnmarshalJSON implements json.Unmarshaler
func (r *WriteResult) UnmarshalJSON(data []byte) error {
	type Alias WriteResult
	return json.Unmarshal(data, (*Alias)(r))
}
