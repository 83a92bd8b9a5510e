package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Event types the ERP server emits on the notification stream.
const (
	TypeProjectDateReminder = "project-date-reminder"
	TypeProjectAssignment   = "project-assignment"
	TypePhaseUpdate         = "phase-update"
	TypeDailyReportReminder = "daily-report-reminder"
)

// Priority is the optional urgency attached to an event. It only affects
// presentation (icon and colour).
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Event is a notification pushed by the server. It carries no identity of its
// own; the presentation layer assigns one on receipt.
type Event struct {
	Type      string          `json:"type,omitempty"`
	Title     string          `json:"title,omitempty"`
	Message   string          `json:"message"`
	Priority  Priority        `json:"priority,omitempty"`
	ProjectID string          `json:"projectId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

var errNotObject = errors.New("payload is not a JSON object")

// DecodeEvent parses one frame from the stream. Anything that is not a JSON
// object (including "null" and bare scalars) is rejected.
func DecodeEvent(payload []byte) (*Event, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}

	var ev Event
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode notification event: %w", err)
	}
	return &ev, nil
}

// State is the lifecycle state of a Channel.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
