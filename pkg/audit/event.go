// Package audit provides audit logging for host mutations.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event records one mutating operation against a host.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Host      string        `json:"host"`
	Operation string        `json:"operation"`
	Target    string        `json:"target,omitempty"`  // bridge, port, or mirror name
	Command   string        `json:"command,omitempty"` // primary remote command issued
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Operation names used by the manager.
const (
	OpBridgeCreate   = "bridge.create"
	OpBridgeDelete   = "bridge.delete"
	OpBridgeUpdate   = "bridge.update"
	OpBridgeFlushFDB = "bridge.flush-fdb"
	OpPortAdd        = "port.add"
	OpPortDelete     = "port.delete"
	OpPortUpdate     = "port.update"
	OpPortVLAN       = "port.vlan"
	OpBondCreate     = "bond.create"
	OpBondSlave      = "bond.slave"
	OpMirrorCreate   = "mirror.create"
	OpMirrorDelete   = "mirror.delete"
	OpMirrorClear    = "mirror.clear"
	OpFlowSet        = "flow.set"
	OpFlowDisable    = "flow.disable"
)

// Filter defines criteria for querying audit events
type Filter struct {
	Host        string
	User        string
	Operation   string
	Target      string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(user, host, operation string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      user,
		Host:      host,
		Operation: operation,
	}
}

// WithTarget sets the object the operation acted on
func (e *Event) WithTarget(target string) *Event {
	e.Target = target
	return e
}

// WithCommand records the last remote command issued
func (e *Event) WithCommand(command string) *Event {
	e.Command = command
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}
