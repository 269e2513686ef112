package events

// Event type constants for kelindar/event.
const (
	TypeTopologyChanged uint32 = iota + 1
	TypeReconcileCompleted
	TypeReconcileFailed
	TypeVolumeAdjusted
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// TopologyChangedEvent is published when a sound card is added or removed.
type TopologyChangedEvent struct {
	Action    string `json:"action" example:"add" doc:"Kernel uevent action: add or remove"`
	Card      string `json:"card" example:"card1" doc:"Kernel sound card name"`
	DevPath   string `json:"dev_path,omitempty" doc:"Kernel device path"`
	Timestamp string `json:"timestamp" example:"2026-08-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for TopologyChangedEvent.
func (e TopologyChangedEvent) Type() uint32 { return TypeTopologyChanged }

// ReconcileCompletedEvent is published after a successful reconciliation pass.
type ReconcileCompletedEvent struct {
	Generation uint64   `json:"generation" doc:"Monotonic pass generation"`
	Before     []string `json:"before" doc:"Sink names visible before the pass"`
	After      []string `json:"after" doc:"Sink names visible after the pass"`
	Members    []string `json:"members,omitempty" doc:"Members of the combined sink, if one was created"`
	Combined   bool     `json:"combined" doc:"Whether a combined sink was created"`
	Stale      bool     `json:"stale" doc:"Whether the pass was superseded and skipped its rebuild"`
	Timestamp  string   `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for ReconcileCompletedEvent.
func (e ReconcileCompletedEvent) Type() uint32 { return TypeReconcileCompleted }

// ReconcileFailedEvent is published when a reconciliation pass aborts fatally.
type ReconcileFailedEvent struct {
	Generation uint64 `json:"generation" doc:"Monotonic pass generation"`
	Step       string `json:"step" example:"create" doc:"Step the pass failed at"`
	Error      string `json:"error" doc:"Failure description"`
	Timestamp  string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for ReconcileFailedEvent.
func (e ReconcileFailedEvent) Type() uint32 { return TypeReconcileFailed }

// VolumeAdjustedEvent is published after the USB volume adjuster runs.
type VolumeAdjustedEvent struct {
	CardIndex int    `json:"card_index" doc:"ALSA card index"`
	CardName  string `json:"card_name" doc:"ALSA card name"`
	Control   string `json:"control" example:"PCM" doc:"Mixer control name"`
	Percent   int    `json:"percent" example:"85" doc:"Level the control was set to"`
	Timestamp string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for VolumeAdjustedEvent.
func (e VolumeAdjustedEvent) Type() uint32 { return TypeVolumeAdjusted }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"reconciler" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
