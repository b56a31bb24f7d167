package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one auditable outcome. Persistence lives outside the engine; the
// engine only emits events through a Recorder.
type Event struct {
	// ID correlates the emitted record with support follow-ups. Assigned by
	// the recorder when empty.
	ID         string
	Action     string
	UserID     int64
	Email      string
	Success    bool
	Reason     string
	OccurredAt time.Time
}

// Recorder receives audit events. Failures are the recorder's problem;
// emitting must never fail the operation being audited.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// LogRecorder writes audit events to the structured log.
type LogRecorder struct {
	logger *slog.Logger
}

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.logger.InfoContext(ctx, "audit event",
		"event_id", e.ID,
		"action", e.Action,
		"user_id", e.UserID,
		"email", e.Email,
		"success", e.Success,
		"reason", e.Reason,
	)
}

// MemoryRecorder collects events for tests.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
