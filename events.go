package autoquery

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a query lifecycle event.
type EventType string

const (
	QueryTranslateStart   EventType = "query:translate:start"
	QueryTranslateSuccess EventType = "query:translate:success"
	QueryTranslateFailed  EventType = "query:translate:failed"
	QueryExecuteStart     EventType = "query:execute:start"
	QueryExecuteSuccess   EventType = "query:execute:success"
	QueryExecuteFailed    EventType = "query:execute:failed"
)

// QueryEvent is emitted around query translation and execution.
type QueryEvent struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Schema    string        `json:"schema"`
	RawQuery  string        `json:"rawQuery"`
	Error     *string       `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// EventCallback handles a query lifecycle event.
type EventCallback func(ctx context.Context, event QueryEvent) error

// SubscriptionInfo records an active event subscription.
type SubscriptionInfo struct {
	Event       EventType
	Unsubscribe func()
	Label       string
}

func createEvent(t EventType, schemaName, rawQuery string, errStr *string, start time.Time) QueryEvent {
	return QueryEvent{
		ID:        uuid.New().String(),
		Type:      t,
		Schema:    schemaName,
		RawQuery:  rawQuery,
		Error:     errStr,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
}

// emitEvent is a helper method to emit events.
func (h *Handler) emitEvent(event QueryEvent) {
	if h.bus != nil {
		h.bus.Emit(string(event.Type), event)
	}
}

// withEventEmission wraps an operation with start, success and failure events.
func (h *Handler) withEventEmission(
	startEventType EventType,
	successEventType EventType,
	failedEventType EventType,
	schemaName string,
	rawQuery string,
	fn func() (any, error),
) (any, error) {
	startTime := time.Now()
	h.emitEvent(createEvent(startEventType, schemaName, rawQuery, nil, startTime))

	result, err := fn()
	if err != nil {
		errStr := err.Error()
		h.emitEvent(createEvent(failedEventType, schemaName, rawQuery, &errStr, startTime))
		return nil, err
	}

	h.emitEvent(createEvent(successEventType, schemaName, rawQuery, nil, startTime))
	return result, nil
}

// Subscribe registers a callback for a query lifecycle event and returns a
// subscription id for later removal.
func (h *Handler) Subscribe(event EventType, callback EventCallback) string {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	unsubscribe := h.bus.Subscribe(string(event), callback)
	id := uuid.New().String()
	h.subscriptions[id] = &SubscriptionInfo{
		Event:       event,
		Unsubscribe: unsubscribe,
	}
	return id
}

// Unsubscribe removes a previously registered subscription.
func (h *Handler) Unsubscribe(id string) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	info := h.subscriptions[id]
	if info != nil {
		info.Unsubscribe()
		delete(h.subscriptions, id)
	}
}
