package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle and content mutations.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers authentication failures and access denials.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    int64
	Subject   string
	Action    string
	Resource  string // "kind:id" for decision and content events
	Decision  string
	Reason    string
	RequestID string
	ClientIP  string
	UserAgent string
}

type AuditEvent string

const (
	// Auth events
	EventUserRegistered AuditEvent = "user_registered"
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventAuthFailed     AuditEvent = "auth_failed"
	EventTokenRevoked   AuditEvent = "token_revoked"

	// Content events
	EventPostCreated AuditEvent = "post_created"
	EventPostUpdated AuditEvent = "post_updated"
	EventPostDeleted AuditEvent = "post_deleted"

	// Decision events
	EventAccessDecision AuditEvent = "access_decision"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserRegistered: CategoryCompliance,
	EventPostCreated:    CategoryCompliance,
	EventPostUpdated:    CategoryCompliance,
	EventPostDeleted:    CategoryCompliance,

	EventAuthFailed:     CategorySecurity,
	EventTokenRevoked:   CategorySecurity,
	EventAccessDecision: CategorySecurity,

	EventLoginSucceeded: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Sink accepts audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a Sink that can be queried.
type Store interface {
	Sink
	ListByUser(ctx context.Context, userID int64) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Emitter is what services depend on to record events.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }
