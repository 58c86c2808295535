// Package event defines event types for decoupling somectl components.
package event

import "time"

// Event type identifiers.
const (
	TypeSessionResolved    = "session.resolved"
	TypeTenantSelected     = "tenant.selected"
	TypeTenantCleared      = "tenant.cleared"
	TypePostScheduled      = "post.scheduled"
	TypePostRejected       = "post.rejected"
	TypePostMutationFailed = "post.mutation_failed"
	TypeImageUploaded      = "image.uploaded"
	TypeImageDeleted       = "image.deleted"
	TypeNotification       = "notification"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "post.scheduled", "tenant.selected")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session and Tenant Events
// -----------------------------------------------------------------------------

// SessionResolvedEvent is emitted once the identity fetch has succeeded.
type SessionResolvedEvent struct {
	baseEvent
	UserID string
	Email  string
}

// NewSessionResolvedEvent creates a SessionResolvedEvent.
func NewSessionResolvedEvent(userID, email string) SessionResolvedEvent {
	return SessionResolvedEvent{
		baseEvent: newBaseEvent(TypeSessionResolved),
		UserID:    userID,
		Email:     email,
	}
}

// TenantSelectedEvent is emitted when a tenant becomes active, either
// restored from storage or chosen by the user.
type TenantSelectedEvent struct {
	baseEvent
	TenantID   string
	TenantName string
	Restored   bool // true when the selection came from persisted state
}

// NewTenantSelectedEvent creates a TenantSelectedEvent.
func NewTenantSelectedEvent(id, name string, restored bool) TenantSelectedEvent {
	return TenantSelectedEvent{
		baseEvent:  newBaseEvent(TypeTenantSelected),
		TenantID:   id,
		TenantName: name,
		Restored:   restored,
	}
}

// TenantClearedEvent is emitted when the persisted tenant reference is removed.
type TenantClearedEvent struct {
	baseEvent
	TenantID string // the reference that was cleared, may be empty
	Stale    bool   // true when it was cleared because it no longer matched
}

// NewTenantClearedEvent creates a TenantClearedEvent.
func NewTenantClearedEvent(id string, stale bool) TenantClearedEvent {
	return TenantClearedEvent{
		baseEvent: newBaseEvent(TypeTenantCleared),
		TenantID:  id,
		Stale:     stale,
	}
}

// -----------------------------------------------------------------------------
// Post Events
// -----------------------------------------------------------------------------

// PostScheduledEvent is emitted after a post was approved with a publish time.
type PostScheduledEvent struct {
	baseEvent
	TenantID  string
	PostID    string
	PublishAt time.Time
}

// NewPostScheduledEvent creates a PostScheduledEvent.
func NewPostScheduledEvent(tenantID, postID string, publishAt time.Time) PostScheduledEvent {
	return PostScheduledEvent{
		baseEvent: newBaseEvent(TypePostScheduled),
		TenantID:  tenantID,
		PostID:    postID,
		PublishAt: publishAt,
	}
}

// PostRejectedEvent is emitted after a draft was rejected.
type PostRejectedEvent struct {
	baseEvent
	TenantID string
	PostID   string
}

// NewPostRejectedEvent creates a PostRejectedEvent.
func NewPostRejectedEvent(tenantID, postID string) PostRejectedEvent {
	return PostRejectedEvent{
		baseEvent: newBaseEvent(TypePostRejected),
		TenantID:  tenantID,
		PostID:    postID,
	}
}

// PostMutationFailedEvent is emitted when an approve or reject request fails.
// Local state is unchanged and the user may re-submit.
type PostMutationFailedEvent struct {
	baseEvent
	TenantID string
	PostID   string
	Action   string // "approve" or "reject"
	Err      error
}

// NewPostMutationFailedEvent creates a PostMutationFailedEvent.
func NewPostMutationFailedEvent(tenantID, postID, action string, err error) PostMutationFailedEvent {
	return PostMutationFailedEvent{
		baseEvent: newBaseEvent(TypePostMutationFailed),
		TenantID:  tenantID,
		PostID:    postID,
		Action:    action,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Image Events
// -----------------------------------------------------------------------------

// ImageUploadedEvent is emitted for every image added to the content library.
type ImageUploadedEvent struct {
	baseEvent
	TenantID string
	ImageID  string
	FileName string
	Size     int64
}

// NewImageUploadedEvent creates an ImageUploadedEvent.
func NewImageUploadedEvent(tenantID, imageID, fileName string, size int64) ImageUploadedEvent {
	return ImageUploadedEvent{
		baseEvent: newBaseEvent(TypeImageUploaded),
		TenantID:  tenantID,
		ImageID:   imageID,
		FileName:  fileName,
		Size:      size,
	}
}

// ImageDeletedEvent is emitted when an image is removed from the library.
type ImageDeletedEvent struct {
	baseEvent
	TenantID string
	ImageID  string
}

// NewImageDeletedEvent creates an ImageDeletedEvent.
func NewImageDeletedEvent(tenantID, imageID string) ImageDeletedEvent {
	return ImageDeletedEvent{
		baseEvent: newBaseEvent(TypeImageDeleted),
		TenantID:  tenantID,
		ImageID:   imageID,
	}
}

// -----------------------------------------------------------------------------
// Notifications
// -----------------------------------------------------------------------------

// Level is the severity of a user notification.
type Level string

// Notification levels
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// NotificationEvent is a transient, user-visible message.
type NotificationEvent struct {
	baseEvent
	Level   Level
	Message string
}

// NewNotificationEvent creates a NotificationEvent.
func NewNotificationEvent(level Level, message string) NotificationEvent {
	return NotificationEvent{
		baseEvent: newBaseEvent(TypeNotification),
		Level:     level,
		Message:   message,
	}
}
