// Package notify defines the notification sink for lock lifecycle events.
// The real-time delivery channel (sockets) lives outside this service; the
// default implementation just logs the events it would publish.
package notify

import (
	"context"
	"time"

	"github.com/dkovalev/folderlock/internal/logging"
)

// Event types published by the lock services.
const (
	EventLockCreated   = "lock.created"
	EventLockLocked    = "lock.locked"
	EventLockUnlocked  = "lock.unlocked"
	EventLockRemoved   = "lock.removed"
	EventLockLockedOut = "lock.locked_out"
	EventLockRecovered = "lock.recovered"
)

// Event describes a lock state change for interested listeners.
type Event struct {
	Type     string
	OwnerID  string
	FolderID string
	At       time.Time
}

// Notifier receives lock lifecycle events. Implementations must not block;
// delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// LogNotifier writes events to the structured log.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("module", "notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) {
	n.log.Info(ctx, "lock event",
		"type", event.Type, "owner_id", event.OwnerID, "folder_id", event.FolderID)
}
