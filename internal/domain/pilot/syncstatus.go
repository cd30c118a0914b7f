package pilot

import (
	"time"

	"github.com/go-faster/errors"
)

// ErrInvalidTransition is returned when a sync status transition is not
// allowed from the current state. Callers are expected to check CanSync or
// CanReset first, so seeing it means the caller is broken.
var ErrInvalidTransition = errors.New("invalid sync status transition")

// SyncStatus tracks synchronization with the commerce platform.
//
//sumtype:decl
type SyncStatus interface {
	isSyncStatus()
}

// NotSynced is the initial state of every product.
type NotSynced struct{}

// Synced records a successful synchronization.
type Synced struct {
	ExternalID ExternalID
	SyncedAt   time.Time
}

// SyncFailed records consecutive failed synchronizations. Attempts is at least 1.
type SyncFailed struct {
	Reason   FailureReason
	FailedAt time.Time
	Attempts int
}

// FailureReason describes why the last synchronization failed.
type FailureReason struct {
	Code    string
	Message string
}

func (NotSynced) isSyncStatus()  {}
func (Synced) isSyncStatus()     {}
func (SyncFailed) isSyncStatus() {}

// SyncStatusName returns a stable name for the state, used in logs and storage.
func SyncStatusName(s SyncStatus) string {
	switch s.(type) {
	case NotSynced:
		return "NotSynced"
	case Synced:
		return "Synced"
	case SyncFailed:
		return "SyncFailed"
	default:
		return "Unknown"
	}
}

// CanSync reports whether MarkSynced and MarkFailed are legal from s.
func CanSync(s SyncStatus) bool {
	switch s.(type) {
	case NotSynced, SyncFailed:
		return true
	default:
		return false
	}
}

// CanReset reports whether Reset is legal from s.
func CanReset(s SyncStatus) bool {
	switch s.(type) {
	case Synced, SyncFailed:
		return true
	default:
		return false
	}
}

// IsSynced reports whether s is Synced.
func IsSynced(s SyncStatus) bool {
	_, ok := s.(Synced)
	return ok
}

// MarkSynced moves a NotSynced or SyncFailed product to Synced.
func MarkSynced(current SyncStatus, id ExternalID, at time.Time) (SyncStatus, error) {
	if !CanSync(current) {
		return current, errors.Wrapf(ErrInvalidTransition, "mark synced from %s", SyncStatusName(current))
	}
	return Synced{ExternalID: id, SyncedAt: at}, nil
}

// MarkFailed moves a NotSynced or SyncFailed product to SyncFailed. Attempts
// grows by one for each consecutive failure.
func MarkFailed(current SyncStatus, reason FailureReason, at time.Time) (SyncStatus, error) {
	switch s := current.(type) {
	case NotSynced:
		return SyncFailed{Reason: reason, FailedAt: at, Attempts: 1}, nil
	case SyncFailed:
		return SyncFailed{Reason: reason, FailedAt: at, Attempts: s.Attempts + 1}, nil
	default:
		return current, errors.Wrapf(ErrInvalidTransition, "mark failed from %s", SyncStatusName(current))
	}
}

// Reset moves a Synced or SyncFailed product back to NotSynced.
func Reset(current SyncStatus) (SyncStatus, error) {
	if !CanReset(current) {
		return current, errors.Wrapf(ErrInvalidTransition, "reset from %s", SyncStatusName(current))
	}
	return NotSynced{}, nil
}
