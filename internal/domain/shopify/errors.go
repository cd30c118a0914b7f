package shopify

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// SyncError is the failure of a Syncer.Sync call: *AlreadySyncedError,
// *ShopifyFailureError or *PersistenceFailureError.
//
//sumtype:decl
type SyncError interface {
	error
	isSyncError()
}

// AlreadySyncedError means the product is already on Shopify. It is an
// expected outcome of a redelivered event.
type AlreadySyncedError struct {
	ProductID pilot.ProductID
}

func (e *AlreadySyncedError) Error() string {
	return fmt.Sprintf("product %s already synced", e.ProductID)
}

// ShopifyFailureError wraps a Client failure.
type ShopifyFailureError struct {
	ProductID pilot.ProductID
	Err       error
}

func (e *ShopifyFailureError) Error() string {
	return fmt.Sprintf("sync product %s: %v", e.ProductID, e.Err)
}

func (e *ShopifyFailureError) Unwrap() error { return e.Err }

// PersistenceFailureError wraps a write-model failure around the sync.
type PersistenceFailureError struct {
	ProductID pilot.ProductID
	Err       error
}

func (e *PersistenceFailureError) Error() string {
	return fmt.Sprintf("persist sync of product %s: %v", e.ProductID, e.Err)
}

func (e *PersistenceFailureError) Unwrap() error { return e.Err }

func (*AlreadySyncedError) isSyncError()      {}
func (*ShopifyFailureError) isSyncError()     {}
func (*PersistenceFailureError) isSyncError() {}

// IsAlreadySynced reports whether err is an *AlreadySyncedError.
func IsAlreadySynced(err error) bool {
	var target *AlreadySyncedError
	return errors.As(err, &target)
}

// Failure codes recorded in pilot.FailureReason.
const (
	CodeAPIError        = "SHOPIFY_API_ERROR"
	CodeValidationError = "SHOPIFY_VALIDATION_ERROR"
	CodeNetworkError    = "SHOPIFY_NETWORK_ERROR"
	CodeUnknownError    = "SHOPIFY_UNKNOWN_ERROR"
)

// failureReason describes a Client failure for the SyncFailed state.
func failureReason(err error) pilot.FailureReason {
	var serr Error
	if !errors.As(err, &serr) {
		return pilot.FailureReason{Code: CodeUnknownError, Message: err.Error()}
	}
	switch e := serr.(type) {
	case *APIError:
		return pilot.FailureReason{Code: CodeAPIError, Message: e.Message}
	case *ValidationError:
		return pilot.FailureReason{Code: CodeValidationError, Message: e.Message}
	case *NetworkError:
		return pilot.FailureReason{Code: CodeNetworkError, Message: e.Message}
	default:
		return pilot.FailureReason{Code: CodeUnknownError, Message: err.Error()}
	}
}
