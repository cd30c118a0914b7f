package pilot

import (
	"context"
	"fmt"
	"time"
)

// Event type names, also carried in the eventType message header.
const (
	EventProductPublished = "PilotProductPublished"
	EventProductSynced    = "PilotProductSynced"
	EventCatalogProjected = "CatalogProjected"
)

// Metadata identifies the request an event originates from.
type Metadata struct {
	CorrelationID string
	UserID        string
}

// Event is an immutable domain fact.
//
//sumtype:decl
type Event interface {
	EventType() string
	AggregateID() ProductID
	Meta() Metadata
	OccurredAt() time.Time
	isEvent()
}

// ProductPublished carries a full snapshot of a published product.
type ProductPublished struct {
	Product   Product
	Metadata  Metadata
	Timestamp time.Time
}

// ProductSynced is emitted once the commerce platform accepted a product.
type ProductSynced struct {
	ProductID  ProductID
	ExternalID ExternalID
	Metadata   Metadata
	Timestamp  time.Time
}

// CatalogProjected is emitted once the catalog read model holds a product.
type CatalogProjected struct {
	ProductID ProductID
	Metadata  Metadata
	Timestamp time.Time
}

func (ProductPublished) EventType() string        { return EventProductPublished }
func (e ProductPublished) AggregateID() ProductID { return e.Product.ID }
func (e ProductPublished) Meta() Metadata         { return e.Metadata }
func (e ProductPublished) OccurredAt() time.Time  { return e.Timestamp }
func (ProductPublished) isEvent()                 {}
func (ProductSynced) EventType() string           { return EventProductSynced }
func (e ProductSynced) AggregateID() ProductID    { return e.ProductID }
func (e ProductSynced) Meta() Metadata            { return e.Metadata }
func (e ProductSynced) OccurredAt() time.Time     { return e.Timestamp }
func (ProductSynced) isEvent()                    {}
func (CatalogProjected) EventType() string        { return EventCatalogProjected }
func (e CatalogProjected) AggregateID() ProductID { return e.ProductID }
func (e CatalogProjected) Meta() Metadata         { return e.Metadata }
func (e CatalogProjected) OccurredAt() time.Time  { return e.Timestamp }
func (CatalogProjected) isEvent()                 {}

// Publisher delivers domain events to the broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublishError wraps a broker failure while publishing an event.
type PublishError struct {
	EventType string
	Err       error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.EventType, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
