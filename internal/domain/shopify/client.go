// Package shopify synchronizes published pilot products with the Shopify
// storefront.
package shopify

import (
	"context"
	"fmt"
	"strings"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// Client pushes a product to Shopify and returns the Shopify product id.
// Failures are one of *APIError, *ValidationError or *NetworkError.
type Client interface {
	SyncProduct(ctx context.Context, p pilot.Product) (pilot.ExternalID, error)
}

// Error is a failure reported by a Client.
//
//sumtype:decl
type Error interface {
	error
	isShopifyError()
}

// APIError is a non-success answer from the Shopify API.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify api error (status %d): %s", e.StatusCode, e.Message)
}

// ValidationError is a product rejected by Shopify.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "shopify validation error: " + e.Message
	}
	return fmt.Sprintf("shopify validation error on %s: %s", strings.Join(e.Fields, ", "), e.Message)
}

// NetworkError is a transport failure talking to Shopify.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "shopify network error: " + e.Message
	}
	return fmt.Sprintf("shopify network error: %s: %v", e.Message, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (*APIError) isShopifyError()        {}
func (*ValidationError) isShopifyError() {}
func (*NetworkError) isShopifyError()    {}
