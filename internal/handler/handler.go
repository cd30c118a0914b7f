// Package handler exposes the pilot product intake and the catalog read
// model over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/catalog"
	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/pkg/httpmiddleware"
)

// maxBodyBytes bounds intake payloads.
const maxBodyBytes = 1 << 20

// PilotService creates pilot products, implemented by *pilot.Service.
type PilotService interface {
	Create(ctx context.Context, cmd pilot.CreateCommand) (pilot.Product, error)
}

// CatalogReader is the read side of catalog.Repository.
type CatalogReader interface {
	FindByID(ctx context.Context, id pilot.ProductID) (catalog.Product, error)
	FindAll(ctx context.Context) ([]catalog.Product, error)
}

// Handler serves the HTTP API.
type Handler struct {
	pilots   PilotService
	products pilot.Repository
	catalog  CatalogReader
	ids      pilot.IDGenerator
	clock    pilot.Clock
}

// NewHandler creates a Handler. catalog may be nil, in which case the
// catalog routes are not registered.
func NewHandler(
	pilots PilotService,
	products pilot.Repository,
	catalog CatalogReader,
	ids pilot.IDGenerator,
	clock pilot.Clock,
) *Handler {
	return &Handler{
		pilots:   pilots,
		products: products,
		catalog:  catalog,
		ids:      ids,
		clock:    clock,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/pilot-product", h.CreatePilotProduct)
	mux.HandleFunc("GET /api/pilot-product/{id}", h.GetPilotProduct)
	if h.catalog != nil {
		mux.HandleFunc("GET /api/catalog", h.ListCatalog)
		mux.HandleFunc("GET /api/catalog/{id}", h.GetCatalogProduct)
	}
}

// metadata returns the request's correlation and user ids, generating a
// correlation id when the middleware did not run.
func (h *Handler) metadata(ctx context.Context) pilot.Metadata {
	md := pilot.Metadata{
		CorrelationID: httpmiddleware.CorrelationIDFromContext(ctx),
		UserID:        httpmiddleware.UserIDFromContext(ctx),
	}
	if md.CorrelationID == "" {
		md.CorrelationID = h.ids.CorrelationID()
	}
	if md.UserID == "" {
		md.UserID = httpmiddleware.AnonymousUser
	}
	return md
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(ctx).Debug("Write response", zap.Error(err))
	}
}
