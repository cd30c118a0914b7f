package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/catalog"
	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/wire"
)

// ListCatalog handles GET /api/catalog, newest publications first.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.catalog.FindAll(ctx)
	if err != nil {
		zctx.From(ctx).Error("List catalog", zap.Error(err))
		h.writeProblem(ctx, w, r, internalProblem())
		return
	}

	writeJSON(ctx, w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			wire.EncodeCatalogProduct(e, p)
		}
		e.ArrEnd()
	})
}

// GetCatalogProduct handles GET /api/catalog/{id}.
func (h *Handler) GetCatalogProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	product, err := h.catalog.FindByID(ctx, pilot.ProductID(id))
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		h.writeProblem(ctx, w, r, notFoundProblem("CatalogProduct", id))
		return
	case err != nil:
		zctx.From(ctx).Error("Load catalog product", zap.String("product_id", id), zap.Error(err))
		h.writeProblem(ctx, w, r, internalProblem())
		return
	}

	writeJSON(ctx, w, http.StatusOK, func(e *jx.Encoder) {
		wire.EncodeCatalogProduct(e, product)
	})
}
