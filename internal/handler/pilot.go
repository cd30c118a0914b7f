package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/wire"
)

// CreatePilotProduct handles POST /api/pilot-product.
func (h *Handler) CreatePilotProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeProblem(ctx, w, r, validationProblem([]string{"Request body too large"}))
			return
		}
		lg.Warn("Read request body", zap.Error(err))
		h.writeProblem(ctx, w, r, validationProblem([]string{"Unreadable request body"}))
		return
	}
	intake, err := wire.DecodeIntake(body)
	if err != nil {
		h.writeProblem(ctx, w, r, validationProblem([]string{"Malformed JSON body"}))
		return
	}

	product, err := h.pilots.Create(ctx, pilot.CreateCommand{
		Intake:   intake,
		Metadata: h.metadata(ctx),
	})
	if err != nil {
		var (
			valErr *pilot.ValidationError
			perErr *pilot.PersistenceError
		)
		switch {
		case errors.As(err, &valErr):
			h.writeProblem(ctx, w, r, validationProblem(valErr.Errors))
		case errors.As(err, &perErr):
			lg.Error("Pilot product not saved", zap.Error(err))
			h.writeProblem(ctx, w, r, persistenceProblem())
		default:
			lg.Error("Pilot product creation failed", zap.Error(err))
			h.writeProblem(ctx, w, r, internalProblem())
		}
		return
	}

	lg.Info("Pilot product created",
		zap.String("product_id", product.ID.String()),
		zap.String("status", string(product.Status)),
	)
	w.Header().Set("Location", "/api/pilot-product/"+product.ID.String())
	writeJSON(ctx, w, http.StatusCreated, func(e *jx.Encoder) {
		wire.EncodeProduct(e, product)
	})
}

// GetPilotProduct handles GET /api/pilot-product/{id}.
func (h *Handler) GetPilotProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	product, err := h.products.FindByID(ctx, pilot.ProductID(id))
	switch {
	case errors.Is(err, pilot.ErrNotFound):
		h.writeProblem(ctx, w, r, notFoundProblem("PilotProduct", id))
		return
	case err != nil:
		zctx.From(ctx).Error("Load pilot product", zap.String("product_id", id), zap.Error(err))
		h.writeProblem(ctx, w, r, internalProblem())
		return
	}

	writeJSON(ctx, w, http.StatusOK, func(e *jx.Encoder) {
		wire.EncodeProduct(e, product)
	})
}
