package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const errorTypeBase = "https://maison-amane.com/errors/"

// Business error codes.
const (
	CodeInvalidProductData = "PILOT_VALIDATION_001"
	CodeSaveFailed         = "PILOT_PERSISTENCE_001"
	CodeProductNotFound    = "PILOT_NOT_FOUND_001"
	CodeInternalError      = "SYSTEM_ERROR_001"
)

// problem is an RFC 7807 problem detail with the API's extension members.
type problem struct {
	Type   string
	Title  string
	Status int
	Detail string
	Code   string

	Errors     []string
	Resource   string
	ResourceID string
}

func validationProblem(errs []string) problem {
	return problem{
		Type:   errorTypeBase + "validation-error",
		Title:  "Invalid Product Data",
		Status: http.StatusBadRequest,
		Detail: "The request contains invalid data. See errors for details.",
		Code:   CodeInvalidProductData,
		Errors: errs,
	}
}

func persistenceProblem() problem {
	return problem{
		Type:   errorTypeBase + "persistence-error",
		Title:  "Save Operation Failed",
		Status: http.StatusInternalServerError,
		Detail: "An error occurred while persisting the data. Please try again.",
		Code:   CodeSaveFailed,
	}
}

func notFoundProblem(resource, id string) problem {
	return problem{
		Type:       errorTypeBase + "not-found",
		Title:      "Product Not Found",
		Status:     http.StatusNotFound,
		Detail:     "The requested " + resource + " with id '" + id + "' was not found.",
		Code:       CodeProductNotFound,
		Resource:   resource,
		ResourceID: id,
	}
}

func internalProblem() problem {
	return problem{
		Type:   errorTypeBase + "internal-error",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: "An unexpected error occurred. Please contact support with the correlationId.",
		Code:   CodeInternalError,
	}
}

func (h *Handler) writeProblem(ctx context.Context, w http.ResponseWriter, r *http.Request, p problem) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("type")
	e.Str(p.Type)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("status")
	e.Int(p.Status)
	e.FieldStart("detail")
	e.Str(p.Detail)
	e.FieldStart("instance")
	e.Str(r.URL.Path)
	e.FieldStart("correlationId")
	e.Str(h.metadata(ctx).CorrelationID)
	e.FieldStart("code")
	e.Str(p.Code)
	e.FieldStart("timestamp")
	e.Str(h.clock.Now().UTC().Format(time.RFC3339Nano))
	if p.Errors != nil {
		e.FieldStart("errors")
		e.ArrStart()
		for _, msg := range p.Errors {
			e.Str(msg)
		}
		e.ArrEnd()
	}
	if p.Resource != "" {
		e.FieldStart("resource")
		e.Str(p.Resource)
		e.FieldStart("resourceId")
		e.Str(p.ResourceID)
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(ctx).Debug("Write problem", zap.Error(err))
	}
}
