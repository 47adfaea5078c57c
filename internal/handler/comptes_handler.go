package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Comptes Handlers
// ============================================================

func listComptesHandler(svc *service.ComptesService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/comptes")
		defer span.End()

		svc.Refresh(ctx)
		rows := svc.Rows()
		span.SetAttributes(attribute.Int("comptes.count", len(rows)))
		writeJSON(w, http.StatusOK, rows)
	}
}

func listRowsHandler(svc *service.ComptesService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Rows())
	}
}

func createCompteHandler(svc *service.ComptesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/comptes")
		defer span.End()

		var req domain.CreateCompteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t := domain.TypeCourant
		if req.Type != "" {
			parsed, ok := domain.ParseTypeCompte(req.Type)
			if !ok {
				handleServiceError(w, &domain.ErrValidation{Field: "type", Message: "must be COURANT or EPARGNE"}, logger)
				return
			}
			t = parsed
		}

		ok, err := svc.Create(ctx, req.Solde, t)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if !ok {
			handleServiceError(w, &domain.ErrRemoteRejected{Operation: "createCompte"}, logger)
			return
		}
		writeJSON(w, http.StatusCreated, domain.SuccessResponse{Message: "compte créé"})
	}
}

func deleteCompteHandler(svc *service.ComptesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/comptes/{id}")
		defer span.End()

		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("compte.id", id))

		ok, err := svc.RequestDelete(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if !ok {
			handleServiceError(w, &domain.ErrRemoteRejected{Operation: "deleteCompte"}, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func editCompteHandler(svc *service.ComptesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		c, err := svc.RequestEdit(id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
