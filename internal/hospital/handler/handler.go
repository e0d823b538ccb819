// Package handler exposes the hospital endpoints: bulk result recording,
// blood-type confirmation, the unconfirmed-donor worklist, and the donor
// history projection.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"bloodlink/internal/hospital"
	hospservice "bloodlink/internal/hospital/service"
	"bloodlink/internal/identity"
	"bloodlink/internal/platform/middleware"
	"bloodlink/internal/transport/http/shared"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// Service defines the hospital operations this handler exposes.
type Service interface {
	RecordResultsBulk(ctx context.Context, hospitalID domain.HospitalID, eventID domain.EventID, donationDate time.Time, entries []hospservice.BulkEntry) ([]*hospital.DonationResult, error)
	ConfirmBloodType(ctx context.Context, hospitalID domain.HospitalID, donorID domain.DonorID, confirmedType domain.BloodType, note string) (*hospital.BloodTypeConfirmation, error)
	History(ctx context.Context, donorID domain.DonorID) (*hospital.DonorHistory, error)
	UnconfirmedDonors(ctx context.Context, hospitalID domain.HospitalID) ([]*identity.Donor, error)
}

// Handler handles hospital endpoints.
type Handler struct {
	logger   *slog.Logger
	svc      Service
	validate *validator.Validate
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		svc:      svc,
		validate: validator.New(),
	}
}

// Register mounts the hospital routes. Donor history is readable by any
// authenticated actor; the rest is hospital-only.
func (h *Handler) Register(r chi.Router) {
	hosp := middleware.RequireRole(domain.RoleHospital, h.logger)
	r.With(hosp).Post("/hospitals/results/bulk", h.handleBulkResults)
	r.With(hosp).Post("/hospitals/blood-types/confirm", h.handleConfirmBloodType)
	r.With(hosp).Get("/hospitals/blood-types/unconfirmed", h.handleUnconfirmedDonors)

	r.Get("/donors/{donorID}/history", h.handleHistory)
}

func (h *Handler) handleBulkResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hospitalID, err := domain.ParseHospitalID(middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid hospital identity"))
		return
	}

	var req bulkResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid bulk results request body", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.warn(ctx, "bulk results request failed shape validation", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "event_id, donation_date and at least one valid entry are required"))
		return
	}

	eventID, err := domain.ParseEventID(req.EventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entries := make([]hospservice.BulkEntry, 0, len(req.Entries))
	for _, in := range req.Entries {
		outcome, err := hospital.ParseOutcome(in.Outcome)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		entry := hospservice.BulkEntry{
			VolumeML: in.VolumeML,
			Outcome:  outcome,
		}
		if in.RegistrationID != "" {
			regID, err := domain.ParseRegistrationID(in.RegistrationID)
			if err != nil {
				shared.WriteError(w, err)
				return
			}
			entry.RegistrationID = regID
		}
		if in.DonorID != "" {
			donorID, err := domain.ParseDonorID(in.DonorID)
			if err != nil {
				shared.WriteError(w, err)
				return
			}
			entry.DonorID = donorID
		}
		entries = append(entries, entry)
	}

	results, err := h.svc.RecordResultsBulk(ctx, hospitalID, eventID, req.DonationDate, entries)
	if err != nil {
		var bulkErr *hospservice.BulkError
		if errors.As(err, &bulkErr) {
			h.warn(ctx, "bulk results rejected", err)
			shared.WriteJSON(w, http.StatusBadRequest, bulkFailureResponse{
				Error:    "bulk_rejected",
				Message:  "no results were recorded; fix the listed entries and resubmit",
				Failures: bulkErr.Failures,
			})
			return
		}
		h.writeServiceError(ctx, w, "record bulk results", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bulkResultsResponse{Results: results})
}

func (h *Handler) handleConfirmBloodType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hospitalID, err := domain.ParseHospitalID(middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid hospital identity"))
		return
	}

	var req confirmBloodTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid blood type confirmation body", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.warn(ctx, "blood type confirmation failed shape validation", err)
		shared.WriteError(w, dErrors.NewValidation("invalid blood type confirmation", []dErrors.FieldViolation{
			{Field: "confirmed_type", Reason: "must be one of A, B, AB, O"},
		}))
		return
	}

	donorID, err := domain.ParseDonorID(req.DonorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	confirmedType, err := domain.ParseBloodType(req.ConfirmedType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	confirmation, err := h.svc.ConfirmBloodType(ctx, hospitalID, donorID, confirmedType, req.Note)
	if err != nil {
		h.writeServiceError(ctx, w, "confirm blood type", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, confirmationResponse{Confirmation: confirmation})
}

func (h *Handler) handleUnconfirmedDonors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hospitalID, err := domain.ParseHospitalID(middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid hospital identity"))
		return
	}

	donors, err := h.svc.UnconfirmedDonors(ctx, hospitalID)
	if err != nil {
		h.writeServiceError(ctx, w, "list unconfirmed donors", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, unconfirmedDonorsResponse{Donors: donors})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID, err := domain.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	// Donors may only read their own history; hospitals and admins see any.
	role := middleware.GetActorRole(ctx)
	if role == domain.RoleDonor && middleware.GetActorID(ctx) != donorID.String() {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "cannot read another donor's history"))
		return
	}

	history, err := h.svc.History(ctx, donorID)
	if err != nil {
		h.writeServiceError(ctx, w, "read donor history", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, historyResponse{History: history})
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	} else {
		h.warn(ctx, op+" refused", err)
	}
	shared.WriteError(w, err)
}
