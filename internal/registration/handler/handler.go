package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"bloodlink/internal/platform/middleware"
	"bloodlink/internal/registration"
	regservice "bloodlink/internal/registration/service"
	"bloodlink/internal/screening"
	"bloodlink/internal/transport/http/shared"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// Service defines the registration operations this handler exposes.
type Service interface {
	Submit(ctx context.Context, donorID domain.DonorID, eventID domain.EventID, input screening.Input) (*registration.Registration, error)
	Withdraw(ctx context.Context, id domain.RegistrationID, donorID domain.DonorID) error
	Transition(ctx context.Context, id domain.RegistrationID, next registration.Status, reviewerID domain.OrganizationID, note string, reasonTags []string, appointment *registration.Appointment) (*registration.Registration, error)
	ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*registration.Registration, error)
	ListByEvent(ctx context.Context, eventID domain.EventID, viewer regservice.Viewer) ([]*registration.Registration, error)
}

// Handler handles registration endpoints.
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

// Register mounts the registration routes. The caller applies the common
// middleware chain including RequireAuth; role gates are attached here.
func (h *Handler) Register(r chi.Router) {
	donor := middleware.RequireRole(domain.RoleDonor, h.logger)
	r.With(donor).Post("/registrations", h.handleSubmit)
	r.With(donor).Get("/registrations/my", h.handleListMine)
	r.With(donor).Delete("/registrations/{id}", h.handleWithdraw)

	r.Get("/registrations/event/{eventID}/list", h.handleListByEvent)
	r.With(middleware.RequireRole(domain.RoleOrganization, h.logger)).
		Put("/registrations/{id}/status", h.handleTransition)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID, err := domain.ParseDonorID(middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid donor identity"))
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid submit request body", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.warn(ctx, "submit request failed shape validation", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "event_id is required and must be a UUID"))
		return
	}

	eventID, err := domain.ParseEventID(req.EventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	reg, err := h.svc.Submit(ctx, donorID, eventID, req.Screening)
	if err != nil {
		h.writeServiceError(ctx, w, "submit registration", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, registrationResponse{Registration: reg})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID, err := domain.ParseDonorID(middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid donor identity"))
		return
	}
	regID, err := domain.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.svc.Withdraw(ctx, regID, donorID); err != nil {
		h.writeServiceError(ctx, w, "withdraw registration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID, err := domain.ParseDonorID(middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid donor identity"))
		return
	}

	regs, err := h.svc.ListByDonor(ctx, donorID)
	if err != nil {
		h.writeServiceError(ctx, w, "list donor registrations", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, registrationListResponse{Registrations: regs})
}

func (h *Handler) handleListByEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	viewer, err := viewerFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	regs, err := h.svc.ListByEvent(ctx, eventID, viewer)
	if err != nil {
		h.writeServiceError(ctx, w, "list event registrations", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, registrationListResponse{Registrations: regs})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reviewerID, err := domain.ParseOrganizationID(middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid organization identity"))
		return
	}
	regID, err := domain.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid transition request body", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.warn(ctx, "transition request failed shape validation", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status must be approved or rejected"))
		return
	}

	next, err := registration.ParseDecision(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	reg, err := h.svc.Transition(ctx, regID, next, reviewerID, req.Note, req.ReasonTags, req.appointment())
	if err != nil {
		h.writeServiceError(ctx, w, "transition registration", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, registrationResponse{Registration: reg})
}

// viewerFromContext builds the event-list viewer from the authenticated actor.
func viewerFromContext(ctx context.Context) (regservice.Viewer, error) {
	role := middleware.GetActorRole(ctx)
	viewer := regservice.Viewer{Role: role}
	switch role {
	case domain.RoleOrganization:
		orgID, err := domain.ParseOrganizationID(middleware.GetActorID(ctx))
		if err != nil {
			return regservice.Viewer{}, dErrors.New(dErrors.CodeUnauthorized, "invalid organization identity")
		}
		viewer.OrganizationID = orgID
	case domain.RoleHospital:
		hospitalID, err := domain.ParseHospitalID(middleware.GetActorID(ctx))
		if err != nil {
			return regservice.Viewer{}, dErrors.New(dErrors.CodeUnauthorized, "invalid hospital identity")
		}
		viewer.HospitalID = hospitalID
	case domain.RoleAdmin:
	default:
		return regservice.Viewer{}, dErrors.New(dErrors.CodeForbidden, "not authorized for this event")
	}
	return viewer, nil
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
