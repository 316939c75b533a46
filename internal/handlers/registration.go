package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/campus-hub/campus-events-api/internal/admission"
	"github.com/campus-hub/campus-events-api/internal/auth"
	"github.com/campus-hub/campus-events-api/internal/models"
	"github.com/campus-hub/campus-events-api/internal/notifier"
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type RegistrationHandler struct {
	db          *gorm.DB
	controller  *admission.Controller
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewRegistrationHandler(db *gorm.DB, controller *admission.Controller, notifier notifier.Notifier, authHandler *auth.AuthHandler) *RegistrationHandler {
	return &RegistrationHandler{db: db, controller: controller, notifier: notifier, authHandler: authHandler}
}

// mapAdmissionError translates admission sentinel errors to HTTP statuses.
func mapAdmissionError(err error) error {
	switch {
	case errors.Is(err, admission.ErrEventNotFound):
		return huma.Error404NotFound("Event not found")
	case errors.Is(err, admission.ErrRegistrationNotFound):
		return huma.Error404NotFound("Registration not found")
	case errors.Is(err, admission.ErrForbidden):
		return huma.Error403Forbidden("Forbidden")
	case errors.Is(err, admission.ErrCapacityExceeded):
		return huma.Error409Conflict("Cannot change to registered status. Event is at capacity.")
	case errors.Is(err, admission.ErrAlreadyRegistered):
		return huma.Error409Conflict("You already have a registration for this event")
	case errors.Is(err, admission.ErrInvalidTransition):
		return huma.Error422UnprocessableEntity("Invalid status transition")
	default:
		return huma.Error500InternalServerError("Failed to process registration: " + err.Error())
	}
}

type CreateRegistrationRequest struct {
	auth.AuthInput
	Body struct {
		EventID uint   `json:"event_id" doc:"Event to register for" required:"true"`
		Name    string `json:"name" doc:"Contact name"`
		Email   string `json:"email" doc:"Contact email"`
		Phone   string `json:"phone" doc:"Contact phone"`
	}
}

type RegistrationResponse struct {
	Body models.Registration
}

func (h *RegistrationHandler) HandleCreateRegistration(ctx context.Context, input *CreateRegistrationRequest) (*RegistrationResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	contact := models.ContactFields{
		Name:  input.Body.Name,
		Email: input.Body.Email,
		Phone: input.Body.Phone,
	}
	reg, err := h.controller.Admit(ctx, input.Body.EventID, user.ID, contact)
	if err != nil {
		return nil, mapAdmissionError(err)
	}

	h.announceRegistration(*user, *reg)

	return &RegistrationResponse{Body: *reg}, nil
}

type ListRegistrationsRequest struct {
	auth.AuthInput
	EventID uint `query:"event_id" doc:"Filter by event"`
	UserID  uint `query:"user_id" doc:"Filter by user (admins only for other users)"`
}

type ListRegistrationsResponse struct {
	Body []models.Registration
}

func (h *RegistrationHandler) HandleListRegistrations(ctx context.Context, input *ListRegistrationsRequest) (*ListRegistrationsResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	q := h.db.WithContext(ctx).Model(&models.Registration{})
	if input.EventID != 0 {
		q = q.Where("event_id = ?", input.EventID)
	}
	if !user.IsAdmin() {
		// Non-admins only see their own registrations, whatever user_id says.
		if input.UserID != 0 && input.UserID != user.ID {
			return nil, huma.Error403Forbidden("Forbidden")
		}
		q = q.Where("user_id = ?", user.ID)
	} else if input.UserID != 0 {
		q = q.Where("user_id = ?", input.UserID)
	}

	var regs []models.Registration
	if err := q.Order("registration_date DESC").Find(&regs).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list registrations")
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	return &ListRegistrationsResponse{Body: regs}, nil
}

type GetRegistrationRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *RegistrationHandler) HandleGetRegistration(ctx context.Context, input *GetRegistrationRequest) (*RegistrationResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var reg models.Registration
	if err := h.db.WithContext(ctx).First(&reg, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Registration not found")
	}
	if !user.IsAdmin() && user.ID != reg.UserID {
		return nil, huma.Error403Forbidden("Forbidden")
	}
	return &RegistrationResponse{Body: reg}, nil
}

type UpdateRegistrationRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		Status models.Status `json:"status" doc:"New status" required:"true"`
	}
}

func (h *RegistrationHandler) HandleUpdateRegistration(ctx context.Context, input *UpdateRegistrationRequest) (*RegistrationResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	updated, promoted, changed, err := h.controller.SetStatus(ctx, input.ID, input.Body.Status, user)
	if err != nil {
		return nil, mapAdmissionError(err)
	}

	if changed && input.Body.Status == models.StatusCancelled {
		h.announceCancellation(updated.UserID, updated.EventID)
	}
	h.announcePromotion(promoted)

	return &RegistrationResponse{Body: *updated}, nil
}

type DeleteRegistrationRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *RegistrationHandler) HandleDeleteRegistration(ctx context.Context, input *DeleteRegistrationRequest) (*MessageResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	promoted, err := h.controller.Delete(ctx, input.ID, user)
	if err != nil {
		return nil, mapAdmissionError(err)
	}
	h.announcePromotion(promoted)

	res := &MessageResponse{}
	res.Body.Message = "Registration deleted successfully"
	return res, nil
}

type RegistrationAuditRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type RegistrationAuditResponse struct {
	Body []models.RegistrationAudit
}

func (h *RegistrationHandler) HandleRegistrationAudit(ctx context.Context, input *RegistrationAuditRequest) (*RegistrationAuditResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var reg models.Registration
	if err := h.db.WithContext(ctx).First(&reg, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Registration not found")
	}
	if !user.IsAdmin() && user.ID != reg.UserID {
		return nil, huma.Error403Forbidden("Forbidden")
	}

	var entries []models.RegistrationAudit
	if err := h.db.WithContext(ctx).
		Where("registration_id = ?", reg.ID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load audit trail")
	}
	if entries == nil {
		entries = []models.RegistrationAudit{}
	}
	return &RegistrationAuditResponse{Body: entries}, nil
}

// HandleExportRoster serves the event roster as CSV. Plain chi handler
// behind AuthMiddleware; organizers and admins only.
func (h *RegistrationHandler) HandleExportRoster(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(auth.UserIDKey).(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !user.CanManageEvents() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	eventID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}
	var event models.Event
	if err := h.db.First(&event, uint(eventID)).Error; err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	var regs []models.Registration
	if err := h.db.Where("event_id = ?", event.ID).
		Order("registration_date ASC, id ASC").
		Find(&regs).Error; err != nil {
		http.Error(w, "Failed to load roster", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("roster-%d.csv", event.ID)))

	cw := csv.NewWriter(w)
	cw.Write([]string{"confirmation_code", "user_id", "name", "email", "phone", "status", "registration_date"})
	for _, reg := range regs {
		cw.Write([]string{
			reg.ConfirmationCode,
			strconv.FormatUint(uint64(reg.UserID), 10),
			reg.Name,
			reg.Email,
			reg.Phone,
			string(reg.Status),
			reg.RegistrationDate.Format("2006-01-02 15:04:05"),
		})
	}
	cw.Flush()
}

// Notification helpers. Discord failures are logged, never surfaced.

func (h *RegistrationHandler) announceRegistration(user models.User, reg models.Registration) {
	if h.notifier == nil {
		return
	}
	var event models.Event
	if err := h.db.First(&event, reg.EventID).Error; err != nil {
		return
	}
	if err := h.notifier.NotifyRegistration(user, event, reg); err != nil {
		log.Printf("Failed to send registration notification: %v", err)
	}
}

func (h *RegistrationHandler) announcePromotion(promoted *models.Registration) {
	if h.notifier == nil || promoted == nil {
		return
	}
	var event models.Event
	if err := h.db.First(&event, promoted.EventID).Error; err != nil {
		return
	}
	if err := h.notifier.NotifyPromotion(event, *promoted); err != nil {
		log.Printf("Failed to send promotion notification: %v", err)
	}
}

func (h *RegistrationHandler) announceCancellation(ownerID, eventID uint) {
	if h.notifier == nil {
		return
	}
	var owner models.User
	if err := h.db.First(&owner, ownerID).Error; err != nil {
		return
	}
	var event models.Event
	if err := h.db.First(&event, eventID).Error; err != nil {
		return
	}
	if err := h.notifier.NotifyCancellation(owner, event); err != nil {
		log.Printf("Failed to send cancellation notification: %v", err)
	}
}
