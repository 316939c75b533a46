package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/campus-hub/campus-events-api/internal/auth"
	"github.com/campus-hub/campus-events-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type EventHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewEventHandler(db *gorm.DB, authHandler *auth.AuthHandler) *EventHandler {
	return &EventHandler{db: db, authHandler: authHandler}
}

type CreateEventRequest struct {
	auth.AuthInput
	Body struct {
		Title       string          `json:"title" doc:"Event title" required:"true"`
		Description string          `json:"description" doc:"Event description"`
		Location    string          `json:"location" doc:"Where the event takes place"`
		Date        time.Time       `json:"date" doc:"Event date" required:"true"`
		StartTime   string          `json:"start_time" doc:"Start time, e.g. 18:00"`
		EndTime     string          `json:"end_time" doc:"End time, e.g. 20:00"`
		Capacity    int             `json:"capacity" doc:"Maximum number of seated registrations" required:"true"`
		Category    models.Category `json:"category,omitempty" doc:"Event category"`
		Organizer   string          `json:"organizer" doc:"Organizing group or person"`
		ImageURL    string          `json:"image_url" doc:"Promotional image URL"`
	}
}

type EventResponse struct {
	Body models.Event
}

func (h *EventHandler) HandleCreateEvent(ctx context.Context, input *CreateEventRequest) (*EventResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if !user.CanManageEvents() {
		return nil, huma.Error403Forbidden("Only organizers and admins can create events")
	}

	title := strings.TrimSpace(input.Body.Title)
	if title == "" {
		return nil, huma.Error400BadRequest("Event title is required")
	}
	if input.Body.Capacity <= 0 {
		return nil, huma.Error400BadRequest("Capacity must be a positive integer")
	}

	category := input.Body.Category
	if category == "" {
		category = models.CategoryGeneral
	}
	if !category.Valid() {
		return nil, huma.Error400BadRequest("Unknown event category")
	}

	event := models.Event{
		Title:       title,
		Description: input.Body.Description,
		Location:    input.Body.Location,
		Date:        input.Body.Date,
		StartTime:   input.Body.StartTime,
		EndTime:     input.Body.EndTime,
		Capacity:    input.Body.Capacity,
		Category:    category,
		Organizer:   input.Body.Organizer,
		ImageURL:    input.Body.ImageURL,
		IsActive:    true,
		CreatedByID: user.ID,
	}
	if err := h.db.Create(&event).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create event: " + err.Error())
	}

	return &EventResponse{Body: event}, nil
}

type ListEventsRequest struct {
	Category string `query:"category" doc:"Filter by category"`
	Query    string `query:"query" doc:"Free-text search over title and description"`
}

type ListEventsResponse struct {
	Body []models.Event
}

func (h *EventHandler) HandleListEvents(ctx context.Context, input *ListEventsRequest) (*ListEventsResponse, error) {
	q := h.db.WithContext(ctx).Where("is_active = ?", true)
	if input.Category != "" {
		q = q.Where("category = ?", input.Category)
	}
	if input.Query != "" {
		pattern := "%" + input.Query + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var events []models.Event
	if err := q.Order("date ASC").Find(&events).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list events")
	}
	if events == nil {
		events = []models.Event{}
	}
	return &ListEventsResponse{Body: events}, nil
}

type GetEventRequest struct {
	ID uint `path:"id"`
}

func (h *EventHandler) HandleGetEvent(ctx context.Context, input *GetEventRequest) (*EventResponse, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}
	return &EventResponse{Body: event}, nil
}

type UpdateEventRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		Title       *string          `json:"title,omitempty"`
		Description *string          `json:"description,omitempty"`
		Location    *string          `json:"location,omitempty"`
		Date        *time.Time       `json:"date,omitempty"`
		StartTime   *string          `json:"start_time,omitempty"`
		EndTime     *string          `json:"end_time,omitempty"`
		Capacity    *int             `json:"capacity,omitempty"`
		Category    *models.Category `json:"category,omitempty"`
		Organizer   *string          `json:"organizer,omitempty"`
		ImageURL    *string          `json:"image_url,omitempty"`
		IsActive    *bool            `json:"is_active,omitempty"`
	}
}

func (h *EventHandler) HandleUpdateEvent(ctx context.Context, input *UpdateEventRequest) (*EventResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}
	if !user.IsAdmin() && user.ID != event.CreatedByID {
		return nil, huma.Error403Forbidden("Forbidden")
	}

	b := input.Body
	if b.Title != nil {
		event.Title = strings.TrimSpace(*b.Title)
	}
	if b.Description != nil {
		event.Description = *b.Description
	}
	if b.Location != nil {
		event.Location = *b.Location
	}
	if b.Date != nil {
		event.Date = *b.Date
	}
	if b.StartTime != nil {
		event.StartTime = *b.StartTime
	}
	if b.EndTime != nil {
		event.EndTime = *b.EndTime
	}
	if b.Capacity != nil {
		if *b.Capacity <= 0 {
			return nil, huma.Error400BadRequest("Capacity must be a positive integer")
		}
		event.Capacity = *b.Capacity
	}
	if b.Category != nil {
		if !b.Category.Valid() {
			return nil, huma.Error400BadRequest("Unknown event category")
		}
		event.Category = *b.Category
	}
	if b.Organizer != nil {
		event.Organizer = *b.Organizer
	}
	if b.ImageURL != nil {
		event.ImageURL = *b.ImageURL
	}
	if b.IsActive != nil {
		event.IsActive = *b.IsActive
	}

	// registered_count belongs to the admission controller; a stale value
	// read here must not clobber a concurrent admit or cancel.
	if err := h.db.Omit("registered_count").Save(&event).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update event: " + err.Error())
	}
	return &EventResponse{Body: event}, nil
}

type DeleteEventRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *EventHandler) HandleDeleteEvent(ctx context.Context, input *DeleteEventRequest) (*MessageResponse, error) {
	user, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}
	if !user.IsAdmin() && user.ID != event.CreatedByID {
		return nil, huma.Error403Forbidden("Forbidden")
	}

	if err := h.db.Delete(&event).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete event")
	}

	res := &MessageResponse{}
	res.Body.Message = "Event deleted successfully"
	return res, nil
}
