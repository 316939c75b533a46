package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campus-hub/campus-events-api/internal/admission"
	"github.com/campus-hub/campus-events-api/internal/models"
	"github.com/go-chi/chi/v5"
)

func TestHandleExportRoster(t *testing.T) {
	db, authHandler := setupTest(t)
	ctrl := admission.NewController(db)
	handler := NewRegistrationHandler(db, ctrl, nil, authHandler)

	organizer := seedUser(t, db, "organizer", models.RoleOrganizer)
	student := seedUser(t, db, "student", models.RoleStudent)
	event := seedEvent(t, db, 5, organizer.ID)

	ctrl.Admit(context.Background(), event.ID, student.ID, models.ContactFields{
		Name:  "Student One",
		Email: "student@campus.edu",
	})

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(authHandler.AuthMiddleware)
		r.Get("/events/{id}/roster.csv", handler.HandleExportRoster)
	})

	get := func(userID uint) *httptest.ResponseRecorder {
		token, _ := authHandler.GenerateToken(userID)
		req := httptest.NewRequest("GET", fmt.Sprintf("/events/%d/roster.csv", event.ID), nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	// Students cannot export rosters.
	if rr := get(student.ID); rr.Code != http.StatusForbidden {
		t.Errorf("expected status Forbidden for student, got %v", rr.Code)
	}

	rr := get(organizer.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "confirmation_code") {
		t.Errorf("expected CSV header row, got %q", body)
	}
	if !strings.Contains(body, "student@campus.edu") {
		t.Errorf("expected registration row in CSV, got %q", body)
	}
}
