package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/campus-hub/campus-events-api/internal/admission"
	"github.com/campus-hub/campus-events-api/internal/auth"
	"github.com/campus-hub/campus-events-api/internal/config"
	"github.com/campus-hub/campus-events-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (*gorm.DB, *auth.AuthHandler) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Event{}, &models.Registration{}, &models.RegistrationAudit{}, &models.APIKey{})
	if err != nil {
		t.Fatalf("failed to auto migrate: %v", err)
	}
	authHandler := auth.NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, db)
	return db, authHandler
}

func authInputFor(t *testing.T, authHandler *auth.AuthHandler, userID uint) auth.AuthInput {
	t.Helper()
	token, err := authHandler.GenerateToken(userID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return auth.AuthInput{Cookie: "auth_token=" + token}
}

func seedUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@campus.edu", GoogleID: "google-" + name, Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return &user
}

func seedEvent(t *testing.T, db *gorm.DB, capacity int, createdBy uint) *models.Event {
	t.Helper()
	event := models.Event{
		Title:       "Club Fair",
		Date:        time.Now().Add(48 * time.Hour),
		Capacity:    capacity,
		Category:    models.CategorySocial,
		IsActive:    true,
		CreatedByID: createdBy,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return &event
}

// recordingNotifier counts announcements instead of talking to Discord.
type recordingNotifier struct {
	registrations int
	promotions    int
	cancellations int
}

func (n *recordingNotifier) NotifyRegistration(models.User, models.Event, models.Registration) error {
	n.registrations++
	return nil
}

func (n *recordingNotifier) NotifyPromotion(models.Event, models.Registration) error {
	n.promotions++
	return nil
}

func (n *recordingNotifier) NotifyCancellation(models.User, models.Event) error {
	n.cancellations++
	return nil
}

func TestHandleCreateRegistration(t *testing.T) {
	db, authHandler := setupTest(t)
	handler := NewRegistrationHandler(db, admission.NewController(db), nil, authHandler)

	organizer := seedUser(t, db, "organizer", models.RoleOrganizer)
	event := seedEvent(t, db, 1, organizer.ID)
	alice := seedUser(t, db, "alice", models.RoleStudent)
	bob := seedUser(t, db, "bob", models.RoleStudent)

	req := CreateRegistrationRequest{AuthInput: authInputFor(t, authHandler, alice.ID)}
	req.Body.EventID = event.ID
	req.Body.Email = "alice@campus.edu"

	resp, err := handler.HandleCreateRegistration(context.Background(), &req)
	if err != nil {
		t.Fatalf("HandleCreateRegistration returned error: %v", err)
	}
	if resp.Body.Status != models.StatusRegistered {
		t.Errorf("expected registered, got %s", resp.Body.Status)
	}
	if resp.Body.ConfirmationCode == "" {
		t.Errorf("expected a confirmation code")
	}

	// Event is now full: bob lands on the waitlist.
	req2 := CreateRegistrationRequest{AuthInput: authInputFor(t, authHandler, bob.ID)}
	req2.Body.EventID = event.ID

	resp2, err := handler.HandleCreateRegistration(context.Background(), &req2)
	if err != nil {
		t.Fatalf("second HandleCreateRegistration returned error: %v", err)
	}
	if resp2.Body.Status != models.StatusWaitlisted {
		t.Errorf("expected waitlisted, got %s", resp2.Body.Status)
	}

	// Duplicate registration is rejected.
	if _, err := handler.HandleCreateRegistration(context.Background(), &req); err == nil {
		t.Fatal("expected error for duplicate registration, got nil")
	}
}

func TestHandleCreateRegistration_Unauthenticated(t *testing.T) {
	db, authHandler := setupTest(t)
	handler := NewRegistrationHandler(db, admission.NewController(db), nil, authHandler)

	req := CreateRegistrationRequest{}
	req.Body.EventID = 1
	if _, err := handler.HandleCreateRegistration(context.Background(), &req); err == nil {
		t.Fatal("expected error for unauthenticated request, got nil")
	}
}

func TestHandleListRegistrations_Visibility(t *testing.T) {
	db, authHandler := setupTest(t)
	ctrl := admission.NewController(db)
	handler := NewRegistrationHandler(db, ctrl, nil, authHandler)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer", models.RoleOrganizer)
	event := seedEvent(t, db, 5, organizer.ID)
	alice := seedUser(t, db, "alice", models.RoleStudent)
	bob := seedUser(t, db, "bob", models.RoleStudent)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	ctrl.Admit(ctx, event.ID, alice.ID, models.ContactFields{})
	ctrl.Admit(ctx, event.ID, bob.ID, models.ContactFields{})

	// Alice only sees her own registration.
	listReq := ListRegistrationsRequest{AuthInput: authInputFor(t, authHandler, alice.ID)}
	resp, err := handler.HandleListRegistrations(ctx, &listReq)
	if err != nil {
		t.Fatalf("HandleListRegistrations returned error: %v", err)
	}
	if len(resp.Body) != 1 || resp.Body[0].UserID != alice.ID {
		t.Errorf("expected only alice's registration, got %d rows", len(resp.Body))
	}

	// Naming her own id in the filter is fine.
	ownReq := ListRegistrationsRequest{AuthInput: authInputFor(t, authHandler, alice.ID), UserID: alice.ID}
	ownResp, err := handler.HandleListRegistrations(ctx, &ownReq)
	if err != nil {
		t.Fatalf("own user_id filter returned error: %v", err)
	}
	if len(ownResp.Body) != 1 || ownResp.Body[0].UserID != alice.ID {
		t.Errorf("expected only alice's registration, got %d rows", len(ownResp.Body))
	}

	// Naming someone else's id does not leak their registrations.
	peekReq := ListRegistrationsRequest{AuthInput: authInputFor(t, authHandler, alice.ID), UserID: bob.ID}
	if _, err := handler.HandleListRegistrations(ctx, &peekReq); err == nil {
		t.Fatal("expected forbidden error for non-admin user_id filter, got nil")
	}

	// Admin sees the whole event roster.
	adminReq := ListRegistrationsRequest{AuthInput: authInputFor(t, authHandler, admin.ID), EventID: event.ID}
	adminResp, err := handler.HandleListRegistrations(ctx, &adminReq)
	if err != nil {
		t.Fatalf("admin HandleListRegistrations returned error: %v", err)
	}
	if len(adminResp.Body) != 2 {
		t.Errorf("expected 2 registrations for admin, got %d", len(adminResp.Body))
	}

	// And may scope the list to one user.
	adminUserReq := ListRegistrationsRequest{AuthInput: authInputFor(t, authHandler, admin.ID), UserID: bob.ID}
	adminUserResp, err := handler.HandleListRegistrations(ctx, &adminUserReq)
	if err != nil {
		t.Fatalf("admin user_id filter returned error: %v", err)
	}
	if len(adminUserResp.Body) != 1 || adminUserResp.Body[0].UserID != bob.ID {
		t.Errorf("expected only bob's registration for admin filter, got %d rows", len(adminUserResp.Body))
	}
}

func TestHandleUpdateRegistration_CancelPromotes(t *testing.T) {
	db, authHandler := setupTest(t)
	ctrl := admission.NewController(db)
	handler := NewRegistrationHandler(db, ctrl, nil, authHandler)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer", models.RoleOrganizer)
	event := seedEvent(t, db, 1, organizer.ID)
	alice := seedUser(t, db, "alice", models.RoleStudent)
	bob := seedUser(t, db, "bob", models.RoleStudent)

	seated, _ := ctrl.Admit(ctx, event.ID, alice.ID, models.ContactFields{})
	waitlisted, _ := ctrl.Admit(ctx, event.ID, bob.ID, models.ContactFields{})

	req := UpdateRegistrationRequest{AuthInput: authInputFor(t, authHandler, alice.ID), ID: seated.ID}
	req.Body.Status = models.StatusCancelled

	resp, err := handler.HandleUpdateRegistration(ctx, &req)
	if err != nil {
		t.Fatalf("HandleUpdateRegistration returned error: %v", err)
	}
	if resp.Body.Status != models.StatusCancelled {
		t.Errorf("expected cancelled, got %s", resp.Body.Status)
	}

	var promoted models.Registration
	db.First(&promoted, waitlisted.ID)
	if promoted.Status != models.StatusRegistered {
		t.Errorf("expected waitlisted bob promoted, got %s", promoted.Status)
	}
}

func TestHandleUpdateRegistration_AdminCapacityGuard(t *testing.T) {
	db, authHandler := setupTest(t)
	ctrl := admission.NewController(db)
	handler := NewRegistrationHandler(db, ctrl, nil, authHandler)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer", models.RoleOrganizer)
	event := seedEvent(t, db, 1, organizer.ID)
	alice := seedUser(t, db, "alice", models.RoleStudent)
	bob := seedUser(t, db, "bob", models.RoleStudent)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	ctrl.Admit(ctx, event.ID, alice.ID, models.ContactFields{})
	waitlisted, _ := ctrl.Admit(ctx, event.ID, bob.ID, models.ContactFields{})

	req := UpdateRegistrationRequest{AuthInput: authInputFor(t, authHandler, admin.ID), ID: waitlisted.ID}
	req.Body.Status = models.StatusRegistered

	if _, err := handler.HandleUpdateRegistration(ctx, &req); err == nil {
		t.Fatal("expected capacity error, got nil")
	}

	var gotEvent models.Event
	db.First(&gotEvent, event.ID)
	if gotEvent.RegisteredCount != 1 {
		t.Errorf("registered_count changed on failed promotion: %d", gotEvent.RegisteredCount)
	}
}

func TestHandleUpdateRegistration_RepeatCancelAnnouncesOnce(t *testing.T) {
	db, authHandler := setupTest(t)
	ctrl := admission.NewController(db)
	recorder := &recordingNotifier{}
	handler := NewRegistrationHandler(db, ctrl, recorder, authHandler)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer", models.RoleOrganizer)
	event := seedEvent(t, db, 1, organizer.ID)
	alice := seedUser(t, db, "alice", models.RoleStudent)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	reg, _ := ctrl.Admit(ctx, event.ID, alice.ID, models.ContactFields{})

	req := UpdateRegistrationRequest{AuthInput: authInputFor(t, authHandler, admin.ID), ID: reg.ID}
	req.Body.Status = models.StatusCancelled

	if _, err := handler.HandleUpdateRegistration(ctx, &req); err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	// Re-cancelling succeeds as a no-op and must not announce again.
	if _, err := handler.HandleUpdateRegistration(ctx, &req); err != nil {
		t.Fatalf("repeat cancel returned error: %v", err)
	}
	if recorder.cancellations != 1 {
		t.Errorf("expected 1 cancellation announcement, got %d", recorder.cancellations)
	}
}

func TestHandleDeleteRegistration(t *testing.T) {
	db, authHandler := setupTest(t)
	ctrl := admission.NewController(db)
	handler := NewRegistrationHandler(db, ctrl, nil, authHandler)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer", models.RoleOrganizer)
	event := seedEvent(t, db, 2, organizer.ID)
	alice := seedUser(t, db, "alice", models.RoleStudent)
	bob := seedUser(t, db, "bob", models.RoleStudent)

	reg, _ := ctrl.Admit(ctx, event.ID, alice.ID, models.ContactFields{})

	// A stranger cannot delete someone else's registration.
	strangerReq := DeleteRegistrationRequest{AuthInput: authInputFor(t, authHandler, bob.ID), ID: reg.ID}
	if _, err := handler.HandleDeleteRegistration(ctx, &strangerReq); err == nil {
		t.Fatal("expected forbidden error, got nil")
	}

	req := DeleteRegistrationRequest{AuthInput: authInputFor(t, authHandler, alice.ID), ID: reg.ID}
	if _, err := handler.HandleDeleteRegistration(ctx, &req); err != nil {
		t.Fatalf("HandleDeleteRegistration returned error: %v", err)
	}

	var count int64
	db.Model(&models.Registration{}).Where("id = ?", reg.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected registration removed, found %d rows", count)
	}
}

func TestHandleRegistrationAudit(t *testing.T) {
	db, authHandler := setupTest(t)
	ctrl := admission.NewController(db)
	handler := NewRegistrationHandler(db, ctrl, nil, authHandler)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer", models.RoleOrganizer)
	event := seedEvent(t, db, 1, organizer.ID)
	alice := seedUser(t, db, "alice", models.RoleStudent)
	bob := seedUser(t, db, "bob", models.RoleStudent)

	reg, _ := ctrl.Admit(ctx, event.ID, alice.ID, models.ContactFields{})
	ctrl.Cancel(ctx, reg.ID, alice)

	req := RegistrationAuditRequest{AuthInput: authInputFor(t, authHandler, alice.ID), ID: reg.ID}
	resp, err := handler.HandleRegistrationAudit(ctx, &req)
	if err != nil {
		t.Fatalf("HandleRegistrationAudit returned error: %v", err)
	}
	if len(resp.Body) != 2 {
		t.Errorf("expected 2 audit entries, got %d", len(resp.Body))
	}

	// Another student cannot read alice's audit trail.
	strangerReq := RegistrationAuditRequest{AuthInput: authInputFor(t, authHandler, bob.ID), ID: reg.ID}
	if _, err := handler.HandleRegistrationAudit(ctx, &strangerReq); err == nil {
		t.Fatal("expected forbidden error, got nil")
	}
}
