package admission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/campus-hub/campus-events-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TestConcurrentAdmission fires N concurrent admits at an event with
// capacity K: exactly K must end up registered and N-K waitlisted, and the
// counter must never overshoot capacity.
func TestConcurrentAdmission(t *testing.T) {
	// A named shared-cache DSN keeps all pool connections on one database;
	// a single open connection avoids sqlite write contention.
	db, err := gorm.Open(sqlite.Open("file:admission_concurrency?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Event{}, &models.Registration{}, &models.RegistrationAudit{}); err != nil {
		t.Fatalf("failed to auto migrate: %v", err)
	}

	const (
		capacity = 5
		attempts = 20
	)

	event := models.Event{
		Title:    "Concurrency test",
		Date:     time.Now().Add(24 * time.Hour),
		Capacity: capacity,
		Category: models.CategoryGeneral,
		IsActive: true,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	users := make([]models.User, attempts)
	for i := range users {
		users[i] = models.User{
			Name:     "user",
			Email:    "user" + string(rune('a'+i)) + "@campus.edu",
			GoogleID: "google-" + string(rune('a'+i)),
			Role:     models.RoleStudent,
		}
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("failed to create user %d: %v", i, err)
		}
	}

	ctrl := NewController(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			if _, err := ctrl.Admit(ctx, event.ID, userID, models.ContactFields{}); err != nil {
				errs <- err
			}
		}(users[i].ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("admit failed: %v", err)
	}

	var registered, waitlisted int64
	db.Model(&models.Registration{}).
		Where("event_id = ? AND status = ?", event.ID, models.StatusRegistered).
		Count(&registered)
	db.Model(&models.Registration{}).
		Where("event_id = ? AND status = ?", event.ID, models.StatusWaitlisted).
		Count(&waitlisted)

	if registered != capacity {
		t.Errorf("expected exactly %d registered, got %d", capacity, registered)
	}
	if waitlisted != attempts-capacity {
		t.Errorf("expected %d waitlisted, got %d", attempts-capacity, waitlisted)
	}

	var got models.Event
	db.First(&got, event.ID)
	if got.RegisteredCount != capacity {
		t.Errorf("expected registered_count %d, got %d", capacity, got.RegisteredCount)
	}
	if got.RegisteredCount > got.Capacity {
		t.Errorf("registered_count %d exceeds capacity %d", got.RegisteredCount, got.Capacity)
	}
}
