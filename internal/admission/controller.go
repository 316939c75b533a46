package admission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/campus-hub/campus-events-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Controller serializes all capacity-affecting mutations for an event.
//
// Two concurrent admits can both read registered_count < capacity and both
// increment, overbooking the event. The per-event mutex closes that gap by
// serializing admission and cancellation for a given event id; the gorm
// transaction makes the registration write and the counter write land
// together or not at all.
type Controller struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewController constructs a Controller over the given database.
func NewController(db *gorm.DB) *Controller {
	return &Controller{db: db, locks: make(map[uint]*sync.Mutex)}
}

// lockEvent acquires the mutex for eventID, creating it on first use.
// It returns the unlock function. Mutexes are never released, so the map
// grows with the number of distinct events mutated over the process
// lifetime. Switch to a keyed mutex with release if event churn ever makes
// that matter.
func (c *Controller) lockEvent(eventID uint) func() {
	c.mu.Lock()
	l, ok := c.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[eventID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStoreUnavailable, err))
}

// Admit creates a registration for userID on eventID. The user is seated
// (status registered, counter incremented) while seats remain, otherwise
// waitlisted. At most one non-cancelled registration per (event, user) pair
// is allowed.
func (c *Controller) Admit(ctx context.Context, eventID, userID uint, contact models.ContactFields) (*models.Registration, error) {
	unlock := c.lockEvent(eventID)
	defer unlock()

	var reg models.Registration
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return storeErr("load event", err)
		}

		var dup int64
		err := tx.Model(&models.Registration{}).
			Where("event_id = ? AND user_id = ? AND status <> ?", eventID, userID, models.StatusCancelled).
			Count(&dup).Error
		if err != nil {
			return storeErr("check duplicate", err)
		}
		if dup > 0 {
			return ErrAlreadyRegistered
		}

		status := models.StatusWaitlisted
		if !event.IsFull() {
			status = models.StatusRegistered
			if err := incrementCount(tx, eventID, 1); err != nil {
				return err
			}
		}

		reg = models.Registration{
			EventID:          eventID,
			UserID:           userID,
			Status:           status,
			RegistrationDate: time.Now().UTC(),
			ConfirmationCode: uuid.NewString(),
			ContactFields:    contact,
		}
		if err := tx.Create(&reg).Error; err != nil {
			return storeErr("create registration", err)
		}

		return audit(tx, &reg, userID, "", status)
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Cancel sets the registration to cancelled. Only the owner or an admin may
// cancel. When the registration held a counted seat, the earliest waitlisted
// registration on the event (if any) is promoted into it; the promoted
// registration is returned so callers can announce it. Cancelling an
// already-cancelled registration is a no-op.
func (c *Controller) Cancel(ctx context.Context, registrationID uint, actor *models.User) (*models.Registration, error) {
	reg, err := c.load(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if actor.ID != reg.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	unlock := c.lockEvent(reg.EventID)
	defer unlock()

	var promoted *models.Registration
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		promoted = nil
		reg, err := loadTx(tx, registrationID)
		if err != nil {
			return err
		}

		switch reg.Status {
		case models.StatusCancelled:
			return nil
		case models.StatusAttended:
			return ErrInvalidTransition
		case models.StatusRegistered:
			promoted, err = vacateSeat(tx, reg, actor.ID)
			if err != nil {
				return err
			}
		}

		return setStatus(tx, reg, actor.ID, models.StatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// Delete removes the registration row after applying the same counter and
// promotion effects as Cancel. Roster cleanup rather than a state
// transition, so terminal statuses are deletable too.
func (c *Controller) Delete(ctx context.Context, registrationID uint, actor *models.User) (*models.Registration, error) {
	reg, err := c.load(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if actor.ID != reg.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	unlock := c.lockEvent(reg.EventID)
	defer unlock()

	var promoted *models.Registration
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		promoted = nil
		reg, err := loadTx(tx, registrationID)
		if err != nil {
			return err
		}

		if reg.Status == models.StatusRegistered {
			promoted, err = vacateSeat(tx, reg, actor.ID)
			if err != nil {
				return err
			}
		}

		if err := tx.Delete(reg).Error; err != nil {
			return storeErr("delete registration", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// SetStatus applies a status change. Admins may perform any transition the
// state machine defines; everyone else may only cancel their own
// registration. Promoting waitlisted → registered fails with
// ErrCapacityExceeded while the event is full. Setting the current status
// again is a no-op, reported through the changed return value so callers can
// skip notifications. The promoted return value is the registration promoted
// as a side effect of a registered → cancelled change, if any.
func (c *Controller) SetStatus(ctx context.Context, registrationID uint, newStatus models.Status, actor *models.User) (updated, promoted *models.Registration, changed bool, err error) {
	if !newStatus.Valid() {
		return nil, nil, false, ErrInvalidTransition
	}

	reg, err := c.load(ctx, registrationID)
	if err != nil {
		return nil, nil, false, err
	}
	if !actor.IsAdmin() {
		if actor.ID != reg.UserID || newStatus != models.StatusCancelled {
			return nil, nil, false, ErrForbidden
		}
		wasCancelled := reg.Status == models.StatusCancelled
		promoted, err := c.Cancel(ctx, registrationID, actor)
		if err != nil {
			return nil, nil, false, err
		}
		reg, err = c.load(ctx, registrationID)
		return reg, promoted, !wasCancelled, err
	}

	unlock := c.lockEvent(reg.EventID)
	defer unlock()

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		promoted = nil
		changed = false
		reg, err := loadTx(tx, registrationID)
		if err != nil {
			return err
		}
		updated = reg

		if reg.Status == newStatus {
			return nil
		}
		if !reg.Status.CanTransitionTo(newStatus) {
			return ErrInvalidTransition
		}
		changed = true

		switch {
		case reg.Status == models.StatusWaitlisted && newStatus == models.StatusRegistered:
			var event models.Event
			if err := tx.First(&event, reg.EventID).Error; err != nil {
				return storeErr("load event", err)
			}
			if event.IsFull() {
				return ErrCapacityExceeded
			}
			if err := incrementCount(tx, reg.EventID, 1); err != nil {
				return err
			}
		case reg.Status == models.StatusRegistered && newStatus == models.StatusCancelled:
			promoted, err = vacateSeat(tx, reg, actor.ID)
			if err != nil {
				return err
			}
		}
		// registered → attended keeps the seat counted: the registered
		// count tallies non-cancelled seated registrations.

		return setStatus(tx, reg, actor.ID, newStatus)
	})
	if err != nil {
		return nil, nil, false, err
	}
	return updated, promoted, changed, nil
}

// load fetches a registration outside any transaction, mainly to learn its
// event id before taking the event lock. Mutating paths re-read it inside
// the transaction.
func (c *Controller) load(ctx context.Context, registrationID uint) (*models.Registration, error) {
	var reg models.Registration
	if err := c.db.WithContext(ctx).First(&reg, registrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, storeErr("load registration", err)
	}
	return &reg, nil
}

func loadTx(tx *gorm.DB, registrationID uint) (*models.Registration, error) {
	var reg models.Registration
	if err := tx.First(&reg, registrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, storeErr("load registration", err)
	}
	return &reg, nil
}

// vacateSeat releases reg's counted seat and hands it to the earliest
// waitlisted registration on the event, if one exists. The counter nets to
// its prior value when a promotion happens.
func vacateSeat(tx *gorm.DB, reg *models.Registration, actorID uint) (*models.Registration, error) {
	if err := incrementCount(tx, reg.EventID, -1); err != nil {
		return nil, err
	}

	var next models.Registration
	err := tx.Where("event_id = ? AND status = ?", reg.EventID, models.StatusWaitlisted).
		Order("registration_date ASC, id ASC").
		First(&next).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // empty waitlist, seat stays free
		}
		return nil, storeErr("find next waitlisted", err)
	}

	if err := setStatus(tx, &next, actorID, models.StatusRegistered); err != nil {
		return nil, err
	}
	if err := incrementCount(tx, reg.EventID, 1); err != nil {
		return nil, err
	}
	return &next, nil
}

func incrementCount(tx *gorm.DB, eventID uint, delta int) error {
	err := tx.Model(&models.Event{}).Where("id = ?", eventID).
		UpdateColumn("registered_count", gorm.Expr("registered_count + ?", delta)).Error
	if err != nil {
		return storeErr("update registered_count", err)
	}
	return nil
}

func setStatus(tx *gorm.DB, reg *models.Registration, actorID uint, newStatus models.Status) error {
	from := reg.Status
	reg.Status = newStatus
	if err := tx.Model(reg).Update("status", newStatus).Error; err != nil {
		return storeErr("update status", err)
	}
	return audit(tx, reg, actorID, from, newStatus)
}

func audit(tx *gorm.DB, reg *models.Registration, actorID uint, from, to models.Status) error {
	entry := models.RegistrationAudit{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		ActorID:        actorID,
		FromStatus:     from,
		ToStatus:       to,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return storeErr("write audit entry", err)
	}
	return nil
}
