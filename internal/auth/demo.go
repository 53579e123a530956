package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoVCL/GoVCL/internal/db/controller/semaphore"
	"github.com/GoVCL/GoVCL/internal/db/models"
)

const (
	demoReservationLimit = 3
	demoMaxAge           = 72 * time.Hour
)

// PendingRequestUpdater propagates a membership change to the user's pending requests.
type PendingRequestUpdater interface {
	UpdatePendingRequests(ctx context.Context, userID uint64) error
}

// NoPendingRequests is a PendingRequestUpdater for deployments without a request queue.
type NoPendingRequests struct{}

// UpdatePendingRequests does nothing.
func (NoPendingRequests) UpdatePendingRequests(context.Context, uint64) error { return nil }

// DemoGuard moves demo accounts that used up their trial to the nodemo group.
type DemoGuard struct {
	db                *gorm.DB
	locker            *semaphore.Locker
	updater           PendingRequestUpdater
	noDemoAffiliation string
	entryPoint        string
	now               func() time.Time
}

// NewDemoGuard creates a new guard. updater may be nil.
func NewDemoGuard(db *gorm.DB, locker *semaphore.Locker, updater PendingRequestUpdater, noDemoAffiliation, entryPoint string) *DemoGuard {
	registerMetrics()

	if updater == nil {
		updater = NoPendingRequests{}
	}

	if entryPoint == "" {
		entryPoint = "/"
	}

	return &DemoGuard{
		db:                db,
		locker:            locker,
		updater:           updater,
		noDemoAffiliation: noDemoAffiliation,
		entryPoint:        entryPoint,
		now:               time.Now,
	}
}

// Check returns nil when the request of userID may proceed. An evicted
// account gets the account expired page, or for api requests a redirect
// to the entry point where the page is shown on the next load.
func (g *DemoGuard) Check(ctx context.Context, userID uint64, api bool) (Outcome, error) {
	demo, err := g.demoOnly(ctx, g.db, userID)
	if err != nil || !demo {
		return nil, err
	}

	expired, err := g.trialUsed(ctx, userID)
	if err != nil || !expired {
		return nil, err
	}

	if err = g.evict(ctx, userID); err != nil {
		return nil, err
	}

	if api {
		return Redirect{URL: g.entryPoint}, nil
	}

	return AccountExpiredPage(), nil
}

// AccountExpiredPage is the notice shown to evicted demo accounts.
func AccountExpiredPage() RenderPage {
	return RenderPage{Page: PageAccountExpired, Data: map[string]any{"Group": models.GroupNoDemo}}
}

// demoOnly reports whether the only group of userID is demo.
func (g *DemoGuard) demoOnly(ctx context.Context, db *gorm.DB, userID uint64) (bool, error) {
	names, err := GroupNames(ctx, db, userID)
	if err != nil {
		return false, err
	}

	return len(names) == 1 && names[0] == models.GroupDemo, nil
}

// trialUsed looks at the earliest completed reservations. The trial is over
// once three are completed or the first one started more than three days ago.
func (g *DemoGuard) trialUsed(ctx context.Context, userID uint64) (bool, error) {
	now := g.now()

	var rows []models.ReservationLog

	if err := g.db.WithContext(ctx).
		Where("user_id = ? AND final_end < ?", userID, now).
		Order("start ASC").
		Limit(demoReservationLimit).
		Find(&rows).Error; err != nil {
		return false, fmt.Errorf("completed reservations of user %d: %w", userID, err)
	}

	if len(rows) == 0 {
		return false, nil
	}

	return len(rows) == demoReservationLimit || rows[0].Start.Before(now.Add(-demoMaxAge)), nil
}

func evictLockName(userID uint64) string {
	return "demo.evict." + strconv.FormatUint(userID, 10)
}

func (g *DemoGuard) evict(ctx context.Context, userID uint64) error {
	lock, err := g.locker.Acquire(ctx, evictLockName(userID))
	if err != nil {
		return err
	}

	defer func() {
		if errRelease := lock.Release(); errRelease != nil {
			log.Error().Err(errRelease).Uint64("user_id", userID).Msg("failed to release demo eviction lock")
		}
	}()

	evicted := false

	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// a concurrent request may have been first
		demo, errCheck := g.demoOnly(ctx, tx, userID)
		if errCheck != nil || !demo {
			return errCheck
		}

		custom := tx.Model(&models.Group{}).Select("id").Where("custom = ?", true)
		if errDel := tx.Where("user_id = ? AND group_id IN (?)", userID, custom).
			Delete(&models.UserGroupMember{}).Error; errDel != nil {
			return fmt.Errorf("remove custom memberships: %w", errDel)
		}

		aff, errAff := EnsureAffiliation(ctx, tx, g.noDemoAffiliation)
		if errAff != nil {
			return errAff
		}

		group := models.Group{}
		if errGroup := tx.Where(models.Group{Name: models.GroupNoDemo, AffiliationID: aff.ID}).
			Attrs(models.Group{Custom: true, CreatedAt: g.now()}).
			FirstOrCreate(&group).Error; errGroup != nil {
			return fmt.Errorf("ensure %s group: %w", models.GroupNoDemo, errGroup)
		}

		if errAdd := tx.Omit("User", "Group").Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserGroupMember{UserID: userID, GroupID: group.ID, CreatedAt: g.now()}).Error; errAdd != nil {
			return fmt.Errorf("add %s membership: %w", models.GroupNoDemo, errAdd)
		}

		evicted = true

		return nil
	})
	if err != nil {
		return fmt.Errorf("evict demo user %d: %w", userID, err)
	}

	if !evicted {
		return nil
	}

	demoEvictions.Inc()
	log.Info().Uint64("user_id", userID).Msg("demo account expired")

	if err = g.updater.UpdatePendingRequests(ctx, userID); err != nil {
		return fmt.Errorf("update pending requests of user %d: %w", userID, err)
	}

	return nil
}
