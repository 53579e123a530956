// Package semaphore implements named advisory locks on top of the semaphores table.
package semaphore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

const (
	// DefaultTTL is how long a lock survives a crashed holder.
	DefaultTTL = 30 * time.Second

	// DefaultWait bounds how long Acquire retries.
	DefaultWait = 10 * time.Second
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrLockBusy is returned when the lock could not be taken before the wait ran out.
	ErrLockBusy = errors.New("semaphore is held by someone else")
	// ErrNotHeld is returned when releasing a lock the caller does not hold.
	ErrNotHeld = errors.New("semaphore is not held by this owner")
)

// Locker hands out Locks.
type Locker struct {
	db   *gorm.DB
	ttl  time.Duration
	wait time.Duration
	now  func() time.Time
}

// Lock is a held semaphore.
type Lock struct {
	locker *Locker
	name   string
	owner  string
}

// New returns a Locker using the default ttl and wait.
func New(db *gorm.DB) *Locker {
	return &Locker{db: db, ttl: DefaultTTL, wait: DefaultWait, now: time.Now}
}

// WithTimings returns a copy of l with a custom ttl and wait.
func (l *Locker) WithTimings(ttl, wait time.Duration) *Locker {
	c := *l
	c.ttl = ttl
	c.wait = wait

	return &c
}

// Acquire takes the lock called name, retrying with exponential backoff until
// the wait runs out or ctx is done.
func (l *Locker) Acquire(ctx context.Context, name string) (*Lock, error) {
	if l == nil || l.db == nil {
		return nil, ErrDBNil
	}

	owner := uuid.NewString()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond //nolint:mnd
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = l.wait

	err := backoff.Retry(func() error {
		ok, err := l.tryAcquire(ctx, name, owner)
		if err != nil {
			return backoff.Permanent(err)
		}

		if !ok {
			return ErrLockBusy
		}

		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("acquire semaphore %q: %w", name, err)
	}

	log.Trace().Str("semaphore", name).Str("owner", owner).Msg("semaphore acquired")

	return &Lock{locker: l, name: name, owner: owner}, nil
}

func (l *Locker) tryAcquire(ctx context.Context, name, owner string) (bool, error) {
	now := l.now()
	db := l.db.WithContext(ctx)

	// take over an abandoned lock
	if err := db.Where("name = ? AND expires_at < ?", name, now).
		Delete(&models.Semaphore{}).Error; err != nil {
		return false, err
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Semaphore{
		Name:      name,
		Owner:     owner,
		ExpiresAt: now.Add(l.ttl),
	})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Name returns the lock name.
func (k *Lock) Name() string {
	return k.name
}

// Release gives the lock back. It uses its own context so a cancelled
// request still releases.
func (k *Lock) Release() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
	defer cancel()

	result := k.locker.db.WithContext(ctx).
		Where("name = ? AND owner = ?", k.name, k.owner).
		Delete(&models.Semaphore{})
	if result.Error != nil {
		return fmt.Errorf("release semaphore %q: %w", k.name, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("release semaphore %q: %w", k.name, ErrNotHeld)
	}

	log.Trace().Str("semaphore", k.name).Str("owner", k.owner).Msg("semaphore released")

	return nil
}

// Held reports whether a live lock called name exists.
func (l *Locker) Held(ctx context.Context, name string) (bool, error) {
	var count int64

	err := l.db.WithContext(ctx).Model(&models.Semaphore{}).
		Where("name = ? AND expires_at >= ?", name, l.now()).
		Count(&count).Error

	return count > 0, err
}
