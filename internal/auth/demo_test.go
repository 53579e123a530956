package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/controller/semaphore"
	"github.com/GoVCL/GoVCL/internal/db/models"
)

type countingUpdater struct{ calls []uint64 }

func (c *countingUpdater) UpdatePendingRequests(_ context.Context, userID uint64) error {
	c.calls = append(c.calls, userID)

	return nil
}

type demoFixture struct {
	db      *gorm.DB
	guard   *DemoGuard
	updater *countingUpdater
	now     time.Time
	demo    models.Group
	course  models.Group
	ncsu    models.Affiliation
}

func newDemoFixture(t *testing.T) *demoFixture {
	t.Helper()

	db := setupTestDB(t)
	global := mustAffiliation(t, db, "Global")

	demo := models.Group{Name: models.GroupDemo, AffiliationID: global.ID, Custom: true}
	require.NoError(t, db.Create(&demo).Error)

	course := models.Group{Name: "csc316", AffiliationID: global.ID}
	require.NoError(t, db.Create(&course).Error)

	f := &demoFixture{
		db:      db,
		updater: &countingUpdater{},
		now:     time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
		demo:    demo,
		course:  course,
		ncsu:    mustAffiliation(t, db, "ncsu"),
	}

	locker := semaphore.New(db).WithTimings(time.Minute, time.Second)
	f.guard = NewDemoGuard(db, locker, f.updater, "Global", "/")
	f.guard.now = func() time.Time { return f.now }

	return f
}

func (f *demoFixture) user(t *testing.T, name string, groups ...models.Group) *models.User {
	t.Helper()

	u := mustUser(t, f.db, name, f.ncsu)
	for _, g := range groups {
		require.NoError(t, f.db.Create(&models.UserGroupMember{UserID: u.ID, GroupID: g.ID}).Error)
	}

	return u
}

// reservation adds a reservation starting ago before now and lasting an hour.
func (f *demoFixture) reservation(t *testing.T, u *models.User, ago time.Duration) {
	t.Helper()

	start := f.now.Add(-ago)
	require.NoError(t, f.db.Create(&models.ReservationLog{UserID: u.ID, Start: start, FinalEnd: start.Add(time.Hour)}).Error)
}

func TestDemoGuardBoundary(t *testing.T) {
	ctx := context.Background()
	f := newDemoFixture(t)

	evicted := f.user(t, "alice", f.demo)
	f.reservation(t, evicted, 4*24*time.Hour)
	f.reservation(t, evicted, 3*24*time.Hour)
	f.reservation(t, evicted, 2*24*time.Hour)

	kept := f.user(t, "bob", f.demo)
	f.reservation(t, kept, 2*24*time.Hour)
	f.reservation(t, kept, 24*time.Hour)

	out, err := f.guard.Check(ctx, kept.ID, false)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = f.guard.Check(ctx, evicted.ID, false)
	require.NoError(t, err)
	assert.Equal(t, AccountExpiredPage(), out)

	groups, err := GroupNames(ctx, f.db, evicted.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.GroupNoDemo}, groups)

	var nodemo models.Group
	require.NoError(t, f.db.Preload("Affiliation").Where("name = ?", models.GroupNoDemo).First(&nodemo).Error)
	assert.Equal(t, "Global", nodemo.Affiliation.Name)

	assert.Equal(t, []uint64{evicted.ID}, f.updater.calls)

	var locks int64
	require.NoError(t, f.db.Model(&models.Semaphore{}).Count(&locks).Error)
	assert.Zero(t, locks, "eviction lock must be released")

	// evicted accounts are left alone afterwards
	out, err = f.guard.Check(ctx, evicted.ID, false)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDemoGuardTrip(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		starts   []time.Duration
		ongoing  bool
		expected bool
	}{
		{name: "no reservations", expected: false},
		{name: "one recent", starts: []time.Duration{2 * time.Hour}, expected: false},
		{name: "one older than three days", starts: []time.Duration{73 * time.Hour}, expected: true},
		{name: "three recent", starts: []time.Duration{3 * time.Hour, 5 * time.Hour, 7 * time.Hour}, expected: true},
		{name: "two recent", starts: []time.Duration{3 * time.Hour, 5 * time.Hour}, expected: false},
		{name: "old one still running", starts: []time.Duration{30 * time.Minute}, ongoing: true, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newDemoFixture(t)
			u := f.user(t, "carol", f.demo)

			for _, ago := range tc.starts {
				f.reservation(t, u, ago)
			}

			if tc.ongoing {
				start := f.now.Add(-5 * 24 * time.Hour)
				require.NoError(t, f.db.Create(&models.ReservationLog{UserID: u.ID, Start: start, FinalEnd: f.now.Add(time.Hour)}).Error)
			}

			got, err := f.guard.trialUsed(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDemoGuardOnlyDemo(t *testing.T) {
	ctx := context.Background()
	f := newDemoFixture(t)

	u := f.user(t, "dave", f.demo, f.course)
	f.reservation(t, u, 5*24*time.Hour)

	out, err := f.guard.Check(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Nil(t, out)

	groups, err := GroupNames(ctx, f.db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"csc316", models.GroupDemo}, groups)
}

func TestDemoGuardAPI(t *testing.T) {
	ctx := context.Background()
	f := newDemoFixture(t)

	u := f.user(t, "erin", f.demo)
	f.reservation(t, u, 4*24*time.Hour)

	out, err := f.guard.Check(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Equal(t, Redirect{URL: "/"}, out)

	groups, err := GroupNames(ctx, f.db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.GroupNoDemo}, groups)

	var locks int64
	require.NoError(t, f.db.Model(&models.Semaphore{}).Count(&locks).Error)
	assert.Zero(t, locks)
}

func TestDemoGuardLockBusy(t *testing.T) {
	ctx := context.Background()
	f := newDemoFixture(t)
	f.guard.locker = semaphore.New(f.db).WithTimings(time.Minute, 50*time.Millisecond)

	u := f.user(t, "frank", f.demo)
	f.reservation(t, u, 4*24*time.Hour)

	held, err := f.guard.locker.Acquire(ctx, evictLockName(u.ID))
	require.NoError(t, err)

	_, err = f.guard.Check(ctx, u.ID, false)
	require.ErrorIs(t, err, semaphore.ErrLockBusy)
	require.NoError(t, held.Release())

	groups, err := GroupNames(ctx, f.db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.GroupDemo}, groups)
}
