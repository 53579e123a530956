package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

var (
	testKeysOnce sync.Once //nolint:gochecknoglobals
	testKeys     *KeyPair  //nolint:gochecknoglobals
	otherKeys    *KeyPair  //nolint:gochecknoglobals
)

// keys returns two key pairs shared by all tests of the package.
func keys(t *testing.T) (*KeyPair, *KeyPair) {
	t.Helper()

	testKeysOnce.Do(func() {
		var err error

		testKeys, err = GenerateKeyPair(MinKeyBits)
		if err != nil {
			panic(err)
		}

		otherKeys, err = GenerateKeyPair(MinKeyBits)
		if err != nil {
			panic(err)
		}
	})

	return testKeys, otherKeys
}

// setupTestDB creates a migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	return db
}

func mustAffiliation(t *testing.T, db *gorm.DB, name string) models.Affiliation {
	t.Helper()

	aff, err := EnsureAffiliation(context.Background(), db, name)
	require.NoError(t, err)

	return *aff
}

func mustUser(t *testing.T, db *gorm.DB, unityID string, aff models.Affiliation) *models.User {
	t.Helper()

	user, err := UpsertUser(context.Background(), db, unityID, aff, Profile{FirstName: unityID}, time.Now())
	require.NoError(t, err)

	return user
}

func loginLogs(t *testing.T, db *gorm.DB) []models.LoginLog {
	t.Helper()

	var rows []models.LoginLog
	require.NoError(t, db.Order("id").Find(&rows).Error)

	return rows
}

type fakeSessions map[uint64]bool

func (f fakeSessions) ShibSessionExists(_ context.Context, id uint64) (bool, error) {
	return f[id], nil
}
