package testutil

import (
	"testing"

	"github.com/harborwell/shipstock/cache"
	"github.com/harborwell/shipstock/config"
	dbadapter "github.com/harborwell/shipstock/db"
	"github.com/harborwell/shipstock/model"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SetupTestDB creates an in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a process-local cache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{})
	require.NoError(t, err, "SetupTestCache: NewCache")
	return c
}

// CreateUser inserts a user with a bcrypt-hashed password and returns it.
func CreateUser(t *testing.T, db *gorm.DB, username, password, role string, shipID *int64) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err, "CreateUser: bcrypt")
	u := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Name:         username,
		Role:         role,
		ShipID:       shipID,
		Status:       1,
	}
	require.NoError(t, db.Create(u).Error, "CreateUser: insert")
	return u
}

// CreateShip inserts a ship master-data row.
func CreateShip(t *testing.T, db *gorm.DB, name string) *model.Ship {
	t.Helper()
	s := &model.Ship{Name: name}
	require.NoError(t, db.Create(s).Error, "CreateShip: insert")
	return s
}

// CreateItem inserts a category (if needed) and an item under it.
func CreateItem(t *testing.T, db *gorm.DB, categoryName, itemName string) *model.Item {
	t.Helper()
	var cat model.Category
	err := db.Where("name = ?", categoryName).First(&cat).Error
	if err != nil {
		cat = model.Category{Name: categoryName}
		require.NoError(t, db.Create(&cat).Error, "CreateItem: category")
	}
	it := &model.Item{Name: itemName, CategoryID: cat.ID, Unit: "pcs"}
	require.NoError(t, db.Create(it).Error, "CreateItem: insert")
	return it
}
