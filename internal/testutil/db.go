// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/social-media/social-backend/internal/models"
	"github.com/social-media/social-backend/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// NewTestDB opens a private shared-cache sqlite database and migrates the schema.
func NewTestDB(t *testing.T) *repository.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database := &repository.Database{DB: db}
	require.NoError(t, database.AutoMigrate())

	t.Cleanup(func() { _ = database.Close() })
	return database
}

// CreateUser inserts a user row directly, skipping password hashing.
func CreateUser(t *testing.T, db *repository.Database, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-hash",
		FullName: username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
