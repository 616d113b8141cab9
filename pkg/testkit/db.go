// Package testkit holds helpers shared by package tests: a migrated in-memory
// database, a scripted HTTP transport and JSON assertions.
package testkit

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	_ "github.com/shashiranjanraj/diner/database/migrations"
	"github.com/shashiranjanraj/diner/pkg/database"
	"github.com/shashiranjanraj/diner/pkg/migration"
)

// NewDB opens a private in-memory sqlite database with every registered
// migration applied. It is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Open(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err, "testkit: open sqlite")
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, migration.New(db, io.Discard).Run(), "testkit: migrate")
	return db
}
