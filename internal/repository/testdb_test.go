package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-chat/pkg/database"
)

// newTestDB opens a private in-memory sqlite database with the chat schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, Models()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
