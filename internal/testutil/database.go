package testutil

import (
	"fmt"
	"strings"
	"testing"

	"invoicing-agent-be/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database private to the test.
// One connection keeps the shared-cache database from reporting table locks
// while a transaction is open.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func SeedClient(t *testing.T, db *gorm.DB, workspaceId uint, name, email string) *model.Client {
	t.Helper()
	c := &model.Client{WorkspaceId: workspaceId, Name: name, Email: email, Phone: "555-0100", Address: "1 Main St"}
	require.NoError(t, db.Create(c).Error)
	return c
}

func SeedBusiness(t *testing.T, db *gorm.DB, b *model.Business) *model.Business {
	t.Helper()
	if b.DefaultTaxMode == "" {
		b.DefaultTaxMode = "NONE"
	}
	require.NoError(t, db.Create(b).Error)
	return b
}
