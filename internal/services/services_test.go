package services

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
)

// newServiceDB opens a migrated temp-file SQLite handle for service tests.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "services.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if h, err := db.DB(); err == nil {
			_ = h.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Conversation{}, &domain.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
