package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateConversation_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	c, err := CreateConversation(context.Background(), db, "t", time.Time{})
	if err == nil || c != nil {
		t.Fatalf("expected error creating without table, got conv=%v err=%v", c, err)
	}
}

func TestCreateConversation_Success_SetsFields(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})

	start := time.Now().UTC().Add(-time.Minute)
	c, err := CreateConversation(context.Background(), db, "My Conversation", time.Time{})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if c.ID == "" || c.Title != "My Conversation" || c.MessageCount != 0 {
		t.Fatalf("unexpected Conversation fields: %+v", c)
	}
	if c.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", c.CreatedAt)
	}
	// round-trip
	var got domain.Conversation
	if err := db.First(&got, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("load created conversation: %v", err)
	}
	if got.Title != "My Conversation" || got.MessageCount != 0 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateConversationWithID_DuplicateFails(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if _, err := CreateConversationWithID(context.Background(), db, "fixed", "a", at); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := CreateConversationWithID(context.Background(), db, "fixed", "b", at); err == nil {
		t.Fatalf("expected constraint error on duplicate id")
	}
}

func TestGetConversation_FoundAndNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})

	if _, err := GetConversation(context.Background(), db, "nope"); err == nil {
		t.Fatalf("expected ErrRecordNotFound for missing conversation")
	}

	c := &domain.Conversation{ID: "cid", Title: "x"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := GetConversation(context.Background(), db, "cid")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got.ID != "cid" || got.Title != "x" {
		t.Fatalf("unexpected conversation: %+v", got)
	}
}

func TestListConversations_OrderDescending(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})

	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) // oldest
	t2 := t1.Add(1 * time.Hour)
	t3 := t2.Add(1 * time.Hour) // newest
	for _, c := range []domain.Conversation{
		{ID: "c1", Title: "A", CreatedAt: t1},
		{ID: "c2", Title: "B", CreatedAt: t2},
		{ID: "c3", Title: "C", CreatedAt: t3},
	} {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	list, err := ListConversations(context.Background(), db)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(list))
	}
	if list[0].ID != "c3" || list[1].ID != "c2" || list[2].ID != "c1" {
		t.Fatalf("unexpected order: %#v", list)
	}
}

func TestCountConversations(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})
	for _, id := range []string{"a", "b", "c"} {
		if err := db.Create(&domain.Conversation{ID: id, Title: "t"}).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	total, err := CountConversations(context.Background(), db)
	if err != nil {
		t.Fatalf("CountConversations: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3, got %d", total)
	}
}

func TestUpdateConversationMeta_SuccessAndNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})

	orig := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	if err := db.Create(&domain.Conversation{ID: "c1", Title: "old", CreatedAt: orig}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	at := orig.Add(24 * time.Hour)
	if err := UpdateConversationMeta(context.Background(), db, "c1", "new", at); err != nil {
		t.Fatalf("UpdateConversationMeta: %v", err)
	}
	var got domain.Conversation
	if err := db.First(&got, "id = ?", "c1").Error; err != nil {
		t.Fatalf("load updated: %v", err)
	}
	if got.Title != "new" || !got.CreatedAt.Equal(at) {
		t.Fatalf("unexpected row after update: %+v", got)
	}

	if err := UpdateConversationMeta(context.Background(), db, "missing", "x", at); err == nil {
		t.Fatalf("expected ErrRecordNotFound when id missing")
	}
}

func TestSetMessageCount(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})
	if err := db.Create(&domain.Conversation{ID: "c1", Title: "t", MessageCount: 99}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := SetMessageCount(context.Background(), db, "c1", 2); err != nil {
		t.Fatalf("SetMessageCount: %v", err)
	}
	var got domain.Conversation
	if err := db.First(&got, "id = ?", "c1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MessageCount != 2 {
		t.Fatalf("expected corrected count 2, got %d", got.MessageCount)
	}
}

func TestDeleteConversationCascade_RemovesMessages(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{}, &domain.Message{})

	if err := db.Create(&domain.Conversation{ID: "c1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed conv: %v", err)
	}
	for i, id := range []string{"m1", "m2"} {
		m := domain.Message{ID: id, ConversationID: "c1", Role: domain.RoleUser, Content: fmt.Sprintf("msg %d", i)}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed msg %s: %v", id, err)
		}
	}
	// Message in another conversation must survive.
	if err := db.Create(&domain.Message{ID: "mx", ConversationID: "c2", Role: domain.RoleUser, Content: "keep"}).Error; err != nil {
		t.Fatalf("seed mx: %v", err)
	}

	if err := DeleteConversationCascade(context.Background(), db, "c1"); err != nil {
		t.Fatalf("DeleteConversationCascade: %v", err)
	}

	var convCount, msgCount int64
	db.Model(&domain.Conversation{}).Count(&convCount)
	db.Model(&domain.Message{}).Where("conversation_id = ?", "c1").Count(&msgCount)
	if convCount != 0 || msgCount != 0 {
		t.Fatalf("expected full cascade, convs=%d msgs=%d", convCount, msgCount)
	}
	var kept int64
	db.Model(&domain.Message{}).Where("conversation_id = ?", "c2").Count(&kept)
	if kept != 1 {
		t.Fatalf("unrelated message deleted")
	}
}

func TestDeleteConversationCascade_MissingIDIsNoop(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{}, &domain.Message{})
	if err := DeleteConversationCascade(context.Background(), db, "ghost"); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
}
