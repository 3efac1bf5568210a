package store

import (
	"testing"
	"time"

	"github.com/dukerupert/tripquest/internal/model"
)

func setupBackupTestDB(t *testing.T) *BackupStore {
	t.Helper()
	return NewBackupStore(setupTestDB(t))
}

func TestBackupCreate(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, err := bs.Create("zakopane-checklist", "20251201T090000Z.json.enc", "backups/20251201T090000Z.json.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.Slot != "zakopane-checklist" {
		t.Errorf("slot = %q", b.Slot)
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusPending)
	}

	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ObjectKey != "backups/20251201T090000Z.json.enc" {
		t.Errorf("GetByID = %+v", got)
	}
}

func TestBackupGetMissing(t *testing.T) {
	bs := setupBackupTestDB(t)

	got, err := bs.GetByID(999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestBackupUpdateStatus(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, _ := bs.Create("s", "test.json.enc", "backups/test.json.enc")

	if err := bs.UpdateStatus(b.ID, model.BackupStatusUploading, ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := bs.GetByID(b.ID)
	if got.Status != model.BackupStatusUploading {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusUploading)
	}

	if err := bs.UpdateStatus(b.ID, model.BackupStatusFailed, "upload failed"); err != nil {
		t.Fatalf("update status with error: %v", err)
	}
	got, _ = bs.GetByID(b.ID)
	if got.Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusFailed)
	}
	if got.ErrorMessage != "upload failed" {
		t.Errorf("error_message = %q, want %q", got.ErrorMessage, "upload failed")
	}
}

func TestBackupUpdateCompleted(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, _ := bs.Create("s", "test.json.enc", "backups/test.json.enc")

	if err := bs.UpdateCompleted(b.ID, 2048, 7); err != nil {
		t.Fatalf("update completed: %v", err)
	}

	got, _ := bs.GetByID(b.ID)
	if got.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusCompleted)
	}
	if got.SizeBytes != 2048 || got.ItemCount != 7 {
		t.Errorf("size_bytes = %d, item_count = %d", got.SizeBytes, got.ItemCount)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestBackupListOrderAndLimit(t *testing.T) {
	bs := setupBackupTestDB(t)

	bs.Create("s", "first.json.enc", "backups/first.json.enc")
	time.Sleep(10 * time.Millisecond)
	bs.Create("s", "second.json.enc", "backups/second.json.enc")
	time.Sleep(10 * time.Millisecond)
	bs.Create("s", "third.json.enc", "backups/third.json.enc")

	all, err := bs.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Filename != "third.json.enc" {
		t.Errorf("first entry = %q, want %q", all[0].Filename, "third.json.enc")
	}

	limited, err := bs.List(2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len = %d, want 2", len(limited))
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	bs := setupBackupTestDB(t)

	bs.Create("s", "old.json.enc", "backups/old.json.enc")
	time.Sleep(50 * time.Millisecond)
	cutoff := time.Now().UTC()
	time.Sleep(50 * time.Millisecond)
	bs.Create("s", "new.json.enc", "backups/new.json.enc")

	keys, err := bs.DeleteOlderThan(cutoff)
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 1 || keys[0] != "backups/old.json.enc" {
		t.Fatalf("deleted keys = %v", keys)
	}

	remaining, _ := bs.List(10)
	if len(remaining) != 1 || remaining[0].Filename != "new.json.enc" {
		t.Errorf("remaining = %+v", remaining)
	}
}

func TestBackupLatestCompleted(t *testing.T) {
	bs := setupBackupTestDB(t)

	if latest, err := bs.LatestCompleted(); err != nil || latest != nil {
		t.Fatalf("empty table: %+v, %v", latest, err)
	}

	b1, _ := bs.Create("s", "first.json.enc", "backups/first.json.enc")
	bs.UpdateCompleted(b1.ID, 100, 1)
	time.Sleep(10 * time.Millisecond)
	b2, _ := bs.Create("s", "second.json.enc", "backups/second.json.enc")
	bs.UpdateCompleted(b2.ID, 200, 2)

	b3, _ := bs.Create("s", "failed.json.enc", "backups/failed.json.enc")
	bs.UpdateStatus(b3.ID, model.BackupStatusFailed, "error")

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest == nil || latest.Filename != "second.json.enc" {
		t.Errorf("latest = %+v", latest)
	}
}
