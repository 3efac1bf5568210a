package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/tripquest/internal/database"
	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/progress"
	"github.com/dukerupert/tripquest/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3Client) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

type testEnv struct {
	manager  *Manager
	s3       *mockS3Client
	progress *progress.Store
	backups  *store.BackupStore
	settings *store.SettingsStore
	statuses []Status
	mu       sync.Mutex
}

func (e *testEnv) received() []Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Status(nil), e.statuses...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupManager(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		s3:       newMockS3(),
		backups:  store.NewBackupStore(db),
		settings: store.NewSettingsStore(db),
	}
	env.progress = progress.New(store.NewSlotStore(db), discardLogger(), progress.Options{
		Known: func(id string) bool { return !strings.HasPrefix(id, "stale-") },
	})

	cb := func(s Status) {
		env.mu.Lock()
		env.statuses = append(env.statuses, s)
		env.mu.Unlock()
	}
	m := NewManager(S3Config{}, env.progress, env.backups, env.settings, discardLogger(), cb)
	m.client = env.s3
	m.status.State = StateIdle
	env.manager = m
	return env
}

func TestManagerStateLifecycle(t *testing.T) {
	m := NewManager(S3Config{}, nil, nil, nil, discardLogger(), nil)
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	m2 := NewManager(S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"}, nil, nil, nil, discardLogger(), nil)
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestDisabledManagerRefuses(t *testing.T) {
	m := NewManager(S3Config{}, nil, nil, nil, discardLogger(), nil)

	if _, err := m.RunNow(context.Background(), "pass"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("RunNow error = %v, want ErrNotConfigured", err)
	}
	if _, err := m.Restore(context.Background(), 1, "pass"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Restore error = %v, want ErrNotConfigured", err)
	}
	if err := m.Cleanup(context.Background(), 30); err != nil {
		t.Errorf("Cleanup on disabled manager = %v, want nil", err)
	}
}

func TestRunNowAndRestore(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()

	env.progress.Toggle("acc-zakopane")
	env.progress.Toggle("doc-insurance")

	rec, err := env.manager.RunNow(ctx, "correct horse")
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if rec.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", rec.Status)
	}
	if rec.ItemCount != 2 {
		t.Errorf("item_count = %d, want 2", rec.ItemCount)
	}
	if !strings.HasPrefix(rec.ObjectKey, "backups/") || !strings.HasSuffix(rec.ObjectKey, ".json.enc") {
		t.Errorf("object key = %q", rec.ObjectKey)
	}
	if keys := env.s3.keys(); len(keys) != 1 || keys[0] != rec.ObjectKey {
		t.Errorf("uploaded keys = %v", keys)
	}

	settings, _ := env.settings.GetBackupSettings()
	if len(settings["backup_passphrase_salt"]) != saltSize*2 {
		t.Errorf("salt not stored: %q", settings["backup_passphrase_salt"])
	}

	statuses := env.received()
	if len(statuses) != 2 || statuses[0].State != StateRunning || statuses[1].State != StateIdle || statuses[1].LastBackup == nil {
		t.Errorf("status transitions = %+v", statuses)
	}

	env.progress.Toggle("acc-zakopane")
	env.progress.Toggle("snow-lessons")

	restored, err := env.manager.Restore(ctx, rec.ID, "correct horse")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	want := progress.NewSet("acc-zakopane", "doc-insurance")
	if !restored.Equal(want) {
		t.Errorf("restored = %v, want %v", restored.Sorted(), want.Sorted())
	}
	if !env.progress.Load().Equal(want) {
		t.Errorf("persisted after restore = %v", env.progress.Load().Sorted())
	}
}

func TestRestoreSaveFailureKeepsSet(t *testing.T) {
	env := setupManager(t)
	storage := progress.NewMemoryStorage()
	ps := progress.New(storage, discardLogger(), progress.Options{})
	m := NewManager(S3Config{}, ps, env.backups, env.settings, discardLogger(), nil)
	m.client = env.s3
	m.status.State = StateIdle
	ctx := context.Background()

	ps.Toggle("a")
	ps.Toggle("b")
	rec, err := m.RunNow(ctx, "pw")
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if err := ps.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	storage.SetErr(errors.New("quota exceeded"))
	restored, err := m.Restore(ctx, rec.ID, "pw")
	if !errors.Is(err, progress.ErrStorageUnavailable) {
		t.Fatalf("restore err = %v, want ErrStorageUnavailable", err)
	}
	want := progress.NewSet("a", "b")
	if !restored.Equal(want) {
		t.Errorf("restored = %v, want %v", restored.Sorted(), want.Sorted())
	}
	if !ps.Current().Equal(want) {
		t.Errorf("live set = %v, want %v", ps.Current().Sorted(), want.Sorted())
	}
}

func TestRestoreWrongPassphrase(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()
	env.progress.Toggle("a")

	rec, err := env.manager.RunNow(ctx, "right")
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	env.progress.Toggle("b")

	if _, err := env.manager.Restore(ctx, rec.ID, "wrong"); !errors.Is(err, ErrDecrypt) {
		t.Errorf("error = %v, want ErrDecrypt", err)
	}
	if !env.progress.Current().Equal(progress.NewSet("a", "b")) {
		t.Error("failed restore modified live progress")
	}
}

func TestRestoreVersionMismatch(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()

	salt := []byte("1234567890abcdef")
	sealed, _ := Seal([]byte(`{"version":"0.1.0","checkedItems":["a"]}`), "pass", salt)
	rec, _ := env.backups.Create(progress.ChecklistKey, "old.json.enc", "backups/old.json.enc")
	env.backups.UpdateCompleted(rec.ID, int64(len(sealed)), 1)
	env.s3.objects["backups/old.json.enc"] = sealed

	if _, err := env.manager.Restore(ctx, rec.ID, "pass"); !errors.Is(err, progress.ErrSchemaVersionMismatch) {
		t.Errorf("error = %v, want ErrSchemaVersionMismatch", err)
	}
}

func TestRestoreDropsStaleIDs(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()

	salt := []byte("1234567890abcdef")
	sealed, _ := Seal([]byte(`{"version":"1.0.0","checkedItems":["a","stale-1"]}`), "pass", salt)
	rec, _ := env.backups.Create(progress.ChecklistKey, "x.json.enc", "backups/x.json.enc")
	env.backups.UpdateCompleted(rec.ID, int64(len(sealed)), 2)
	env.s3.objects["backups/x.json.enc"] = sealed

	got, err := env.manager.Restore(ctx, rec.ID, "pass")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !got.Equal(progress.NewSet("a")) {
		t.Errorf("restored = %v, want [a]", got.Sorted())
	}
}

func TestRestoreMissing(t *testing.T) {
	env := setupManager(t)
	if _, err := env.manager.Restore(context.Background(), 42, "pass"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRunNowUploadFailure(t *testing.T) {
	env := setupManager(t)
	env.s3.putErr = errors.New("bucket gone")

	if _, err := env.manager.RunNow(context.Background(), "pass"); err == nil {
		t.Fatal("expected error")
	}
	if got := env.manager.Status(); got.State != StateError || got.InProgress {
		t.Errorf("status = %+v, want error state", got)
	}

	list, _ := env.manager.List(10)
	if len(list) != 1 || list[0].Status != model.BackupStatusFailed || list[0].ErrorMessage != "bucket gone" {
		t.Errorf("records = %+v", list)
	}
}

func TestRunNowRequiresPassphrase(t *testing.T) {
	env := setupManager(t)
	if _, err := env.manager.RunNow(context.Background(), ""); err == nil {
		t.Error("expected error for empty passphrase")
	}
}

func TestCleanup(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()

	rec, err := env.manager.RunNow(ctx, "pass")
	if err != nil {
		t.Fatalf("run now: %v", err)
	}

	if err := env.manager.Cleanup(ctx, 30); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if len(env.s3.keys()) != 1 {
		t.Fatal("fresh backup removed by cleanup")
	}

	env.manager.now = func() time.Time { return time.Now().AddDate(0, 0, 31) }
	if err := env.manager.Cleanup(ctx, 30); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if keys := env.s3.keys(); len(keys) != 0 {
		t.Errorf("objects after cleanup = %v", keys)
	}
	if got, _ := env.backups.GetByID(rec.ID); got != nil {
		t.Error("record survived cleanup")
	}
}

func TestRetentionDaysFromSettings(t *testing.T) {
	env := setupManager(t)
	if got := env.manager.retentionDays(); got != 30 {
		t.Errorf("default retention = %d, want 30", got)
	}
	env.settings.Set("backup_retention_days", "7")
	if got := env.manager.retentionDays(); got != 7 {
		t.Errorf("retention = %d, want 7", got)
	}
	env.settings.Set("backup_retention_days", "soon")
	if got := env.manager.retentionDays(); got != DefaultRetentionDays {
		t.Errorf("invalid retention = %d, want default", got)
	}
}

func TestManagerStopSafety(t *testing.T) {
	env := setupManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	env.manager.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	env.manager.Stop()

	// Double stop should not panic
	env.manager.Stop()
}

func TestNewManagerSeedsLastBackup(t *testing.T) {
	env := setupManager(t)
	if _, err := env.manager.RunNow(context.Background(), "pass"); err != nil {
		t.Fatalf("run now: %v", err)
	}

	m := NewManager(S3Config{}, env.progress, env.backups, env.settings, discardLogger(), nil)
	if m.Status().LastBackup == nil {
		t.Error("restarted manager should report the last completed backup")
	}
}
