package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/redis/go-redis/v9"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// docFor builds a minimal save document whose header matches info.
func docFor(info storage.SaveInfo) storage.Document {
	return func(name string) ([]byte, error) {
		return []byte(fmt.Sprintf(`{"version":%q,"save_name":%q,"timestamp":%q,"player":{"name":%q}}`,
			info.Version, name, info.SavedAt.Format(time.RFC3339Nano), info.CharacterName)), nil
	}
}

// testSaveStore runs the behavior every backend shares.
func testSaveStore(t *testing.T, store storage.SaveStore) {
	t.Helper()
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	older := storage.SaveInfo{CharacterName: "Ann", SavedAt: fixedNow.Add(-time.Hour), Version: "2.0"}
	newer := storage.SaveInfo{CharacterName: "Ann", SavedAt: fixedNow, Version: "2.0"}
	doc := docFor(newer)

	name, err := store.Save(ctx, "hero", docFor(older), older)
	if err != nil || name != "hero" {
		t.Fatalf("Save() = %q, %v", name, err)
	}
	name, err = store.Save(ctx, "hero.json", doc, newer)
	if err != nil || name != "hero_1" {
		t.Fatalf("second Save() = %q, %v; want hero_1", name, err)
	}
	name, err = store.Save(ctx, "", doc, newer)
	if err != nil || name != "save_1714564800" {
		t.Fatalf("automatic Save() = %q, %v", name, err)
	}
	if _, err := store.Save(ctx, "!!!", doc, newer); !errors.Is(err, storage.ErrInvalidSaveName) {
		t.Errorf("expected ErrInvalidSaveName, got %v", err)
	}

	data, err := store.Load(ctx, "hero.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !json.Valid(data) || !bytes.Contains(data, []byte(`"Ann"`)) {
		t.Errorf("Load returned %q", data)
	}
	data, err = store.Load(ctx, "hero_1")
	if err != nil || !bytes.Contains(data, []byte(`"save_name":"hero_1"`)) {
		t.Errorf("hero_1 should carry its stored name, got %q, %v", data, err)
	}
	if _, err := store.Load(ctx, "nobody"); !errors.Is(err, storage.ErrSaveNotFound) {
		t.Errorf("expected ErrSaveNotFound, got %v", err)
	}

	saves, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(saves) != 3 {
		t.Fatalf("List() returned %d saves, want 3", len(saves))
	}
	if saves[len(saves)-1].Name != "hero" {
		t.Errorf("oldest save should be last, got %+v", saves)
	}
	for _, s := range saves {
		if s.CharacterName != "Ann" {
			t.Errorf("save %s has character %q", s.Name, s.CharacterName)
		}
	}

	if err := store.Delete(ctx, "hero"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "hero"); !errors.Is(err, storage.ErrSaveNotFound) {
		t.Errorf("second Delete should report not found, got %v", err)
	}
	if _, err := store.Load(ctx, "hero"); !errors.Is(err, storage.ErrSaveNotFound) {
		t.Errorf("deleted save still loads: %v", err)
	}
	saves, err = store.List(ctx)
	if err != nil || len(saves) != 2 {
		t.Errorf("List after delete = %d saves, %v", len(saves), err)
	}

	// a freed name is reused
	name, err = store.Save(ctx, "hero", doc, newer)
	if err != nil || name != "hero" {
		t.Errorf("Save after delete = %q, %v", name, err)
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "saves"), quietLogger())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	store.now = func() time.Time { return fixedNow }
	testSaveStore(t, store)
}

func TestFileStore_ListSkipsJunk(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, quietLogger())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	files := map[string]string{
		"broken.json": `{oops`,
		"notes.txt":   `hello`,
		"legacy.json": `{"player":{"name":"Old Timer"},"save_metadata":{"timestamp":1704164645.123456,"version":"1.0"}}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	saves, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(saves) != 1 {
		t.Fatalf("List() = %+v, want only the legacy save", saves)
	}
	got := saves[0]
	if got.Name != "legacy" || got.CharacterName != "Old Timer" || got.Version != "1.0" || !got.SavedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC)) {
		t.Errorf("unexpected legacy info %+v", got)
	}
}

func TestFileStore_PingMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	store, err := NewFileStore(dir, quietLogger())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail without the directory")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, quietLogger())
	store.now = func() time.Time { return fixedNow }
	testSaveStore(t, store)

	if !mr.Exists(saveKeyPrefix + "hero_1") {
		t.Error("expected save:hero_1 to exist")
	}
	if got := mr.HGet(saveMetaKey+"hero_1", "character_name"); got != "Ann" {
		t.Errorf("metadata character_name = %q", got)
	}
	members, err := mr.ZMembers(saveIndexKey)
	if err != nil || len(members) != 3 {
		t.Errorf("index members = %v, %v", members, err)
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	store := NewRedisStore(client, quietLogger())
	ctx := context.Background()
	if err := store.Ping(ctx); err == nil {
		t.Error("expected ping failure")
	}
	if _, err := store.Save(ctx, "x", storage.Bytes([]byte(`{}`)), storage.SaveInfo{}); err == nil || errors.Is(err, storage.ErrSaveNotFound) {
		t.Errorf("expected a connection error, got %v", err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn, quietLogger())
	if err != nil {
		t.Fatalf("NewPostgresStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := store.pool.Exec(ctx, `TRUNCATE saves`); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	store.now = func() time.Time { return fixedNow }
	testSaveStore(t, store)
}
