package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwebster45206/text-rpg/pkg/gameerr"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"hero":             "hero",
		"hero.json":        "hero",
		"  my save  ":      "my_save",
		"../../etc/passwd": "etcpasswd",
		"run-2_final":      "run-2_final",
		"ünïcode!":         "ncode",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseName(t *testing.T) {
	now := time.Unix(1700000000, 0)

	got, err := BaseName("", now)
	if err != nil || got != "save_1700000000" {
		t.Errorf("BaseName(\"\") = %q, %v", got, err)
	}
	got, err = BaseName("castle.json", now)
	if err != nil || got != "castle" {
		t.Errorf("BaseName(castle.json) = %q, %v", got, err)
	}
	if _, err := BaseName("///", now); !errors.Is(err, gameerr.ErrValidation) {
		t.Errorf("BaseName(///) error = %v, want validation error", err)
	}
}

func TestCandidate(t *testing.T) {
	if Candidate("a", 0) != "a" || Candidate("a", 2) != "a_2" {
		t.Errorf("unexpected candidates %q %q", Candidate("a", 0), Candidate("a", 2))
	}
}

func TestMockSaveStore_NeverOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMockSaveStore()
	s.SetClock(func() time.Time { return time.Unix(100, 0) })

	names := make([]string, 0, 3)
	for i := range 3 {
		name, err := s.Save(ctx, "", Bytes([]byte{byte(i)}), SaveInfo{SavedAt: time.Unix(int64(100+i), 0)})
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}
	want := []string{"save_100", "save_100_1", "save_100_2"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("save %d name = %q, want %q", i, names[i], want[i])
		}
	}

	named, err := s.Save(ctx, "save_100", func(name string) ([]byte, error) {
		return []byte(name), nil
	}, SaveInfo{})
	if err != nil || named != "save_100_3" {
		t.Fatalf("Save(save_100) = %q, %v", named, err)
	}
	if data, _ := s.Load(ctx, named); string(data) != "save_100_3" {
		t.Errorf("document rendered for %q, want the resolved name", data)
	}
	if err := s.Delete(ctx, named); err != nil {
		t.Fatal(err)
	}

	data, err := s.Load(ctx, "save_100.json")
	if err != nil || len(data) != 1 || data[0] != 0 {
		t.Errorf("Load(save_100) = %v, %v; first save was overwritten", data, err)
	}

	list, _ := s.List(ctx)
	if len(list) != 3 || list[0].Name != "save_100_2" {
		t.Errorf("List() = %+v, want newest first", list)
	}

	if err := s.Delete(ctx, "save_100_1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "save_100_1"); !errors.Is(err, ErrSaveNotFound) {
		t.Errorf("Load after delete error = %v, want ErrSaveNotFound", err)
	}
	if err := s.Delete(ctx, "save_100_1"); !errors.Is(err, gameerr.ErrNotFound) {
		t.Errorf("second Delete error = %v, want not found", err)
	}
}
