package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/text-rpg/pkg/gameerr"
)

// MaxNameAttempts bounds collision suffixes tried before giving up.
const MaxNameAttempts = 1000

var (
	ErrSaveNotFound    = gameerr.New(gameerr.KindNotFound, "save not found")
	ErrInvalidSaveName = gameerr.New(gameerr.KindValidation, "invalid save name")
	ErrNoFreeName      = gameerr.New(gameerr.KindPersistence, "no free save name")
)

// SaveInfo describes a stored save without loading it.
type SaveInfo struct {
	Name          string    `json:"name"`
	CharacterName string    `json:"character_name"`
	SavedAt       time.Time `json:"timestamp"`
	Version       string    `json:"version,omitempty"`
}

// Document renders a save for the name a store settled on.
type Document func(name string) ([]byte, error)

// Bytes is a Document that ignores the name.
func Bytes(data []byte) Document {
	return func(string) ([]byte, error) { return data, nil }
}

// SaveStore persists save documents. Implementations never overwrite an
// existing save: a taken name is resolved to the first free "_N" suffix.
type SaveStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Save stores doc under name (or an automatic name when empty) and
	// returns the name actually used. doc is rendered with that name.
	Save(ctx context.Context, name string, doc Document, info SaveInfo) (string, error)
	// Load returns the stored document or ErrSaveNotFound.
	Load(ctx context.Context, name string) ([]byte, error)
	// List returns every save, newest first.
	List(ctx context.Context) ([]SaveInfo, error)
	Delete(ctx context.Context, name string) error
}

// SanitizeName strips a trailing ".json" and every character outside
// [A-Za-z0-9_-].
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".json")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
}

// BaseName returns the sanitized name to save under, or "save_<unix>" when
// none was requested.
func BaseName(requested string, now time.Time) (string, error) {
	if strings.TrimSpace(requested) == "" {
		return fmt.Sprintf("save_%d", now.Unix()), nil
	}
	name := SanitizeName(requested)
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSaveName, requested)
	}
	return name, nil
}

// Candidate is the n-th name tried for base: base itself, then base_1,
// base_2 and so on.
func Candidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, n)
}

// LookupName sanitizes a name given to Load or Delete.
func LookupName(name string) (string, error) {
	clean := SanitizeName(name)
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSaveName, name)
	}
	return clean, nil
}

// SortNewestFirst orders saves by time, newest first, then by name.
func SortNewestFirst(saves []SaveInfo) {
	slices.SortFunc(saves, func(a, b SaveInfo) int {
		if c := b.SavedAt.Compare(a.SavedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
