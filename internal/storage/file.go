package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/text-rpg/pkg/storage"
)

// FileStore keeps each save as <name>.json in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

var _ storage.SaveStore = (*FileStore)(nil)

// NewFileStore creates dir if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		dir = "saves"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("save directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("save path %s is not a directory", f.dir)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}

// Save creates the file exclusively so an existing save is never replaced.
func (f *FileStore) Save(ctx context.Context, name string, doc storage.Document, info storage.SaveInfo) (string, error) {
	base, err := storage.BaseName(name, f.now())
	if err != nil {
		return "", err
	}

	for n := range storage.MaxNameAttempts {
		candidate := storage.Candidate(base, n)
		file, err := os.OpenFile(f.path(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create save file: %w", err)
		}
		data, err := doc(candidate)
		if err != nil {
			_ = file.Close()
			_ = os.Remove(f.path(candidate))
			return "", fmt.Errorf("failed to encode save: %w", err)
		}

		_, werr := file.Write(data)
		cerr := file.Close()
		if err := errors.Join(werr, cerr); err != nil {
			_ = os.Remove(f.path(candidate))
			return "", fmt.Errorf("failed to write save file: %w", err)
		}

		f.logger.Debug("Save written", "name", candidate, "bytes", len(data))
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %s", storage.ErrNoFreeName, base)
}

func (f *FileStore) Load(ctx context.Context, name string) ([]byte, error) {
	key, err := storage.LookupName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrSaveNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	return data, nil
}

// List reads the header of every save in the directory. Files that cannot
// be parsed are skipped.
func (f *FileStore) List(ctx context.Context) ([]storage.SaveInfo, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.SaveInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read save directory: %w", err)
	}

	saves := make([]storage.SaveInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(f.dir, entry.Name()))
		if err != nil {
			f.logger.Warn("Failed to read save file", "name", name, "error", err)
			continue
		}
		info, err := probeInfo(data)
		if err != nil {
			f.logger.Warn("Skipping unreadable save", "name", name, "error", err)
			continue
		}
		info.Name = name
		if info.SavedAt.IsZero() {
			if fi, err := entry.Info(); err == nil {
				info.SavedAt = fi.ModTime()
			}
		}
		saves = append(saves, info)
	}
	storage.SortNewestFirst(saves)
	return saves, nil
}

func (f *FileStore) Delete(ctx context.Context, name string) error {
	key, err := storage.LookupName(name)
	if err != nil {
		return err
	}
	err = os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", storage.ErrSaveNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete save file: %w", err)
	}
	return nil
}

// saveHeader holds the fields List needs from both save layouts.
type saveHeader struct {
	Version   string            `json:"version"`
	Timestamp storage.Timestamp `json:"timestamp"`
	Player    *struct {
		Name string `json:"name"`
	} `json:"player"`
	SaveMetadata *struct {
		Timestamp storage.Timestamp `json:"timestamp"`
		Version   string            `json:"version"`
	} `json:"save_metadata"`
}

func probeInfo(data []byte) (storage.SaveInfo, error) {
	var h saveHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return storage.SaveInfo{}, err
	}

	info := storage.SaveInfo{Version: h.Version, SavedAt: h.Timestamp.Time}
	if h.SaveMetadata != nil {
		if info.Version == "" {
			info.Version = h.SaveMetadata.Version
		}
		if info.SavedAt.IsZero() {
			info.SavedAt = h.SaveMetadata.Timestamp.Time
		}
	}
	if h.Player != nil {
		info.CharacterName = h.Player.Name
	}
	return info, nil
}
