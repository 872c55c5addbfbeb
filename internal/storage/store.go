// Package storage keeps backup files on disk, one directory per guild.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/isdelr/guildvault/internal/models"
	"github.com/moby/sys/atomicwriter"
)

// Extension of every backup file.
const Extension = ".json"

// TimestampLayout is the timestamp suffix of backup filenames (YYYYMMDD_HHMMSS).
const TimestampLayout = "20060102_150405"

var (
	// ErrNotFound is returned when a backup file does not exist.
	ErrNotFound = errors.New("backup file not found")
	// ErrInvalidName is returned for guild ids or filenames that are not plain path segments.
	ErrInvalidName = errors.New("invalid backup name")
)

// FileStore stores backups under basePath/<guildID>/<filename>.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if needed and returns a store rooted there.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Filename builds "[label_]guildName_YYYYMMDD_HHMMSS.json". Two backups of the
// same guild and label within one second get the same name.
func Filename(label, guildName string, at time.Time) string {
	name := sanitize(guildName) + "_" + at.Format(TimestampLayout) + Extension
	if label != "" {
		name = sanitize(label) + "_" + name
	}
	return name
}

// List returns the guild's backup files in reverse filename order.
// A guild without a backup directory has no backups.
func (s *FileStore) List(guildID string) ([]models.BackupFile, error) {
	dir, err := s.guildDir(guildID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.BackupFile{}, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	files := make([]models.BackupFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		files = append(files, models.BackupFile{
			Filename: e.Name(),
			Size:     info.Size(),
			Created:  info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename > files[j].Filename })
	return files, nil
}

// Count returns the number of backups of a guild, zero on any error.
func (s *FileStore) Count(guildID string) int {
	files, err := s.List(guildID)
	if err != nil {
		return 0
	}
	return len(files)
}

// Read returns the content of a backup file.
func (s *FileStore) Read(guildID, filename string) ([]byte, error) {
	path, err := s.filePath(guildID, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("read backup %s: %w", filename, err)
	}
	return data, nil
}

// Stat returns the metadata of a backup file.
func (s *FileStore) Stat(guildID, filename string) (models.BackupFile, error) {
	path, err := s.filePath(guildID, filename)
	if err != nil {
		return models.BackupFile{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.BackupFile{}, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return models.BackupFile{}, err
	}
	return models.BackupFile{Filename: filename, Size: info.Size(), Created: info.ModTime()}, nil
}

// Write stores data under filename. The file is written to a temporary name
// and renamed, so a failed write never leaves a truncated backup behind.
// An existing file with the same name is replaced.
func (s *FileStore) Write(guildID, filename string, data []byte) error {
	path, err := s.filePath(guildID, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create guild backup directory: %w", err)
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup %s: %w", filename, err)
	}
	return nil
}

// Delete removes one backup file.
func (s *FileStore) Delete(guildID, filename string) error {
	path, err := s.filePath(guildID, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return fmt.Errorf("delete backup %s: %w", filename, err)
	}
	return nil
}

// DeleteAll removes every backup file of a guild and returns how many were deleted.
// Files deleted before an error are not restored.
func (s *FileStore) DeleteAll(guildID string) (int, error) {
	files, err := s.List(guildID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, f := range files {
		if err := s.Delete(guildID, f.Filename); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *FileStore) guildDir(guildID string) (string, error) {
	if !isSegment(guildID) {
		return "", fmt.Errorf("%w: guild %q", ErrInvalidName, guildID)
	}
	return filepath.Join(s.basePath, guildID), nil
}

func (s *FileStore) filePath(guildID, filename string) (string, error) {
	dir, err := s.guildDir(guildID)
	if err != nil {
		return "", err
	}
	if !isSegment(filename) || !strings.HasSuffix(filename, Extension) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return filepath.Join(dir, filename), nil
}

// isSegment reports whether name can be used as a single path element.
func isSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", `\`, "_", "\x00", "").Replace(name)
}
