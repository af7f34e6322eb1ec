package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"clipseek/internal/models"
	"clipseek/internal/store"
)

// fileData is the on-disk shape of the registry. It intentionally matches a
// plain "embeddings file" layout: one index id plus a flat list of videos.
type fileData struct {
	IndexID string         `json:"index_id"`
	Videos  []models.Video `json:"videos"`
}

// FileRegistry is a JSON-file-backed VideoRegistry. All reads and writes go
// through a mutex; writes are atomic (temp file + rename) so a crashed
// ingest never leaves a half-written registry behind.
type FileRegistry struct {
	path string
	mu   sync.Mutex
	data fileData
}

var _ store.VideoRegistry = (*FileRegistry)(nil)

// Open loads the registry at path, creating an empty one in memory if the
// file does not exist yet (it is written on first mutation).
func Open(path string) (*FileRegistry, error) {
	r := &FileRegistry{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debugf("registry file %s not found, starting empty", path)
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &r.data); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return r, nil
}

func (r *FileRegistry) IndexID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.IndexID, nil
}

func (r *FileRegistry) SetIndexID(ctx context.Context, indexID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data.IndexID == indexID {
		return nil
	}
	r.data.IndexID = indexID
	return r.flushLocked()
}

// Upsert inserts the video or replaces an existing entry with the same task
// id (re-checks of a timed-out task update the original record in place).
func (r *FileRegistry) Upsert(ctx context.Context, video models.Video) error {
	if video.TaskID == "" {
		return fmt.Errorf("%w: video entry requires a task id", models.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := false
	for i, v := range r.data.Videos {
		if v.TaskID == video.TaskID {
			r.data.Videos[i] = video
			replaced = true
			break
		}
	}
	if !replaced {
		r.data.Videos = append(r.data.Videos, video)
	}
	return r.flushLocked()
}

func (r *FileRegistry) FindByVideoID(ctx context.Context, videoID string) (*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.data.Videos {
		if v.VideoID == videoID {
			found := v
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *FileRegistry) FindByTaskID(ctx context.Context, taskID string) (*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.data.Videos {
		if v.TaskID == taskID {
			found := v
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *FileRegistry) List(ctx context.Context) ([]models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Video, len(r.data.Videos))
	copy(out, r.data.Videos)
	return out, nil
}

// flushLocked writes the registry to disk. Callers must hold r.mu.
func (r *FileRegistry) flushLocked() error {
	raw, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".registry_*.json")
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp registry file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace registry file: %w", err)
	}
	return nil
}
