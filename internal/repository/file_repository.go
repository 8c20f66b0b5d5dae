package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

// FileRepository stores the full record set as one pretty-printed JSON
// array document. Every mutation rewrites the whole file; all rewrites are
// funneled through a single writer goroutine so concurrent requests can
// never interleave file contents, and writes land in submission order.
// Adequate for the volumes this portal sees (thousands of records).
type FileRepository struct {
	path   string
	logger *zap.Logger

	// mu serializes read-modify-write cycles so concurrent creates never
	// drop records. Plain reads go unguarded: they may observe the state
	// before or after an in-flight write, never a torn file.
	mu     sync.Mutex
	writes chan fileWrite
	wg     sync.WaitGroup
	closed bool
}

type fileWrite struct {
	records []models.FeedbackRecord
	done    chan struct{}
}

// NewFileRepository ensures the backing file exists and starts the writer.
func NewFileRepository(path string, logger *zap.Logger) (*FileRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &FileRepository{
		path:   path,
		logger: logger,
		writes: make(chan fileWrite, 64),
	}
	if err := r.ensureFile(); err != nil {
		return nil, err
	}

	r.wg.Add(1)
	go r.writer()

	return r, nil
}

// Close stops the writer after all queued writes have been flushed.
func (r *FileRepository) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.writes)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *FileRepository) Create(_ context.Context, record *models.FeedbackRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return err
	}
	// Newest first, matching list ordering for equal timestamps.
	records = append([]models.FeedbackRecord{*record}, records...)
	r.flush(records)
	return nil
}

func (r *FileRepository) GetByID(_ context.Context, id string) (*models.FeedbackRecord, error) {
	records, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			record := records[i]
			return &record, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
}

func (r *FileRepository) List(_ context.Context, filter models.FeedbackFilter) ([]models.FeedbackRecord, int, error) {
	records, err := r.readAll()
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]models.FeedbackRecord, 0, len(records))
	for _, record := range records {
		if matchesFilter(record, filter) {
			filtered = append(filtered, record)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	start := filter.Offset()
	if start >= total {
		return []models.FeedbackRecord{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (r *FileRepository) UpdateStatus(_ context.Context, id string, update models.StatusUpdate) (*models.FeedbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].ApplyStatusUpdate(update)
		updated := records[i]
		r.flush(records)
		return &updated, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
}

func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return err
	}
	remaining := records[:0:0]
	for _, record := range records {
		if record.ID != id {
			remaining = append(remaining, record)
		}
	}
	if len(remaining) == len(records) {
		return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	r.flush(remaining)
	return nil
}

// flush queues a full snapshot and waits for it to hit disk. A write
// failure is logged by the writer, never surfaced to the caller: once the
// snapshot is queued the mutation is considered accepted (best-effort
// durability, as the original portal behaved).
func (r *FileRepository) flush(records []models.FeedbackRecord) {
	if r.closed {
		return
	}
	write := fileWrite{records: records, done: make(chan struct{})}
	r.writes <- write
	<-write.done
}

func (r *FileRepository) writer() {
	defer r.wg.Done()
	for write := range r.writes {
		if err := r.persist(write.records); err != nil {
			r.logger.Error("file store write failed",
				zap.String("path", r.path),
				zap.Error(err),
			)
		}
		close(write.done)
	}
}

// persist stages the snapshot in a temp file and renames it over the
// store, so unguarded readers always see either the previous or the new
// complete file, never a truncated one.
func (r *FileRepository) persist(records []models.FeedbackRecord) error {
	if records == nil {
		records = []models.FeedbackRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feedback store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("stage feedback store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write feedback store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close feedback store: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod feedback store: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace feedback store: %w", err)
	}
	return nil
}

// readAll loads the complete record set, creating an empty store first if
// the file is missing. A present-but-unparseable file is surfaced as a
// storage error rather than silently treated as empty, so corruption can
// not be papered over by the next full rewrite.
func (r *FileRepository) readAll() ([]models.FeedbackRecord, error) {
	if err := r.ensureFile(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.Error("feedback store read failed", zap.String("path", r.path), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "read feedback store")
	}
	if len(raw) == 0 {
		return []models.FeedbackRecord{}, nil
	}

	var records []models.FeedbackRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		r.logger.Error("feedback store is corrupt", zap.String("path", r.path), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "feedback store is corrupt")
	}
	return records, nil
}

func (r *FileRepository) ensureFile() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "stat feedback store")
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "create feedback store directory")
	}
	if err := os.WriteFile(r.path, []byte("[]"), 0o644); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "initialise feedback store")
	}
	return nil
}
