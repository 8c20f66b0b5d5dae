package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

func newTestFileRepo(t *testing.T) *FileRepository {
	t.Helper()
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "data", "feedbacks.json"), nil)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func testRecord(id string, createdAt time.Time) *models.FeedbackRecord {
	return &models.FeedbackRecord{
		ID:          id,
		Category:    "General",
		Subcategory: "Noise",
		Text:        "loud hallway",
		Urgency:     "high",
		Status:      models.StatusPending,
		CreatedAt:   createdAt,
	}
}

func TestFileRepositoryCreatesBackingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "feedbacks.json")

	repo, err := NewFileRepository(path, nil)
	require.NoError(t, err)
	defer repo.Close()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestFileRepositoryCreateThenGet(t *testing.T) {
	repo := newTestFileRepo(t)

	record := testRecord("FB-aaaaaaaa", time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), record))

	got, err := repo.GetByID(context.Background(), "FB-aaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Text, got.Text)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestFileRepositoryGetUnknownID(t *testing.T) {
	repo := newTestFileRepo(t)

	_, err := repo.GetByID(context.Background(), "FB-missing1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFileRepositoryListOrdersByCreatedAtDescending(t *testing.T) {
	repo := newTestFileRepo(t)
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		record := testRecord(fmt.Sprintf("FB-order%03d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(context.Background(), record))
	}

	items, total, err := repo.List(context.Background(), models.FeedbackFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 5)
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt))
	}
	assert.Equal(t, "FB-order004", items[0].ID)
}

func TestFileRepositoryListFilters(t *testing.T) {
	repo := newTestFileRepo(t)
	base := time.Now().UTC()

	a := testRecord("FB-filter01", base)
	a.Category = "Facilities"
	a.Text = "broken window in lab"
	require.NoError(t, repo.Create(context.Background(), a))

	b := testRecord("FB-filter02", base.Add(time.Minute))
	b.Status = models.StatusResolved
	suggestions := "Install a Water Cooler"
	b.Suggestions = &suggestions
	require.NoError(t, repo.Create(context.Background(), b))

	items, total, err := repo.List(context.Background(), models.FeedbackFilter{Status: "resolved", Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "FB-filter02", items[0].ID)

	items, total, err = repo.List(context.Background(), models.FeedbackFilter{Category: "Facilities", Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "FB-filter01", items[0].ID)

	// Search is case-insensitive and matches text OR suggestions.
	items, total, err = repo.List(context.Background(), models.FeedbackFilter{Search: "WINDOW", Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "FB-filter01", items[0].ID)

	items, total, err = repo.List(context.Background(), models.FeedbackFilter{Search: "water cooler", Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "FB-filter02", items[0].ID)
}

func TestFileRepositoryListPagination(t *testing.T) {
	repo := newTestFileRepo(t)
	base := time.Now().UTC()

	for i := 0; i < 7; i++ {
		record := testRecord(fmt.Sprintf("FB-page%04d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Create(context.Background(), record))
	}

	items, total, err := repo.List(context.Background(), models.FeedbackFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, items, 3)
	assert.Equal(t, "FB-page0003", items[0].ID)

	// Total is independent of the requested page, even past the end.
	items, total, err = repo.List(context.Background(), models.FeedbackFilter{Page: 9, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Empty(t, items)
}

func TestFileRepositoryUpdateStatus(t *testing.T) {
	repo := newTestFileRepo(t)
	require.NoError(t, repo.Create(context.Background(), testRecord("FB-update01", time.Now().UTC())))

	comment := "dispatched maintenance"
	updated, err := repo.UpdateStatus(context.Background(), "FB-update01", models.StatusUpdate{
		Status:       models.StatusInProgress,
		AdminComment: &comment,
		UpdatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	require.NotNil(t, updated.AdminComment)
	assert.Equal(t, comment, *updated.AdminComment)
	require.NotNil(t, updated.UpdatedAt)

	// Omitting the comment must not clear the prior one.
	updated, err = repo.UpdateStatus(context.Background(), "FB-update01", models.StatusUpdate{
		Status:    models.StatusResolved,
		UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	require.NotNil(t, updated.AdminComment)
	assert.Equal(t, comment, *updated.AdminComment)

	_, err = repo.UpdateStatus(context.Background(), "FB-nope1234", models.StatusUpdate{
		Status:    models.StatusResolved,
		UpdatedAt: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFileRepositoryDelete(t *testing.T) {
	repo := newTestFileRepo(t)
	require.NoError(t, repo.Create(context.Background(), testRecord("FB-delete01", time.Now().UTC())))

	require.NoError(t, repo.Delete(context.Background(), "FB-delete01"))

	_, err := repo.GetByID(context.Background(), "FB-delete01")
	require.Error(t, err)

	// Deleting an unknown id is never a silent success.
	err = repo.Delete(context.Background(), "FB-delete01")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFileRepositoryConcurrentCreates(t *testing.T) {
	repo := newTestFileRepo(t)
	const n = 32

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record := testRecord(fmt.Sprintf("FB-conc%04d", i), time.Now().UTC())
			assert.NoError(t, repo.Create(context.Background(), record))
		}(i)
	}
	wg.Wait()

	items, total, err := repo.List(context.Background(), models.FeedbackFilter{Page: 1, Limit: 200})
	require.NoError(t, err)
	assert.Equal(t, n, total)

	seen := make(map[string]struct{}, n)
	for _, item := range items {
		seen[item.ID] = struct{}{}
	}
	assert.Len(t, seen, n)

	// The persisted file holds exactly n complete records as well.
	raw, err := os.ReadFile(repo.path)
	require.NoError(t, err)
	var persisted []models.FeedbackRecord
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Len(t, persisted, n)
}

func TestFileRepositoryReadsNeverObservePartialWrites(t *testing.T) {
	repo := newTestFileRepo(t)
	const writers = 8

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _, err := repo.List(context.Background(), models.FeedbackFilter{Page: 1, Limit: 50})
				assert.NoError(t, err)
			}
		}()
	}

	for i := 0; i < writers; i++ {
		record := testRecord(fmt.Sprintf("FB-race%04d", i), time.Now().UTC())
		require.NoError(t, repo.Create(context.Background(), record))
	}
	close(stop)
	wg.Wait()

	_, total, err := repo.List(context.Background(), models.FeedbackFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, writers, total)
}

func TestFileRepositoryCorruptFileSurfacesStorageError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedbacks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	core, logs := observer.New(zapcore.ErrorLevel)
	repo, err := NewFileRepository(path, zap.New(core))
	require.NoError(t, err)
	defer repo.Close()

	_, _, err = repo.List(context.Background(), models.FeedbackFilter{Page: 1, Limit: 50})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)

	// The underlying parse error is logged server-side, not just mapped
	// to the client-facing code.
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "feedback store is corrupt", logs.All()[0].Message)
}

func TestFileRepositoryOptionalFieldsStayAbsent(t *testing.T) {
	repo := newTestFileRepo(t)

	record := testRecord("FB-absent01", time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), record))

	raw, err := os.ReadFile(repo.path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "studentName")
	assert.NotContains(t, string(raw), "suggestions")
	assert.NotContains(t, string(raw), "adminComment")
}
