package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	"github.com/noah-isme/sfp-api/internal/repository"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	maxNameLen  = 200
	maxShortLen = 100

	listCachePrefix = "feedback:list:"
)

// FeedbackLimits bounds stored free-text fields.
type FeedbackLimits struct {
	MaxTextLen        int
	MaxSuggestionsLen int
}

// FeedbackService is the record store: it owns validation, trimming, id and
// timestamp assignment, and pagination math, and delegates persistence to
// whichever backend was selected at startup.
type FeedbackService struct {
	repo      repository.FeedbackRepository
	cache     *repository.CacheRepository
	cacheTTL  time.Duration
	limits    FeedbackLimits
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService constructs the service.
func NewFeedbackService(repo repository.FeedbackRepository, validate *validator.Validate, logger *zap.Logger, limits FeedbackLimits) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxTextLen <= 0 {
		limits.MaxTextLen = 4000
	}
	if limits.MaxSuggestionsLen <= 0 {
		limits.MaxSuggestionsLen = 2000
	}
	return &FeedbackService{repo: repo, validator: validate, logger: logger, limits: limits}
}

// WithCache enables the optional list cache.
func (s *FeedbackService) WithCache(cache *repository.CacheRepository, ttl time.Duration) *FeedbackService {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// CreateFeedbackRequest is the submission payload.
type CreateFeedbackRequest struct {
	Category    string `json:"category" validate:"required"`
	Subcategory string `json:"subcategory" validate:"required"`
	Text        string `json:"text" validate:"required"`
	Urgency     string `json:"urgency" validate:"required"`

	Suggestions string `json:"suggestions"`
	StudentName string `json:"studentName"`
	RollNo      string `json:"rollNo"`
	Department  string `json:"department"`
	CourseNo    string `json:"courseNo"`
}

// ListFeedbackRequest carries raw query parameters; clamping happens here.
type ListFeedbackRequest struct {
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

// Create validates, normalises and persists a new submission.
func (s *FeedbackService) Create(ctx context.Context, req CreateFeedbackRequest) (*models.FeedbackRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			"category, subcategory, text, urgency are required")
	}

	now := time.Now().UTC()
	record := &models.FeedbackRecord{
		ID:               generateFeedbackID(),
		Category:         strings.TrimSpace(req.Category),
		Subcategory:      trimCap(req.Subcategory, maxShortLen),
		Text:             trimCap(req.Text, s.limits.MaxTextLen),
		Urgency:          strings.TrimSpace(req.Urgency),
		Suggestions:      optional(req.Suggestions, s.limits.MaxSuggestionsLen),
		StudentName:      optional(req.StudentName, maxNameLen),
		RollNo:           optional(req.RollNo, maxShortLen),
		Department:       optional(req.Department, maxShortLen),
		CourseNo:         optional(req.CourseNo, maxShortLen),
		Status:           models.StatusPending,
		CreatedAt:        now,
		CreatedAtDisplay: now.Format(models.DisplayTimeLayout),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return record, nil
}

// List applies pagination clamps and returns one page plus metadata.
func (s *FeedbackService) List(ctx context.Context, req ListFeedbackRequest) ([]models.FeedbackRecord, models.Pagination, error) {
	filter := models.FeedbackFilter{
		Status:   strings.TrimSpace(req.Status),
		Category: strings.TrimSpace(req.Category),
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		Limit:    req.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	if cached, ok := s.cachedList(ctx, filter); ok {
		return cached.Items, cached.Pagination, nil
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	pagination := models.Pagination{
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
		Pages: (total + filter.Limit - 1) / filter.Limit,
	}
	s.storeListCache(ctx, filter, items, pagination)
	return items, pagination, nil
}

// Get returns a single record by id.
func (s *FeedbackService) Get(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus transitions a record to the requested status. Transitions
// are unrestricted among the three values; omitting adminComment leaves
// any prior comment untouched.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id, status string, adminComment *string) (*models.FeedbackRecord, error) {
	if !models.ValidStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			"invalid status, must be pending, in-progress, or resolved")
	}

	update := models.StatusUpdate{
		Status:    models.FeedbackStatus(status),
		UpdatedAt: time.Now().UTC(),
	}
	if adminComment != nil {
		comment := strings.TrimSpace(*adminComment)
		if comment != "" {
			update.AdminComment = &comment
		}
	}

	record, err := s.repo.UpdateStatus(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return record, nil
}

// Resolve is the legacy force-resolve operation.
func (s *FeedbackService) Resolve(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	return s.UpdateStatus(ctx, id, string(models.StatusResolved), nil)
}

// Delete removes a record permanently.
func (s *FeedbackService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

type cachedListPage struct {
	Items      []models.FeedbackRecord `json:"items"`
	Pagination models.Pagination       `json:"pagination"`
}

func (s *FeedbackService) cachedList(ctx context.Context, filter models.FeedbackFilter) (cachedListPage, bool) {
	if s.cache == nil {
		return cachedListPage{}, false
	}
	var page cachedListPage
	if err := s.cache.Get(ctx, listCacheKey(filter), &page); err != nil {
		return cachedListPage{}, false
	}
	return page, true
}

func (s *FeedbackService) storeListCache(ctx context.Context, filter models.FeedbackFilter, items []models.FeedbackRecord, pagination models.Pagination) {
	if s.cache == nil {
		return
	}
	page := cachedListPage{Items: items, Pagination: pagination}
	if err := s.cache.Set(ctx, listCacheKey(filter), page, s.cacheTTL); err != nil {
		s.logger.Warn("list cache write failed", zap.Error(err))
	}
}

func (s *FeedbackService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, listCachePrefix+"*"); err != nil {
		s.logger.Warn("list cache invalidation failed", zap.Error(err))
	}
}

func listCacheKey(filter models.FeedbackFilter) string {
	return fmt.Sprintf("%s%s|%s|%s|%d|%d",
		listCachePrefix,
		filter.Status, filter.Category, strings.ToLower(filter.Search),
		filter.Page, filter.Limit,
	)
}

// generateFeedbackID produces the portal's short public id. Six random
// bytes encode to exactly eight URL-safe characters.
func generateFeedbackID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for id generation
		panic(fmt.Sprintf("feedback id generation: %v", err))
	}
	return "FB-" + base64.RawURLEncoding.EncodeToString(buf)
}

// trimCap trims surrounding whitespace and caps the value at max
// characters. The cap counts runes, not bytes, so multibyte text is never
// cut short or split mid-character.
func trimCap(raw string, max int) string {
	trimmed := strings.TrimSpace(raw)
	if max > 0 && utf8.RuneCountInString(trimmed) > max {
		return string([]rune(trimmed)[:max])
	}
	return trimmed
}

// optional returns nil for empty values so absent fields are stored as
// absent, never as empty strings.
func optional(raw string, max int) *string {
	trimmed := trimCap(raw, max)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
