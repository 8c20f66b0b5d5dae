package repository

import (
	"context"
	"fmt"
	"strings"

	surrealdb "github.com/surrealdb/surrealdb.go"
	surreal "github.com/surrealdb/surrealdb.go/pkg/models"
	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	"github.com/noah-isme/sfp-api/pkg/config"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

// SurrealRepository serves the same contract as FileRepository against a
// SurrealDB table. Record identity doubles as the unique id index; the
// createdAt index is defined once at connection time.
type SurrealRepository struct {
	db     *surrealdb.DB
	table  string
	logger *zap.Logger
}

// feedbackDoc is the stored document shape. Timestamps use the driver's
// CBOR-safe datetime type; optional fields stay pointers so absent values
// are not stored at all.
type feedbackDoc struct {
	ID          *surreal.RecordID `json:"id,omitempty"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory"`
	Text        string            `json:"text"`
	Urgency     string            `json:"urgency"`

	Suggestions *string `json:"suggestions,omitempty"`
	StudentName *string `json:"studentName,omitempty"`
	RollNo      *string `json:"rollNo,omitempty"`
	Department  *string `json:"department,omitempty"`
	CourseNo    *string `json:"courseNo,omitempty"`

	Status       string  `json:"status"`
	AdminComment *string `json:"adminComment,omitempty"`

	CreatedAt        surreal.CustomDateTime  `json:"createdAt"`
	CreatedAtDisplay string                  `json:"createdAtDisplay,omitempty"`
	UpdatedAt        *surreal.CustomDateTime `json:"updatedAt,omitempty"`
	UpdatedAtDisplay string                  `json:"updatedAtDisplay,omitempty"`
}

type countRow struct {
	Total int `json:"total"`
}

// NewSurrealRepository performs the single bounded connection attempt. Any
// failure here means the caller falls back to the file store for the rest
// of the process lifetime.
func NewSurrealRepository(cfg config.SurrealDBConfig, logger *zap.Logger) (*SurrealRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect surrealdb: %w", err)
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("select surrealdb namespace: %w", err)
	}
	if cfg.Username != "" {
		token, err := db.SignIn(ctx, &surrealdb.Auth{Username: cfg.Username, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("surrealdb signin: %w", err)
		}
		if err := db.Authenticate(ctx, token); err != nil {
			return nil, fmt.Errorf("surrealdb authenticate: %w", err)
		}
	}

	r := &SurrealRepository{db: db, table: cfg.Table, logger: logger}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// ensureIndexes defines the createdAt listing index. Uniqueness of the id
// needs no separate index: SurrealDB record ids are unique by identity.
func (r *SurrealRepository) ensureIndexes(ctx context.Context) error {
	query := fmt.Sprintf(
		"DEFINE INDEX IF NOT EXISTS idx_%s_created_at ON TABLE %s FIELDS createdAt",
		r.table, r.table,
	)
	if _, err := surrealdb.Query[any](ctx, r.db, query, map[string]any{}); err != nil {
		return fmt.Errorf("define createdAt index: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (r *SurrealRepository) Close() {
	if err := r.db.Close(context.Background()); err != nil {
		r.logger.Warn("surrealdb close failed", zap.Error(err))
	}
}

func (r *SurrealRepository) Create(ctx context.Context, record *models.FeedbackRecord) error {
	doc := toDoc(record)
	_, err := surrealdb.Create[feedbackDoc](ctx, r.db, surreal.NewRecordID(r.table, record.ID), doc)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return appErrors.Clone(appErrors.ErrConflict, "feedback id already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "create feedback")
	}
	return nil
}

func (r *SurrealRepository) GetByID(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	res, err := surrealdb.Query[[]feedbackDoc](ctx, r.db,
		"SELECT * FROM type::thing($tb, $id)",
		map[string]any{"tb": r.table, "id": id},
	)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "get feedback")
	}
	docs := queryRows(res)
	if len(docs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	record := fromDoc(docs[0])
	return &record, nil
}

func (r *SurrealRepository) List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackRecord, int, error) {
	where, vars := buildWhere(filter)
	vars["tb"] = r.table
	vars["limit"] = filter.Limit
	vars["start"] = filter.Offset()

	listQuery := fmt.Sprintf(
		"SELECT * FROM type::table($tb)%s ORDER BY createdAt DESC LIMIT $limit START $start",
		where,
	)
	res, err := surrealdb.Query[[]feedbackDoc](ctx, r.db, listQuery, vars)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "list feedback")
	}

	// The count runs as an independent query over the identical WHERE.
	countQuery := fmt.Sprintf("SELECT count() AS total FROM type::table($tb)%s GROUP ALL", where)
	countRes, err := surrealdb.Query[[]countRow](ctx, r.db, countQuery, vars)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "count feedback")
	}

	records := make([]models.FeedbackRecord, 0, len(queryRows(res)))
	for _, doc := range queryRows(res) {
		records = append(records, fromDoc(doc))
	}

	total := 0
	if rows := queryRows(countRes); len(rows) > 0 {
		total = rows[0].Total
	}
	return records, total, nil
}

func (r *SurrealRepository) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.FeedbackRecord, error) {
	set := "status = $status, updatedAt = $updatedAt, updatedAtDisplay = $updatedAtDisplay"
	vars := map[string]any{
		"tb":               r.table,
		"id":               id,
		"status":           string(update.Status),
		"updatedAt":        surreal.CustomDateTime{Time: update.UpdatedAt},
		"updatedAtDisplay": update.UpdatedAt.Format(models.DisplayTimeLayout),
	}
	if update.AdminComment != nil {
		set += ", adminComment = $adminComment"
		vars["adminComment"] = *update.AdminComment
	}

	query := fmt.Sprintf("UPDATE type::thing($tb, $id) SET %s RETURN AFTER", set)
	res, err := surrealdb.Query[[]feedbackDoc](ctx, r.db, query, vars)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "update feedback")
	}
	docs := queryRows(res)
	if len(docs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	record := fromDoc(docs[0])
	return &record, nil
}

func (r *SurrealRepository) Delete(ctx context.Context, id string) error {
	res, err := surrealdb.Query[[]feedbackDoc](ctx, r.db,
		"DELETE type::thing($tb, $id) RETURN BEFORE",
		map[string]any{"tb": r.table, "id": id},
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "delete feedback")
	}
	if len(queryRows(res)) == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
	}
	return nil
}

// buildWhere translates the shared filter into SurrealQL. The search term
// is lowercased once here; suggestions may be absent so it is guarded.
func buildWhere(filter models.FeedbackFilter) (string, map[string]any) {
	conds := make([]string, 0, 3)
	vars := map[string]any{}

	if filter.Status != "" {
		conds = append(conds, "status = $status")
		vars["status"] = filter.Status
	}
	if filter.Category != "" {
		conds = append(conds, "category = $category")
		vars["category"] = filter.Category
	}
	if filter.Search != "" {
		conds = append(conds,
			"(string::contains(string::lowercase(text), $search) OR (suggestions != NONE AND string::contains(string::lowercase(suggestions), $search)))")
		vars["search"] = strings.ToLower(filter.Search)
	}

	if len(conds) == 0 {
		return "", vars
	}
	return " WHERE " + strings.Join(conds, " AND "), vars
}

func queryRows[T any](res *[]surrealdb.QueryResult[[]T]) []T {
	if res == nil || len(*res) == 0 {
		return nil
	}
	return (*res)[0].Result
}

func toDoc(record *models.FeedbackRecord) feedbackDoc {
	doc := feedbackDoc{
		Category:         record.Category,
		Subcategory:      record.Subcategory,
		Text:             record.Text,
		Urgency:          record.Urgency,
		Suggestions:      record.Suggestions,
		StudentName:      record.StudentName,
		RollNo:           record.RollNo,
		Department:       record.Department,
		CourseNo:         record.CourseNo,
		Status:           string(record.Status),
		AdminComment:     record.AdminComment,
		CreatedAt:        surreal.CustomDateTime{Time: record.CreatedAt},
		CreatedAtDisplay: record.CreatedAtDisplay,
		UpdatedAtDisplay: record.UpdatedAtDisplay,
	}
	if record.UpdatedAt != nil {
		doc.UpdatedAt = &surreal.CustomDateTime{Time: *record.UpdatedAt}
	}
	return doc
}

func fromDoc(doc feedbackDoc) models.FeedbackRecord {
	record := models.FeedbackRecord{
		Category:         doc.Category,
		Subcategory:      doc.Subcategory,
		Text:             doc.Text,
		Urgency:          doc.Urgency,
		Suggestions:      doc.Suggestions,
		StudentName:      doc.StudentName,
		RollNo:           doc.RollNo,
		Department:       doc.Department,
		CourseNo:         doc.CourseNo,
		Status:           models.FeedbackStatus(doc.Status),
		AdminComment:     doc.AdminComment,
		CreatedAt:        doc.CreatedAt.Time,
		CreatedAtDisplay: doc.CreatedAtDisplay,
		UpdatedAtDisplay: doc.UpdatedAtDisplay,
	}
	if doc.ID != nil {
		record.ID = fmt.Sprintf("%v", doc.ID.ID)
	}
	if doc.UpdatedAt != nil {
		ts := doc.UpdatedAt.Time
		record.UpdatedAt = &ts
	}
	return record
}
