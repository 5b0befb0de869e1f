package importrun

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "id, tenant_id, session_id, status, merge_stats, entities, errors, started_at, finished_at"

// Repository handles import run persistence. Import runs are the audit
// trail of committed imports; they are append-only.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new import run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create persists one import run record and returns it with its ID set.
func (r *Repository) Create(ctx context.Context, run models.ImportRun) (*models.ImportRun, error) {
	ctx, span := tracing.StartSpan(ctx, "importrun.Repository.Create")
	defer span.End()

	run.ID = uuid.New().String()

	query := `
		INSERT INTO import_runs (
			id, tenant_id, session_id, status, merge_stats, entities, errors,
			started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.TenantID, run.SessionID, run.Status,
		run.MergeStats, run.Entities, run.Errors,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": run.TenantID, "session_id": run.SessionID}).Error("Failed to create import run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create import run")
	}
	return &run, nil
}

// List returns the import runs for a tenant, most recent first.
func (r *Repository) List(ctx context.Context, tenantID string, limit int) ([]models.ImportRun, error) {
	ctx, span := tracing.StartSpan(ctx, "importrun.Repository.List")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(strings.Split(columns, ", ")...)
	sb.From("import_runs")
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("started_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var runs []models.ImportRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Error("Failed to list import runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list import runs")
	}
	return runs, nil
}
