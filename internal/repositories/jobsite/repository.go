package jobsite

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "id, tenant_id, external_id, account_id, contact_id, name, street, city, state, zip, created_at, updated_at, deleted_at"

// Repository handles jobsite persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new jobsite repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List returns all non-deleted jobsites for a tenant, ordered by external ID.
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.Jobsite, error) {
	ctx, span := tracing.StartSpan(ctx, "jobsite.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(strings.Split(columns, ", ")...)
	sb.From("jobsites")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("external_id")

	query, args := sb.Build()
	var jobsites []models.Jobsite
	if err := r.db.SelectContext(ctx, &jobsites, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Error("Failed to list jobsites")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list jobsites")
	}
	return jobsites, nil
}

// BulkUpsert inserts or updates jobsites by (tenant_id, external_id).
func (r *Repository) BulkUpsert(ctx context.Context, tenantID string, jobsites []models.Jobsite) (created, updated int, err error) {
	ctx, span := tracing.StartSpan(ctx, "jobsite.Repository.BulkUpsert")
	defer span.End()

	if len(jobsites) == 0 {
		return 0, 0, nil
	}

	now := time.Now().UTC()
	const cols = 12
	values := make([]string, 0, len(jobsites))
	args := make([]any, 0, len(jobsites)*cols)
	for i, j := range jobsites {
		base := i * cols
		placeholders := make([]string, cols)
		for k := range placeholders {
			placeholders[k] = fmt.Sprintf("$%d", base+k+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			uuid.New().String(), tenantID, j.ExternalID, j.AccountID, j.ContactID,
			j.Name, j.Street, j.City, j.State, j.Zip,
			now, now,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO jobsites (
			id, tenant_id, external_id, account_id, contact_id, name,
			street, city, state, zip, created_at, updated_at
		) VALUES %s
		ON CONFLICT (tenant_id, external_id)
		DO UPDATE SET
			account_id = EXCLUDED.account_id,
			contact_id = EXCLUDED.contact_id,
			name = EXCLUDED.name,
			street = EXCLUDED.street,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip = EXCLUDED.zip,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		RETURNING (xmax = 0) AS inserted
	`, strings.Join(values, ", "))

	var inserted []struct {
		Inserted bool `db:"inserted"`
	}
	if err := r.db.SelectContext(ctx, &inserted, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "count": len(jobsites)}).Error("Failed to bulk upsert jobsites")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to bulk upsert jobsites")
	}

	for _, row := range inserted {
		if row.Inserted {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

// SoftDeleteByExternalIDs marks the given jobsites deleted.
func (r *Repository) SoftDeleteByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "jobsite.Repository.SoftDeleteByExternalIDs")
	defer span.End()

	if len(externalIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE jobsites
		SET deleted_at = $1
		WHERE tenant_id = $2
		  AND external_id = ANY($3)
		  AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), tenantID, pq.Array(externalIDs))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "count": len(externalIDs)}).Error("Failed to soft delete jobsites")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete jobsites")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read delete count")
	}
	return affected, nil
}
