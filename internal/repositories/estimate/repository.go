package estimate

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

const columns = "id, tenant_id, external_id, account_id, contact_id, client_name, email, phone, status, tags, street, city, state, zip, estimate_date, contract_start, contract_end, total, created_at, updated_at, deleted_at"

// Repository handles estimate persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new estimate repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List returns all non-deleted estimates for a tenant, ordered by external ID.
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.Estimate, error) {
	ctx, span := tracing.StartSpan(ctx, "estimate.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(strings.Split(columns, ", ")...)
	sb.From("estimates")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("external_id")

	query, args := sb.Build()
	var estimates []models.Estimate
	if err := r.db.SelectContext(ctx, &estimates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Error("Failed to list estimates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list estimates")
	}
	return estimates, nil
}

// BulkUpsert inserts or updates estimates by (tenant_id, external_id).
func (r *Repository) BulkUpsert(ctx context.Context, tenantID string, estimates []models.Estimate) (created, updated int, err error) {
	ctx, span := tracing.StartSpan(ctx, "estimate.Repository.BulkUpsert")
	defer span.End()

	if len(estimates) == 0 {
		return 0, 0, nil
	}

	now := time.Now().UTC()
	const cols = 20
	values := make([]string, 0, len(estimates))
	args := make([]any, 0, len(estimates)*cols)
	for i, e := range estimates {
		base := i * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			uuid.New().String(), tenantID, e.ExternalID, e.AccountID, e.ContactID,
			e.ClientName, e.Email, e.Phone, e.Status, pq.Array([]string(e.Tags)),
			e.Street, e.City, e.State, e.Zip,
			e.EstimateDate, e.ContractStart, e.ContractEnd, e.Total,
			now, now,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO estimates (
			id, tenant_id, external_id, account_id, contact_id, client_name,
			email, phone, status, tags, street, city, state, zip,
			estimate_date, contract_start, contract_end, total,
			created_at, updated_at
		) VALUES %s
		ON CONFLICT (tenant_id, external_id)
		DO UPDATE SET
			account_id = EXCLUDED.account_id,
			contact_id = EXCLUDED.contact_id,
			client_name = EXCLUDED.client_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			status = EXCLUDED.status,
			tags = EXCLUDED.tags,
			street = EXCLUDED.street,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip = EXCLUDED.zip,
			estimate_date = EXCLUDED.estimate_date,
			contract_start = EXCLUDED.contract_start,
			contract_end = EXCLUDED.contract_end,
			total = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		RETURNING (xmax = 0) AS inserted
	`, strings.Join(values, ", "))

	var inserted []struct {
		Inserted bool `db:"inserted"`
	}
	if err := r.db.SelectContext(ctx, &inserted, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "count": len(estimates)}).Error("Failed to bulk upsert estimates")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to bulk upsert estimates")
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

// SoftDeleteByExternalIDs marks the given estimates deleted.
func (r *Repository) SoftDeleteByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "estimate.Repository.SoftDeleteByExternalIDs")
	defer span.End()

	if len(externalIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE estimates
		SET deleted_at = $1
		WHERE tenant_id = $2
		  AND external_id = ANY($3)
		  AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), tenantID, pq.Array(externalIDs))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "count": len(externalIDs)}).Error("Failed to soft delete estimates")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete estimates")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read delete count")
	}
	return affected, nil
}
