package account

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

const columns = "id, tenant_id, external_id, name, type, tags, archived, street, city, state, zip, created_at, updated_at, deleted_at"

// Repository handles account persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new account repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List returns all non-deleted accounts for a tenant, ordered by external ID.
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.Account, error) {
	ctx, span := tracing.StartSpan(ctx, "account.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(strings.Split(columns, ", ")...)
	sb.From("accounts")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("external_id")

	query, args := sb.Build()
	var accounts []models.Account
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Error("Failed to list accounts")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list accounts")
	}
	return accounts, nil
}

// BulkUpsert inserts or updates accounts by (tenant_id, external_id) in a
// single statement and reports how many rows were created vs updated.
// A re-imported account is never destroyed; its deleted_at is cleared.
func (r *Repository) BulkUpsert(ctx context.Context, tenantID string, accounts []models.Account) (created, updated int, err error) {
	ctx, span := tracing.StartSpan(ctx, "account.Repository.BulkUpsert")
	defer span.End()

	if len(accounts) == 0 {
		return 0, 0, nil
	}

	now := time.Now().UTC()
	const cols = 13
	values := make([]string, 0, len(accounts))
	args := make([]any, 0, len(accounts)*cols)
	for i, a := range accounts {
		base := i * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			uuid.New().String(), tenantID, a.ExternalID, a.Name, a.Type,
			pq.Array([]string(a.Tags)), a.Archived, a.Street, a.City, a.State, a.Zip,
			now, now,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO accounts (
			id, tenant_id, external_id, name, type, tags, archived,
			street, city, state, zip, created_at, updated_at
		) VALUES %s
		ON CONFLICT (tenant_id, external_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			tags = EXCLUDED.tags,
			archived = EXCLUDED.archived,
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
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "count": len(accounts)}).Error("Failed to bulk upsert accounts")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to bulk upsert accounts")
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

// SoftDeleteByExternalIDs marks the given accounts deleted. Used only by
// the operator-confirmed orphan purge.
func (r *Repository) SoftDeleteByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "account.Repository.SoftDeleteByExternalIDs")
	defer span.End()

	if len(externalIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE accounts
		SET deleted_at = $1
		WHERE tenant_id = $2
		  AND external_id = ANY($3)
		  AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), tenantID, pq.Array(externalIDs))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "count": len(externalIDs)}).Error("Failed to soft delete accounts")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete accounts")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read delete count")
	}
	return affected, nil
}
