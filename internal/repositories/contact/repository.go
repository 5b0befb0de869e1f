package contact

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

const columns = "id, tenant_id, external_id, account_id, name, email, phone, do_not_email, do_not_mail, do_not_call, new_from_leads, created_at, updated_at, deleted_at"

// Repository handles contact persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List returns all non-deleted contacts for a tenant, ordered by external ID.
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(strings.Split(columns, ", ")...)
	sb.From("contacts")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("external_id")

	query, args := sb.Build()
	var contacts []models.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Error("Failed to list contacts")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list contacts")
	}
	return contacts, nil
}

// BulkUpsert inserts or updates contacts by (tenant_id, external_id).
// Rows with an empty external ID are rejected: a contact's identity is
// always the source system's ID, never a generated one.
func (r *Repository) BulkUpsert(ctx context.Context, tenantID string, contacts []models.Contact) (created, updated int, err error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.BulkUpsert")
	defer span.End()

	if len(contacts) == 0 {
		return 0, 0, nil
	}
	for _, c := range contacts {
		if c.ExternalID == "" {
			return 0, 0, httperror.NewHTTPError(http.StatusBadRequest, "contact with empty external_id cannot be upserted")
		}
	}

	now := time.Now().UTC()
	const cols = 13
	values := make([]string, 0, len(contacts))
	args := make([]any, 0, len(contacts)*cols)
	for i, c := range contacts {
		base := i * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			uuid.New().String(), tenantID, c.ExternalID, c.AccountID, c.Name,
			c.Email, c.Phone, c.DoNotEmail, c.DoNotMail, c.DoNotCall, c.NewFromLeads,
			now, now,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO contacts (
			id, tenant_id, external_id, account_id, name, email, phone,
			do_not_email, do_not_mail, do_not_call, new_from_leads,
			created_at, updated_at
		) VALUES %s
		ON CONFLICT (tenant_id, external_id)
		DO UPDATE SET
			account_id = EXCLUDED.account_id,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			do_not_email = EXCLUDED.do_not_email,
			do_not_mail = EXCLUDED.do_not_mail,
			do_not_call = EXCLUDED.do_not_call,
			new_from_leads = EXCLUDED.new_from_leads,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		RETURNING (xmax = 0) AS inserted
	`, strings.Join(values, ", "))

	var inserted []struct {
		Inserted bool `db:"inserted"`
	}
	if err := r.db.SelectContext(ctx, &inserted, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "count": len(contacts)}).Error("Failed to bulk upsert contacts")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to bulk upsert contacts")
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

// SoftDeleteByExternalIDs marks the given contacts deleted.
func (r *Repository) SoftDeleteByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.SoftDeleteByExternalIDs")
	defer span.End()

	if len(externalIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE contacts
		SET deleted_at = $1
		WHERE tenant_id = $2
		  AND external_id = ANY($3)
		  AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), tenantID, pq.Array(externalIDs))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "count": len(externalIDs)}).Error("Failed to soft delete contacts")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete contacts")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read delete count")
	}
	return affected, nil
}
