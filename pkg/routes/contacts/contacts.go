// Package contacts exposes contact listing and the bulk upsert endpoint.
package contacts

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/appcontext"
	"github.com/Ramsey-B/clover/pkg/imports"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Handler handles contact routes
type Handler struct {
	repo   imports.ContactRepository
	logger ectologger.Logger
}

// NewHandler creates a new contact handler
func NewHandler(repo imports.ContactRepository, logger ectologger.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Register registers contact routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Bulk)
}

// List returns all contacts for the tenant
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant is required")
	}

	contacts, err := h.repo.List(ctx, tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.ContactListResponse{Success: true, Data: contacts})
}

// Bulk handles the bulk upsert action envelope
func (h *Handler) Bulk(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant is required")
	}

	var req models.BulkRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Action != models.BulkActionUpsert {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported action %q", req.Action)
	}
	if req.Data.LookupField != "" && req.Data.LookupField != models.DefaultLookupField {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported lookup field %q", req.Data.LookupField)
	}

	created, updated, err := h.repo.BulkUpsert(ctx, tenantID, req.Data.Contacts)
	if err != nil {
		return c.JSON(http.StatusOK, models.BulkResponse{Error: err.Error()})
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"created": created,
		"updated": updated,
	}).Info("Bulk upserted contacts")

	return c.JSON(http.StatusOK, models.BulkResponse{
		Success: true,
		Created: created,
		Updated: updated,
		Total:   created + updated,
	})
}
