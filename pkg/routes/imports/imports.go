// Package imports exposes the import workflow over HTTP: session
// lifecycle, sheet uploads, the merge preview and review endpoints,
// manual jobsite linking, commit and orphan purge.
package imports

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/appcontext"
	"github.com/Ramsey-B/clover/pkg/imports"
	"github.com/Ramsey-B/clover/pkg/models"
)

var validate = validator.New()

// Handler handles import workflow routes
type Handler struct {
	service *imports.Service
	logger  ectologger.Logger
}

// NewHandler creates a new import handler
func NewHandler(service *imports.Service, logger ectologger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register registers import routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.CreateSession)
	g.GET("/runs", h.ListRuns)
	g.POST("/orphans/purge", h.PurgeOrphans)
	g.GET("/:id", h.GetSession)
	g.POST("/:id/sheets/:kind", h.UploadSheet)
	g.GET("/:id/preview", h.Preview)
	g.GET("/:id/comparison", h.Comparison)
	g.GET("/:id/validation", h.Validation)
	g.PUT("/:id/jobsites/:externalId/link", h.LinkJobsite)
	g.POST("/:id/commit", h.Commit)
}

func tenantID(c echo.Context) (string, error) {
	id := appcontext.GetTenantID(c.Request().Context())
	if id == "" {
		return "", httperror.NewHTTPError(http.StatusUnauthorized, "tenant is required")
	}
	return id, nil
}

// CreateSession starts a new import session
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	session, err := h.service.CreateSession(ctx, tenant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, session)
}

// GetSession returns a session with its upload progress
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	session, err := h.service.GetSession(ctx, tenant, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// UploadSheet accepts one export file as multipart form data under the
// "file" field and parses it into the session.
func (h *Handler) UploadSheet(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	kind := models.SheetKind(c.Param("kind"))
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer file.Close()

	stats, err := h.service.UploadSheet(ctx, tenant, c.Param("id"), kind, fileHeader.Filename, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "kind": kind, "stats": stats})
}

// Preview returns the merged output with linkage statistics
func (h *Handler) Preview(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Preview(ctx, tenant, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.MergePreviewResponse{Success: true, Result: result})
}

// Comparison returns the diff of the merge output against storage
func (h *Handler) Comparison(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Comparison(ctx, tenant, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.ComparisonResponse{Success: true, Result: result})
}

// Validation returns reference integrity errors and warnings
func (h *Handler) Validation(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Validation(ctx, tenant, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.ValidationResponse{Success: true, Result: result})
}

// LinkJobsite sets or clears a jobsite's account link and returns the
// recomputed merge result
func (h *Handler) LinkJobsite(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	var req models.LinkJobsiteRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.LinkJobsite(ctx, tenant, c.Param("id"), c.Param("externalId"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.MergePreviewResponse{Success: true, Result: result})
}

// Commit pushes the merge output to storage
func (h *Handler) Commit(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Commit(ctx, tenant, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// PurgeOrphans soft deletes operator-confirmed orphaned records
func (h *Handler) PurgeOrphans(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	var req models.PurgeOrphansRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid purge request: %v", err)
	}

	deleted, err := h.service.PurgeOrphans(ctx, tenant, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.PurgeOrphansResponse{Success: true, Deleted: deleted})
}

// ListRuns lists the tenant's committed import runs
func (h *Handler) ListRuns(c echo.Context) error {
	ctx := c.Request().Context()
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.service.ImportRuns(ctx, tenant, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.ImportRunListResponse{Success: true, Data: runs})
}
