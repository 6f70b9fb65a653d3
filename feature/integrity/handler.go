package integrity

import (
	"errors"

	"scan-reconciler/core/logger"
	"scan-reconciler/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.SchemaReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/directories", h.HandleDirectoriesCheck)
	group.Get("/archive", h.HandleArchiveCheck)
	group.Get("/schema", h.HandleSchemaCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Checks the working directories, the snapshot archive bucket and the scan audit table. Disabled backends are reported as such.
// @Tags integrity
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := make(map[string]interface{})

	if missing, err := h.service.CheckDirectories(); err != nil {
		report["directories"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["directories"] = map[string]interface{}{"status": "ok", "missing": missing}
	}

	if archive, err := h.service.CheckArchive(ctx); err != nil {
		report["archive"] = section(err)
	} else {
		report["archive"] = archive
	}

	if schema, err := h.service.CheckSchema(); err != nil {
		report["schema"] = section(err)
	} else {
		report["schema"] = schema
	}

	return c.JSON(report)
}

// HandleDirectoriesCheck checks and optionally creates the working directories.
// @Summary Check Directories
// @Description Checks that the reports, progress and results directories exist. Optionally creates the missing ones.
// @Tags integrity
// @Produce json
// @Security ApiKeyAuth
// @Param fix query boolean false "Create missing directories"
// @Success 200 {object} map[string]interface{} "Directories Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/directories [get]
func (h *Handler) HandleDirectoriesCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.QueryBool("fix")

	missing, err := h.service.CheckDirectories()
	if err != nil {
		l.Error("Directories check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(missing) > 0 {
		l.Warn("Missing directories detected", zap.Strings("missing", missing))

		if fix {
			if err := h.service.FixDirectories(missing); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to create directories",
					"details": err.Error(),
					"missing": missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  missing,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleArchiveCheck checks and optionally creates the archive bucket.
// @Summary Check Archive
// @Description Checks that the archive bucket exists and lists the archived sessions. Optionally creates the bucket.
// @Tags integrity
// @Produce json
// @Security ApiKeyAuth
// @Param fix query boolean false "Create the bucket"
// @Success 200 {object} checks.ArchiveReport "Archive Report"
// @Failure 409 {object} map[string]string "Archive disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/archive [get]
func (h *Handler) HandleArchiveCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	ctx := c.UserContext()

	report, err := h.service.CheckArchive(ctx)
	if err != nil {
		return h.fail(c, l, "Archive check failed", err)
	}

	if !report.Exists && c.QueryBool("fix") {
		if err := h.service.FixArchive(ctx); err != nil {
			return h.fail(c, l, "Failed to create bucket", err)
		}
		if report, err = h.service.CheckArchive(ctx); err != nil {
			return h.fail(c, l, "Archive check failed", err)
		}
	}

	return c.JSON(report)
}

// HandleSchemaCheck checks and optionally migrates the audit table.
// @Summary Check Audit Schema
// @Description Checks that the scan audit table has every column the audit store writes. Optionally migrates it.
// @Tags integrity
// @Produce json
// @Security ApiKeyAuth
// @Param fix query boolean false "Migrate the table"
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 409 {object} map[string]string "Audit disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckSchema()
	if err != nil {
		return h.fail(c, l, "Schema check failed", err)
	}

	if !report.Matched && c.QueryBool("fix") {
		if err := h.service.FixSchema(c.UserContext()); err != nil {
			return h.fail(c, l, "Failed to migrate audit table", err)
		}
		if report, err = h.service.CheckSchema(); err != nil {
			return h.fail(c, l, "Schema check failed", err)
		}
	} else if !report.Matched {
		l.Warn("Audit table incomplete", zap.Strings("missing", report.MissingColumns))
	}

	return c.JSON(report)
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	if errors.Is(err, ErrArchiveDisabled) || errors.Is(err, ErrAuditDisabled) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	l.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func section(err error) map[string]interface{} {
	if errors.Is(err, ErrArchiveDisabled) || errors.Is(err, ErrAuditDisabled) {
		return map[string]interface{}{"status": "disabled"}
	}
	return map[string]interface{}{"status": "error", "error": err.Error()}
}
