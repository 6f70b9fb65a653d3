package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"scan-reconciler/core/logger"
	"scan-reconciler/core/reconcile"
	"scan-reconciler/feature/report"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LoadRequest is the body of POST /session/load.
type LoadRequest struct {
	Path string `json:"path" validate:"required"`
}

// ItemRequest is one record of POST /session/items.
type ItemRequest struct {
	Code        string            `json:"code" validate:"required,max=64"`
	Branch      string            `json:"branch"`
	SellerID    string            `json:"seller_id"`
	SellerName  string            `json:"seller_name"`
	PaymentDate string            `json:"payment_date"`
	PrizeAmount string            `json:"prize_amount"`
	PrizeType   string            `json:"prize_type"`
	Fields      map[string]string `json:"fields"`
}

// ItemsRequest is the body of POST /session/items.
type ItemsRequest struct {
	Items []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ScanRequest is the body of POST /session/scan.
type ScanRequest struct {
	Code string `json:"code" validate:"required,max=255"`
}

// SnapshotRequest is the body of POST /session/snapshot.
type SnapshotRequest struct {
	Path    string `json:"path"`
	Format  string `json:"format" validate:"omitempty,oneof=full compact"`
	Archive bool   `json:"archive"`
}

// RestoreRequest is the body of POST /session/restore.
type RestoreRequest struct {
	Path string `json:"path" validate:"required"`
}

// ExportRequest is the body of POST /session/export.
type ExportRequest struct {
	Path    string `json:"path"`
	Shape   string `json:"shape" validate:"omitempty,oneof=marker full"`
	Archive bool   `json:"archive"`
}

// Handler handles HTTP requests for the reconciliation session.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{service: service, validate: v}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/session")
	group.Get("/", h.HandleInfo)
	group.Post("/load", h.HandleLoad)
	group.Post("/items", h.HandleItems)
	group.Post("/scan", h.HandleScan)
	group.Get("/statistics", h.HandleStatistics)
	group.Get("/pending", h.HandlePending)
	group.Get("/scans", h.HandleScans)
	group.Get("/summary", h.HandleSummary)
	group.Get("/audit", h.HandleAudit)
	group.Post("/snapshot", h.HandleSnapshot)
	group.Post("/restore", h.HandleRestore)
	group.Post("/end", h.HandleEnd)
	group.Post("/export", h.HandleExport)
	group.Post("/reset", h.HandleReset)
}

// parse decodes and validates a request body. It returns false after writing
// the error response.
func (h *Handler) parse(c *fiber.Ctx, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			name := fe.Namespace()
			if _, rest, ok := strings.Cut(name, "."); ok {
				name = rest
			}
			fields[name] = fe.Tag()
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	}
	return true, nil
}

// fail maps a service error to an HTTP status.
func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidArgument):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrNoReport), errors.Is(err, ErrSessionEnded),
		errors.Is(err, ErrArchiveDisabled), errors.Is(err, ErrAuditDisabled):
		status = fiber.StatusConflict
	case errors.Is(err, report.ErrLoad), errors.Is(err, reconcile.ErrValidation),
		errors.Is(err, reconcile.ErrDuplicateKey), errors.Is(err, reconcile.ErrPersistence):
		status = fiber.StatusUnprocessableEntity
	}

	l := logger.WithRayID(h.service.logger, c)
	if status == fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// confine resolves a request path inside base. Absolute paths and paths
// that climb out of base are rejected.
func confine(base, path string) (string, error) {
	if filepath.IsAbs(path) || filepath.VolumeName(path) != "" {
		return "", fmt.Errorf("%w: path must be relative: %s", ErrInvalidArgument, path)
	}
	full := filepath.Join(base, path)
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes %s: %s", ErrInvalidArgument, base, path)
	}
	return full, nil
}

// HandleInfo returns the active session.
// @Summary Session Info
// @Description Returns the identifier, timing and statistics of the active session.
// @Tags session
// @Produce json
// @Success 200 {object} Info
// @Failure 409 {object} map[string]string "No active session"
// @Router /session [get]
func (h *Handler) HandleInfo(c *fiber.Ctx) error {
	info, err := h.service.Info()
	if err != nil {
		return h.fail(c, "Session info failed", err)
	}
	return c.JSON(info)
}

// HandleLoad loads a report file and starts a session.
// @Summary Load Report
// @Description Reads a CSV or XLSX report from the reports directory and starts a new session with its items. Any previous session is discarded. The path is relative to the reports directory.
// @Tags session
// @Accept json
// @Produce json
// @Param request body LoadRequest true "Report path"
// @Success 200 {object} LoadResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 422 {object} map[string]string "Report could not be loaded"
// @Router /session/load [post]
func (h *Handler) HandleLoad(c *fiber.Ctx) error {
	var req LoadRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	path, err := confine(h.service.cfg.ReportsDir, req.Path)
	if err != nil {
		return h.fail(c, "Report path rejected", err)
	}

	l := logger.WithRayID(h.service.logger, c)
	l.Info("Loading report", zap.String("path", path))

	res, err := h.service.LoadReport(c.UserContext(), path)
	if err != nil {
		return h.fail(c, "Report load failed", err)
	}
	return c.JSON(res)
}

// HandleItems starts a session from records in the request body.
// @Summary Load Items
// @Description Starts a new session from the given records. Invalid records are skipped and listed; a repeated code rejects the whole load.
// @Tags session
// @Accept json
// @Produce json
// @Param request body ItemsRequest true "Records"
// @Success 200 {object} LoadResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 422 {object} map[string]string "Duplicate code"
// @Router /session/items [post]
func (h *Handler) HandleItems(c *fiber.Ctx) error {
	var req ItemsRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	records := make([]reconcile.Record, 0, len(req.Items))
	for _, it := range req.Items {
		records = append(records, reconcile.Record{
			Code:        it.Code,
			Branch:      it.Branch,
			SellerID:    it.SellerID,
			SellerName:  it.SellerName,
			PaymentDate: it.PaymentDate,
			PrizeAmount: it.PrizeAmount,
			PrizeType:   it.PrizeType,
			Fields:      it.Fields,
		})
	}

	res, err := h.service.LoadItems(records)
	if err != nil {
		return h.fail(c, "Item load failed", err)
	}
	return c.JSON(res)
}

// HandleScan processes one scanner input.
// @Summary Process Scan
// @Description Matches a raw scanner input against the session items. The result kind is SUCCESS, DUPLICATE or NOT_FOUND.
// @Tags session
// @Accept json
// @Produce json
// @Param request body ScanRequest true "Scanner input"
// @Success 200 {object} reconcile.ScanResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 409 {object} map[string]string "No active session"
// @Router /session/scan [post]
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	var req ScanRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	res, err := h.service.Scan(c.UserContext(), req.Code)
	if err != nil {
		return h.fail(c, "Scan failed", err)
	}
	return c.JSON(res)
}

// HandleStatistics returns the session statistics.
// @Summary Statistics
// @Description Returns total, scanned, duplicate and pending counts of the active session.
// @Tags session
// @Produce json
// @Success 200 {object} reconcile.Statistics
// @Failure 409 {object} map[string]string "No active session"
// @Router /session/statistics [get]
func (h *Handler) HandleStatistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics()
	if err != nil {
		return h.fail(c, "Statistics failed", err)
	}
	return c.JSON(stats)
}

// HandlePending lists the items not scanned yet.
// @Summary Pending Items
// @Description Lists the items still pending, in report order.
// @Tags session
// @Produce json
// @Success 200 {object} map[string]interface{} "Pending items"
// @Failure 409 {object} map[string]string "No active session"
// @Router /session/pending [get]
func (h *Handler) HandlePending(c *fiber.Ctx) error {
	items, err := h.service.PendingItems()
	if err != nil {
		return h.fail(c, "Pending items failed", err)
	}
	return c.JSON(fiber.Map{
		"count": len(items),
		"items": items,
	})
}

// HandleScans returns the tail of the scan log.
// @Summary Recent Scans
// @Description Returns the most recent scans, oldest first.
// @Tags session
// @Produce json
// @Param limit query int false "Number of scans"
// @Success 200 {array} reconcile.ScanResult
// @Failure 409 {object} map[string]string "No active session"
// @Router /session/scans [get]
func (h *Handler) HandleScans(c *fiber.Ctx) error {
	scans, err := h.service.RecentScans(c.QueryInt("limit", 0))
	if err != nil {
		return h.fail(c, "Recent scans failed", err)
	}
	return c.JSON(scans)
}

// HandleSummary summarizes the loaded report.
// @Summary Report Summary
// @Description Returns row counts, detected columns, branch distribution, top sellers and prize totals of the loaded report.
// @Tags session
// @Produce json
// @Success 200 {object} report.Summary
// @Failure 409 {object} map[string]string "No report loaded"
// @Router /session/summary [get]
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	sum, err := h.service.Summary()
	if err != nil {
		return h.fail(c, "Summary failed", err)
	}
	return c.JSON(sum)
}

// HandleAudit returns the persisted scan history.
// @Summary Scan Audit
// @Description Returns the scans of the active session stored in the database, with counts per result.
// @Tags session
// @Produce json
// @Param limit query int false "Number of records"
// @Success 200 {object} AuditLog
// @Failure 409 {object} map[string]string "Audit disabled or no active session"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /session/audit [get]
func (h *Handler) HandleAudit(c *fiber.Ctx) error {
	log, err := h.service.AuditLog(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return h.fail(c, "Audit log failed", err)
	}
	return c.JSON(log)
}

// HandleSnapshot saves the session progress.
// @Summary Save Snapshot
// @Description Writes the session to a JSON snapshot in the progress directory. The path is relative to that directory; without one the file name is generated. With archive set it is also uploaded to storage.
// @Tags session
// @Accept json
// @Produce json
// @Param request body SnapshotRequest false "Snapshot options"
// @Success 200 {object} SaveResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 409 {object} map[string]string "No active session"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /session/snapshot [post]
func (h *Handler) HandleSnapshot(c *fiber.Ctx) error {
	var req SnapshotRequest
	if len(c.Body()) > 0 {
		if ok, err := h.parse(c, &req); !ok {
			return err
		}
	}

	path := ""
	if req.Path != "" {
		var err error
		if path, err = confine(h.service.cfg.ProgressDir, req.Path); err != nil {
			return h.fail(c, "Snapshot path rejected", err)
		}
	}

	res, err := h.service.SaveSnapshot(c.UserContext(), path, req.Format, req.Archive)
	if err != nil {
		return h.fail(c, "Snapshot failed", err)
	}
	res.File = relativeTo(h.service.cfg.ProgressDir, res.Path)
	return c.JSON(res)
}

// HandleRestore restores a session from a snapshot.
// @Summary Restore Snapshot
// @Description Replaces the active session with the one stored in a snapshot file of the progress directory. Compact snapshots are applied over the loaded report.
// @Tags session
// @Accept json
// @Produce json
// @Param request body RestoreRequest true "Snapshot path"
// @Success 200 {object} RestoreResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 422 {object} map[string]string "Snapshot could not be read"
// @Router /session/restore [post]
func (h *Handler) HandleRestore(c *fiber.Ctx) error {
	var req RestoreRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}

	path, err := confine(h.service.cfg.ProgressDir, req.Path)
	if err != nil {
		return h.fail(c, "Snapshot path rejected", err)
	}

	res, err := h.service.RestoreSnapshot(c.UserContext(), path)
	if err != nil {
		return h.fail(c, "Restore failed", err)
	}
	return c.JSON(res)
}

// HandleEnd finishes the session.
// @Summary End Session
// @Description Marks the session as ended and, when enabled, exports the results workbook.
// @Tags session
// @Produce json
// @Success 200 {object} EndResult
// @Failure 409 {object} map[string]string "No active session or already ended"
// @Router /session/end [post]
func (h *Handler) HandleEnd(c *fiber.Ctx) error {
	res, err := h.service.End(c.UserContext())
	if err != nil {
		return h.fail(c, "End session failed", err)
	}
	return c.JSON(res)
}

// HandleExport writes the augmented report.
// @Summary Export Results
// @Description Writes the report with scan results as CSV or XLSX in the results directory. The path is relative to that directory; without one a workbook name is generated.
// @Tags session
// @Accept json
// @Produce json
// @Param request body ExportRequest false "Export options"
// @Success 200 {object} SaveResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 409 {object} map[string]string "No active session"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /session/export [post]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	var req ExportRequest
	if len(c.Body()) > 0 {
		if ok, err := h.parse(c, &req); !ok {
			return err
		}
	}

	path := ""
	if req.Path != "" {
		var err error
		if path, err = confine(h.service.cfg.ResultsDir, req.Path); err != nil {
			return h.fail(c, "Export path rejected", err)
		}
	}

	res, err := h.service.Export(c.UserContext(), path, req.Shape, req.Archive)
	if err != nil {
		return h.fail(c, "Export failed", err)
	}
	res.File = relativeTo(h.service.cfg.ResultsDir, res.Path)
	return c.JSON(res)
}

// HandleReset discards the session.
// @Summary Reset Session
// @Description Discards the active session and the loaded report.
// @Tags session
// @Produce json
// @Success 200 {object} map[string]string "Reset"
// @Router /session/reset [post]
func (h *Handler) HandleReset(c *fiber.Ctx) error {
	h.service.Reset()
	return c.JSON(fiber.Map{"status": "reset"})
}

// relativeTo returns path relative to base, or "" when it lies outside.
func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return rel
}
