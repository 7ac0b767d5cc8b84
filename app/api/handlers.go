package api

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/standards-comb/app/checker"
	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/database"
	"github.com/lysyi3m/standards-comb/app/standards"
	"github.com/lysyi3m/standards-comb/app/tasks"
)

const (
	maxUploadSize  = 32 << 20
	defaultHistory = 20
)

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("certificate too large")
)

// upstreamOperations fail with 502 when the official sources cannot be read.
var upstreamOperations = map[string]bool{
	"get_official": true,
	"get_journal":  true,
	"search":       true,
	"compare":      true,
	"compare_all":  true,
}

func NewHandler(ch CheckerInterface, directives *config.DirectiveCache, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		checker:    ch,
		directives: directives,
		scheduler:  scheduler,
		maxUpload:  maxUploadSize,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.directives.GetConfigCount(),
		"enabled_directives":    len(h.directives.GetEnabledConfigs()),
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListDirectives(c *gin.Context) {
	list := h.checker.Directives()

	directives := make([]map[string]interface{}, 0, len(list))
	for _, d := range list {
		directives = append(directives, map[string]interface{}{
			"code":             d.Code,
			"name":             d.Name,
			"directive":        d.Directive,
			"decision":         d.Decision,
			"url":              d.URL,
			"journal":          d.JournalFeedURL != "",
			"enabled":          d.Settings.Enabled,
			"refresh_interval": d.Settings.GetRefreshInterval().String(),
			"amendments":       len(d.Amendments),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"directives": directives,
		"total":      len(directives),
	})
}

func (h *Handler) GetOfficialStandards(c *gin.Context) {
	code := c.Param("code")

	list, err := h.checker.OfficialStandards(c.Request.Context(), code)
	if err != nil {
		h.fail(c, "get_official", code, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"directive": strings.ToUpper(code),
		"standards": list,
		"total":     len(list),
	})
}

func (h *Handler) GetJournalNotices(c *gin.Context) {
	code := c.Param("code")

	notices, err := h.checker.JournalNotices(c.Request.Context(), code)
	if err != nil {
		h.fail(c, "get_journal", code, err)
		return
	}

	if articles, _ := strconv.ParseBool(c.Query("articles")); articles {
		notices = h.checker.ReadNotices(c.Request.Context(), notices)
	}

	unrecorded := 0
	for _, n := range notices {
		if !n.Known {
			unrecorded++
		}
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"directive":  strings.ToUpper(code),
		"notices":    notices,
		"total":      len(notices),
		"unrecorded": unrecorded,
	})
}

// RefreshDirective reloads a directive's configuration from disk and queues
// a refresh of its official list.
func (h *Handler) RefreshDirective(c *gin.Context) {
	code := c.Param("code")

	existing, err := h.directives.GetConfig(code)
	if err != nil {
		h.fail(c, "refresh", code, err)
		return
	}

	directive, err := h.directives.LoadConfig(existing.Code)
	if err != nil {
		slog.Error("Error reloading configuration", "directive", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	task := tasks.NewRefreshOfficialTask(directive, h.checker)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing refresh task", "directive", directive.Code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Configuration reloaded and refresh task enqueued",
		"directive": gin.H{
			"code": directive.Code,
			"name": directive.Name,
			"url":  directive.URL,
		},
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter q"})
		return
	}

	results, err := h.checker.Search(c.Request.Context(), query, c.Query("directive"))
	if err != nil {
		h.fail(c, "search", c.Query("directive"), err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"query":     query,
		"standards": results,
		"total":     len(results),
	})
}

func (h *Handler) Extract(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		h.fail(c, "extract", "", err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"scope":      scope,
		"categories": scope.ByCategory(),
		"total":      len(scope.Standards),
	})
}

func (h *Handler) Compare(c *gin.Context) {
	code := c.Param("code")

	scope, err := h.scope(c)
	if err != nil {
		h.fail(c, "compare", code, err)
		return
	}

	outcome, err := h.checker.Compare(c.Request.Context(), code, scope)
	if err != nil {
		h.fail(c, "compare", code, err)
		return
	}

	c.JSON(http.StatusOK, comparisonResponse{
		ID:        outcome.ID,
		Directive: outcome.Directive,
		Source:    outcome.Source,
		Summary:   outcome.Result.Summary(),
		Gaps:      outcome.Result.Gaps(),
		Result:    outcome.Result,
	})
}

func (h *Handler) CompareAll(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		h.fail(c, "compare_all", "", err)
		return
	}

	results, err := h.checker.CompareAll(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, "compare_all", "", err)
		return
	}

	summaries := make(map[string]standards.Summary, len(results))
	for code, result := range results {
		summaries[code] = result.Summary()
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"source":    scope.Source,
		"best":      standards.BestDirective(results),
		"summaries": summaries,
		"results":   results,
	})
}

func (h *Handler) ListComparisons(c *gin.Context) {
	limit := defaultHistory
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = n
	}

	list, err := h.checker.History(c.Query("directive"), limit)
	if err != nil {
		h.fail(c, "list_comparisons", c.Query("directive"), err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"comparisons": list,
		"total":       len(list),
	})
}

func (h *Handler) GetComparison(c *gin.Context) {
	id := c.Param("id")

	comparison, err := h.checker.Comparison(id)
	if err != nil {
		h.fail(c, "get_comparison", "", err)
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// scope reads a certificate from a multipart "certificate" file or from a
// JSON body carrying its text.
func (h *Handler) scope(c *gin.Context) (standards.AccreditationScope, error) {
	if header, err := c.FormFile("certificate"); err == nil {
		file, err := header.Open()
		if err != nil {
			return standards.AccreditationScope{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		defer file.Close()

		if header.Size > h.maxUpload {
			return standards.AccreditationScope{}, fmt.Errorf("%w: %d bytes, limit %d", errTooLarge, header.Size, h.maxUpload)
		}

		data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
		if err != nil {
			return standards.AccreditationScope{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if int64(len(data)) > h.maxUpload {
			return standards.AccreditationScope{}, fmt.Errorf("%w: limit %d bytes", errTooLarge, h.maxUpload)
		}
		return h.checker.ScopeFromUpload(header.Filename, data)
	}

	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return standards.AccreditationScope{}, fmt.Errorf("%w: expected a certificate file or JSON text", errBadRequest)
	}
	if strings.TrimSpace(req.Text) == "" {
		return standards.AccreditationScope{}, fmt.Errorf("%w: text is empty", errBadRequest)
	}

	return h.checker.ScopeFromText(req.Text, cmp.Or(req.Source, "request")), nil
}

// fail maps err to a status code and writes it as JSON.
func (h *Handler) fail(c *gin.Context, operation, code string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, config.ErrDirectiveNotFound),
		errors.Is(err, database.ErrNotFound),
		errors.Is(err, checker.ErrNoJournalFeed):
		status = http.StatusNotFound
	case errors.Is(err, checker.ErrNoStandards):
		status = http.StatusUnprocessableEntity
	case upstreamOperations[operation]:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "directive", code, "error", err)
	} else {
		slog.Debug("Request rejected", "operation", operation, "directive", code, "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
