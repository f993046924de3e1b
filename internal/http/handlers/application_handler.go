// Admin HTTP handlers for applications.
//
//   - GET /admin/applications               (list, paginated, ETag support)
//   - GET /admin/applications/summary       (counts per status)
//   - GET /admin/applications/{id}          (read)
//   - GET /admin/applications/{id}/audit-events
//   - PUT /admin/applications/{id}/status   (review decision)
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/agency-intake/internal/domain"
	"github.com/tbourn/agency-intake/internal/http/middleware"
	"github.com/tbourn/agency-intake/internal/services"
	"github.com/tbourn/agency-intake/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListApplicationsResponse is a page of applications.
type ListApplicationsResponse struct {
	Applications []domain.Application `json:"applications"`
	Pagination   Pagination           `json:"pagination"`
}

// ApplicationSummaryResponse counts applications per status.
type ApplicationSummaryResponse struct {
	Pending  int64 `json:"pending"  example:"12"`
	Approved int64 `json:"approved" example:"30"`
	Rejected int64 `json:"rejected" example:"7"`
	Total    int64 `json:"total"    example:"49"`
}

// UpdateStatusRequest is the review decision payload.
type UpdateStatusRequest struct {
	Status domain.ApplicationStatus `json:"status" binding:"required" enums:"approved,rejected" example:"approved"`
}

// AuditTrailResponse is the audit trail of one application, oldest first.
type AuditTrailResponse struct {
	Events []domain.AuditEvent `json:"events"`
}

// ListApplications godoc
// @ID          listApplications
// @Summary     List applications
// @Description Newest first, optionally filtered by status. Supports weak ETags.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       status         query   string  false "Status filter"  Enums(pending, approved, rejected)
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListApplicationsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad status filter"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/v1/admin/applications [get]
func (h *Handlers) ListApplications(c *gin.Context) {
	ctx := c.Request.Context()
	status, err := services.ParseStatusFilter(c.Query("status"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be pending, approved or rejected")
		return
	}
	page, pageSize := utils.PageParams(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.appSvc.Stats(ctx, status); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"apps:%s:%d:%d:%d:%d"`, status, page, pageSize, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.appSvc.ListPage(ctx, status, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list applications")
		return
	}
	if items == nil {
		items = []domain.Application{}
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListApplicationsResponse{
		Applications: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// ApplicationSummary godoc
// @ID          applicationSummary
// @Summary     Count applications per status
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} handlers.ApplicationSummaryResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/v1/admin/applications/summary [get]
func (h *Handlers) ApplicationSummary(c *gin.Context) {
	counts, err := h.appSvc.Summary(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not count applications")
		return
	}
	resp := ApplicationSummaryResponse{
		Pending:  counts[domain.StatusPending],
		Approved: counts[domain.StatusApproved],
		Rejected: counts[domain.StatusRejected],
	}
	resp.Total = resp.Pending + resp.Approved + resp.Rejected
	ok(c, http.StatusOK, resp)
}

// GetApplication godoc
// @ID          getApplication
// @Summary     Get an application
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Application ID (UUID)"  format(uuid)
// @Success     200  {object} domain.Application
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/v1/admin/applications/{id} [get]
func (h *Handlers) GetApplication(c *gin.Context) {
	id, valid := applicationID(c)
	if !valid {
		return
	}
	app, err := h.appSvc.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "application not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load application")
	default:
		ok(c, http.StatusOK, app)
	}
}

// ApplicationAuditTrail godoc
// @ID          applicationAuditTrail
// @Summary     Audit trail of an application
// @Description Every audit event recorded for the application, oldest first.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Application ID (UUID)"  format(uuid)
// @Success     200  {object} handlers.AuditTrailResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/v1/admin/applications/{id}/audit-events [get]
func (h *Handlers) ApplicationAuditTrail(c *gin.Context) {
	id, valid := applicationID(c)
	if !valid {
		return
	}
	events, err := h.auditSvc.ForApplication(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "application not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list audit events")
	default:
		if events == nil {
			events = []domain.AuditEvent{}
		}
		ok(c, http.StatusOK, AuditTrailResponse{Events: events})
	}
}

// UpdateApplicationStatus godoc
// @ID          updateApplicationStatus
// @Summary     Approve or reject an application
// @Description Only pending applications can be decided. The change and its
// @Description audit event are written atomically.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                         true  "Application ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateStatusRequest   true  "Decision"
// @Success     200  {object} domain.Application
// @Failure     400  {object} handlers.ErrorResponse "Bad id or status"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Failure     409  {object} handlers.ErrorResponse "Not pending"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /api/v1/admin/applications/{id}/status [put]
func (h *Handlers) UpdateApplicationStatus(c *gin.Context) {
	id, valid := applicationID(c)
	if !valid {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be {\"status\": \"approved\"|\"rejected\"}")
		return
	}

	meta := services.RequestMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	app, err := h.appSvc.UpdateStatus(c.Request.Context(), middleware.GetAdminActor(c), id, req.Status, meta)
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be approved or rejected")
	case errors.Is(err, services.ErrApplicationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "application not found")
	case errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeConflict, "application is no longer pending")
	case errors.Is(err, services.ErrInvalidActor):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no authenticated actor")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "could not update application")
	default:
		ok(c, http.StatusOK, app)
	}
}

func applicationID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "application id must be a UUID")
		return "", false
	}
	return id, true
}
