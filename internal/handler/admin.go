package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpool/internal/model"
	"carpool/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	auth   *service.AuthService
	roster *service.RosterService
	audit  *service.AuditService
	diag   *service.DiagService
}

func NewAdminHandler(auth *service.AuthService, roster *service.RosterService, audit *service.AuditService, diag *service.DiagService) *AdminHandler {
	return &AdminHandler{auth: auth, roster: roster, audit: audit, diag: diag}
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

// POST /api/admin/users  body: {"username":"...","password":"...","is_admin":false}
func (h *AdminHandler) SaveUser(c *gin.Context) {
	var req model.SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	u, err := h.auth.SaveUser(c.Request.Context(), req.Username, req.Password, req.IsAdmin)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/admin/users/:username/reset  body: {"password":"...","is_admin":false}
func (h *AdminHandler) ResetUser(c *gin.Context) {
	var req model.ResetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.auth.ResetUser(c.Request.Context(), c.Param("username"), req.Password, req.IsAdmin); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/admin/members
func (h *AdminHandler) ListMembers(c *gin.Context) {
	members, err := h.roster.Members(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// PATCH /api/admin/members/:key  body: {"active":false}
func (h *AdminHandler) SetMemberActive(c *gin.Context) {
	var req model.SetMemberActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		badRequest(c)
		return
	}
	key := strings.ToUpper(c.Param("key"))
	members, err := h.roster.SetActive(c.Request.Context(), key, *req.Active)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func auditQuery(c *gin.Context) service.AuditQuery {
	return service.AuditQuery{
		Member: c.Query("member"),
		Role:   c.Query("role"),
		Start:  c.Query("start"),
		End:    c.Query("end"),
		Query:  c.Query("q"),
	}
}

// GET /api/admin/audit?member=&role=&start=&end=&q=
func (h *AdminHandler) Audit(c *gin.Context) {
	entries, err := h.audit.List(c.Request.Context(), auditQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

// GET /api/admin/audit/export  same filters as /audit
func (h *AdminHandler) ExportAudit(c *gin.Context) {
	var buf bytes.Buffer
	n, err := h.audit.Export(c.Request.Context(), auditQuery(c), &buf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="carpool-audit.xlsx"`)
	c.Header("X-Row-Count", fmt.Sprint(n))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GET /api/admin/diag
func (h *AdminHandler) Diag(c *gin.Context) {
	report, err := h.diag.Report(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
