package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/middleware"
	"carpool/internal/model"
	"carpool/internal/service"
)

type ScheduleHandler struct{ svc *service.ScheduleService }

func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// GET /api/today?day=2024-03-01
func (h *ScheduleHandler) Today(c *gin.Context) {
	view, err := h.svc.Today(c.Request.Context(), c.Query("day"), middleware.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/days/:day
func (h *ScheduleHandler) GetDay(c *gin.Context) {
	view, err := h.svc.Day(c.Request.Context(), c.Param("day"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PUT /api/days/:day  body: {"roles":{"CA":"D","ER":"R"}}
func (h *ScheduleHandler) SaveDay(c *gin.Context) {
	var req model.SaveDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	resp, err := h.svc.SaveDay(c.Request.Context(), c.Param("day"), req.Roles, middleware.UserName(c), middleware.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/history?start=&end=
func (h *ScheduleHandler) History(c *gin.Context) {
	rows, err := h.svc.History(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/stats
func (h *ScheduleHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
