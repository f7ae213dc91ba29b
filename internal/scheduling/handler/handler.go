// Package handler exposes slot availability over HTTP.
package handler

import (
	"net/http"
	"time"

	"funil_backend/internal/scheduling/service"
	"funil_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.UnitSlots)
	rg.GET("/pair-slots", h.PairSlots)
}

func (h *Handler) UnitSlots(c *gin.Context) {
	unitID, err := uuid.Parse(c.Query("unitId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "unitId is required")
		return
	}
	date, ok := parseDate(c)
	if !ok {
		return
	}

	resp, err := h.svc.UnitSlots(c.Request.Context(), unitID, date)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) PairSlots(c *gin.Context) {
	roomID, err := uuid.Parse(c.Query("roomId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "roomId is required")
		return
	}
	date, ok := parseDate(c)
	if !ok {
		return
	}

	resp, err := h.svc.PairSlots(c.Request.Context(), roomID, date)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func parseDate(c *gin.Context) (time.Time, bool) {
	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.Local)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
