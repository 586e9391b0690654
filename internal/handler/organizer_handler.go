package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sharthi/stall-marketplace/internal/dto"
	"github.com/sharthi/stall-marketplace/internal/middleware"
	"github.com/sharthi/stall-marketplace/internal/service"
)

type OrganizerHandler struct {
	svc service.DashboardService
}

func NewOrganizerHandler(svc service.DashboardService) *OrganizerHandler {
	return &OrganizerHandler{svc: svc}
}

func (h *OrganizerHandler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc) {
	e.GET("/organizer/dashboard", h.Dashboard, authn)
	e.GET("/organizer/me/bookings", h.MyBookings, authn)
	e.GET("/organizer/me/stats", h.MyStats, authn)
}

func (h *OrganizerHandler) Dashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context(), middleware.CallerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToDashboardResponse(d))
}

func (h *OrganizerHandler) MyBookings(c echo.Context) error {
	bookings, err := h.svc.RecentBookings(c.Request().Context(), middleware.CallerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrganizerBookingResponses(bookings))
}

func (h *OrganizerHandler) MyStats(c echo.Context) error {
	s, err := h.svc.Stats(c.Request().Context(), middleware.CallerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.OrganizerStatsResponse{
		TotalEvents:   s.TotalEvents,
		TotalBookings: s.TotalBookings,
		Revenue:       s.Revenue,
	})
}
