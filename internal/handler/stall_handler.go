package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sharthi/stall-marketplace/internal/dto"
	"github.com/sharthi/stall-marketplace/internal/middleware"
	"github.com/sharthi/stall-marketplace/internal/service"
)

type StallHandler struct {
	svc service.StallService
}

func NewStallHandler(svc service.StallService) *StallHandler {
	return &StallHandler{svc: svc}
}

// RegisterRoutes mounts the public listing and the organizer routes behind authn.
func (h *StallHandler) RegisterRoutes(e *echo.Echo, authn, limit echo.MiddlewareFunc) {
	e.GET("/events/:id/stalls", h.ListStalls)
	e.POST("/events/:id/stalls", h.CreateStall, authn, limit)
	e.PATCH("/stalls/:id", h.EditStall, authn, limit)
	e.DELETE("/stalls/:id", h.DeleteStall, authn, limit)
}

func (h *StallHandler) ListStalls(c echo.Context) error {
	stalls, err := h.svc.ListStalls(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToStallResponses(stalls))
}

func (h *StallHandler) CreateStall(c echo.Context) error {
	var req dto.CreateStallRequest
	if err := dto.Decode(c.Request().Body, &req); err != nil {
		return badRequest(err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	stall, err := h.svc.CreateStall(c.Request().Context(), middleware.CallerID(c), c.Param("id"), service.StallInput{
		Name:     req.Name,
		Tier:     req.Tier,
		Price:    *req.Price,
		QtyTotal: *req.QtyTotal,
		Specs:    req.Specs,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToStallResponse(stall))
}

func (h *StallHandler) EditStall(c echo.Context) error {
	var req dto.EditStallRequest
	if err := dto.Decode(c.Request().Body, &req); err != nil {
		return badRequest(err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	stall, err := h.svc.EditStall(c.Request().Context(), middleware.CallerID(c), c.Param("id"), service.StallPatch{
		Name:     req.Name,
		Tier:     req.Tier,
		Price:    req.Price,
		QtyTotal: req.QtyTotal,
		Specs:    req.Specs,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToStallResponse(stall))
}

func (h *StallHandler) DeleteStall(c echo.Context) error {
	if err := h.svc.DeleteStall(c.Request().Context(), middleware.CallerID(c), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Stall deleted"})
}
