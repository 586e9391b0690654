package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sharthi/stall-marketplace/internal/dto"
	"github.com/sharthi/stall-marketplace/internal/middleware"
	"github.com/sharthi/stall-marketplace/internal/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// RegisterRoutes mounts the booking routes behind authn.
// limit is applied to the routes that write.
func (h *BookingHandler) RegisterRoutes(e *echo.Echo, authn, limit echo.MiddlewareFunc) {
	e.POST("/bookings", h.CreateBooking, authn, limit)
	e.GET("/bookings/my", h.ListMine, authn)
	e.GET("/bookings/upcoming", h.ListUpcoming, authn)
	e.GET("/bookings/past", h.ListPast, authn)
	e.POST("/bookings/:id/review", h.SubmitReview, authn, limit)
	e.GET("/bookings/invoice/:id", h.GetInvoice, authn)
	e.POST("/bookings/:id/cancel", h.CancelBooking, authn, limit)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := dto.Decode(c.Request().Body, &req); err != nil {
		return badRequest(err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		CreatorID:  middleware.CallerID(c),
		EventID:    req.EventID,
		StallID:    req.StallID,
		Amount:     req.Amount,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, dto.CreateBookingResponse{
		Message: "Booking confirmed",
		Booking: dto.ToBookingResponse(booking),
	})
}

func (h *BookingHandler) ListMine(c echo.Context) error {
	return h.list(c, service.FilterAll)
}

func (h *BookingHandler) ListUpcoming(c echo.Context) error {
	return h.list(c, service.FilterUpcoming)
}

func (h *BookingHandler) ListPast(c echo.Context) error {
	return h.list(c, service.FilterPast)
}

func (h *BookingHandler) list(c echo.Context, filter service.TimeFilter) error {
	bookings, err := h.svc.ListBookings(c.Request().Context(), middleware.CallerID(c), filter)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponses(bookings))
}

func (h *BookingHandler) SubmitReview(c echo.Context) error {
	var req dto.ReviewRequest
	if err := dto.Decode(c.Request().Body, &req); err != nil {
		return badRequest(err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	err := h.svc.SubmitReview(c.Request().Context(), middleware.CallerID(c), c.Param("id"), *req.Rating, req.ReviewText)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Review submitted"})
}

func (h *BookingHandler) GetInvoice(c echo.Context) error {
	invoice, err := h.svc.GenerateInvoice(c.Request().Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	booking, err := h.svc.CancelBooking(c.Request().Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}
