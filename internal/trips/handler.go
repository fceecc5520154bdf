package trips

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"tripboard/internal/logger"
	"tripboard/pkg/errors"
)

// Booking references are uppercase alphanumeric, 5 to 8 characters.
var referencePattern = regexp.MustCompile(`^[A-Z0-9]{5,8}$`)

type Handler struct {
	Service Service
	Logger  logger.Logger
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/bookings/:reference", h.GetBooking)
		v1.GET("/customers/:id/bookings", h.GetCustomerBookings)
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

func (h *Handler) GetBooking(c *gin.Context) {
	reference := c.Param("reference")
	if !referencePattern.MatchString(reference) {
		h.handleError(c, errors.ErrValidation.
			WithMessage("invalid booking reference").
			WithDetail("booking_reference", reference))
		return
	}

	result, err := h.Service.Aggregate(c.Request.Context(), reference)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetCustomerBookings(c *gin.Context) {
	customerID := c.Param("id")
	if customerID == "" {
		h.handleError(c, errors.ErrValidation.WithMessage("customer id is required"))
		return
	}

	results, err := h.Service.AggregateByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
