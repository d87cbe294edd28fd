package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecopickup/recycling-tracker/internal/api/metrics"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
)

// HeaderIdempotencyKey lets a client retry a submission safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// RequestHandler handles HTTP requests for pickup request operations.
type RequestHandler struct {
	service ports.RequestService
	metrics *metrics.Metrics
}

func NewRequestHandler(service ports.RequestService, m *metrics.Metrics) *RequestHandler {
	return &RequestHandler{service: service, metrics: m}
}

// Create handles POST /api/requests.
//
// @Summary      Submit a pickup request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Replays the original request when repeated"
// @Param        body             body      createRequestRequest  true   "Pickup details"
// @Success      201              {object}  pickupRequestResponse
// @Success      200              {object}  pickupRequestResponse  "Idempotent replay"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse  "Same Idempotency-Key still in flight"
// @Router       /api/requests [post]
func (h *RequestHandler) Create(c echo.Context) error {
	var req createRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	idempotencyKey := c.Request().Header.Get(HeaderIdempotencyKey)
	result, err := h.service.Create(c.Request().Context(), ctxCaller(c), toCreateInput(req, idempotencyKey))
	if err != nil {
		return err
	}

	if result.Replayed {
		h.metrics.IdempotentReplaysTotal.Inc()
		return c.JSON(http.StatusOK, toRequestResponse(result.Request))
	}

	h.metrics.RequestsCreatedTotal.WithLabelValues(string(result.Request.MaterialType)).Inc()
	return c.JSON(http.StatusCreated, toRequestResponse(result.Request))
}

// List handles GET /api/requests.
//
// @Summary      List pickup requests
// @Description  Returns every match, newest first. Filters are combined.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        userId  query     string  false  "Owner filter"
// @Param        status  query     string  false  "Status filter"  Enums(pending, scheduled, completed)
// @Success      200     {array}   pickupRequestResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /api/requests [get]
func (h *RequestHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context(), ctxCaller(c), ports.ListRequestsInput{
		UserID: c.QueryParam("userId"),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRequestListResponse(items))
}

// UpdateStatus handles PATCH /api/requests/:id.
//
// @Summary      Update a pickup request's status
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Request ID"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  pickupRequestResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/requests/{id} [patch]
func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.service.UpdateStatus(c.Request().Context(), ctxCaller(c), c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	h.metrics.StatusUpdatesTotal.WithLabelValues(string(updated.Status)).Inc()
	return c.JSON(http.StatusOK, toRequestResponse(updated))
}

// Delete handles DELETE /api/requests/:id.
//
// @Summary      Delete a pickup request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/requests/{id} [delete]
func (h *RequestHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), ctxCaller(c), c.Param("id")); err != nil {
		return err
	}

	h.metrics.RequestsDeletedTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Request deleted"})
}
