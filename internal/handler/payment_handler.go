package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type paymentService interface {
	Checkout(ctx context.Context, session *models.Session) (*dto.CheckoutResponse, error)
	ConfirmSuccess(ctx context.Context, session *models.Session, sessionID string) (*dto.PaymentSuccessResponse, error)
}

// PaymentHandler drives the premium upgrade flow.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(service paymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Checkout godoc
// @Summary Start a premium checkout
// @Description Browsers are redirected to the processor; API clients receive the URL
// @Tags Payment
// @Produce json
// @Success 200 {object} response.Envelope
// @Success 303
// @Failure 409 {object} response.Envelope
// @Router /payment/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	out, err := h.service.Checkout(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusSeeOther, out.URL)
		return
	}
	response.JSON(c, http.StatusOK, out)
}

// Success godoc
// @Summary Confirm a completed payment
// @Description Applies premium at most once per processor session
// @Tags Payment
// @Produce json
// @Param session_id query string true "Processor session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payment/success [get]
func (h *PaymentHandler) Success(c *gin.Context) {
	out, err := h.service.ConfirmSuccess(c.Request.Context(), sessionFromContext(c), c.Query("session_id"))
	if err != nil {
		if out != nil && out.Notice.Message != "" {
			response.ErrorWithData(c, err, out)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out)
}
