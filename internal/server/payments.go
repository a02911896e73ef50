package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
	"github.com/limaskap/limaskap/internal/viewer"
)

// maxWebhookBody bounds provider notification bodies.
const maxWebhookBody = 1 << 20

func (s *Server) CreateChargeSession(c *gin.Context) {
	var req paymentdomain.CreateChargeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.CreateChargeSession(c.Request.Context(), viewer.FromContext(c.Request.Context()), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentStatus(c *gin.Context) {
	resp, err := s.paymentSvc.GetStatusByHandle(c.Request.Context(), strings.TrimSpace(c.Param("handle")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RefreshPayment(c *gin.Context) {
	resp, err := s.paymentSvc.RefreshFromProvider(c.Request.Context(), viewer.FromContext(c.Request.Context()), strings.TrimSpace(c.Param("handle")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// HandleFrisbiiWebhook acknowledges every notification the processor accepts,
// including ones it ignores, so the provider stops retrying them.
func (s *Server) HandleFrisbiiWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	if err := s.webhooks.Process(c.Request.Context(), payload); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
