package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	enrollmentdomain "github.com/limaskap/limaskap/internal/enrollment/domain"
	"github.com/limaskap/limaskap/internal/viewer"
)

func (s *Server) CreateEnrollment(c *gin.Context) {
	var req enrollmentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.enrollmentSvc.CreateWithCheckout(c.Request.Context(), viewer.FromContext(c.Request.Context()), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetEnrollmentByInvoiceHandle(c *gin.Context) {
	resp, err := s.enrollmentSvc.GetByInvoiceHandle(c.Request.Context(), strings.TrimSpace(c.Param("invoiceHandle")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEnrollment(c *gin.Context) {
	id, err := pathID(c, "id", enrollmentdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.enrollmentSvc.GetByID(c.Request.Context(), viewer.FromContext(c.Request.Context()), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelEnrollment(c *gin.Context) {
	id, err := pathID(c, "id", enrollmentdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.enrollmentSvc.Cancel(c.Request.Context(), viewer.FromContext(c.Request.Context()), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEnrollmentReceipt(c *gin.Context) {
	id, err := pathID(c, "id", enrollmentdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.enrollmentSvc.Receipt(c.Request.Context(), viewer.FromContext(c.Request.Context()), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := "receipt-" + strconv.FormatInt(id, 10) + ".pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
