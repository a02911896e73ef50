package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/limaskap/limaskap/internal/organization/domain"
	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/limaskap/limaskap/pkg/db/pagination"
)

func (s *Server) ListOrganizations(c *gin.Context) {
	resp, err := s.organizationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateOrganization(c *gin.Context) {
	var req organizationdomain.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.organizationSvc.Create(c.Request.Context(), viewer.FromContext(c.Request.Context()), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetOrganization(c *gin.Context) {
	id, err := pathID(c, "id", organizationdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.organizationSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrganizationWithPrograms(c *gin.Context) {
	id, err := pathID(c, "id", organizationdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.organizationSvc.GetWithPrograms(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrganizationEnrollments(c *gin.Context) {
	id, err := pathID(c, "id", organizationdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.enrollmentSvc.ListByOrganization(c.Request.Context(), viewer.FromContext(c.Request.Context()), id, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePaymentSettings(c *gin.Context) {
	id, err := pathID(c, "id", organizationdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req organizationdomain.PaymentSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.organizationSvc.UpdatePaymentSettings(c.Request.Context(), viewer.FromContext(c.Request.Context()), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrganizationBySubdomain(c *gin.Context) {
	resp, err := s.organizationSvc.GetBySubdomain(c.Request.Context(), strings.TrimSpace(c.Param("subdomain")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProgramsBySubdomain(c *gin.Context) {
	resp, err := s.organizationSvc.ProgramsBySubdomain(c.Request.Context(), strings.TrimSpace(c.Param("subdomain")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProgramBySubdomain(c *gin.Context) {
	programID, err := pathID(c, "programId", programdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.organizationSvc.ProgramBySubdomain(c.Request.Context(), strings.TrimSpace(c.Param("subdomain")), programID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
