package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
)

func (s *Server) ListPrograms(c *gin.Context) {
	var query struct {
		OrganizationID string `form:"organizationId"`
		Published      string `form:"published"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orgID, err := parseOptionalInt64(query.OrganizationID)
	if err != nil {
		AbortWithError(c, validation.Fail("organizationId", "invalid_organization_id", "must be an integer"))
		return
	}
	published, err := parseOptionalBool(query.Published)
	if err != nil {
		AbortWithError(c, validation.Fail("published", "invalid_published", "must be a boolean"))
		return
	}

	resp, err := s.programSvc.List(c.Request.Context(), programdomain.ListRequest{
		OrganizationID: orgID,
		PublishedOnly:  published != nil && *published,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProgram(c *gin.Context) {
	id, err := pathID(c, "id", programdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.programSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateProgram(c *gin.Context) {
	var req programdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.programSvc.Create(c.Request.Context(), viewer.FromContext(c.Request.Context()), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateProgram(c *gin.Context) {
	id, err := pathID(c, "id", programdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req programdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.programSvc.Update(c.Request.Context(), viewer.FromContext(c.Request.Context()), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProgram(c *gin.Context) {
	id, err := pathID(c, "id", programdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.programSvc.Delete(c.Request.Context(), viewer.FromContext(c.Request.Context()), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
