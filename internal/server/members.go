package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	memberdomain "github.com/limaskap/limaskap/internal/member/domain"
	"github.com/limaskap/limaskap/internal/viewer"
)

func (s *Server) ListMembers(c *gin.Context) {
	resp, err := s.memberSvc.ListByUser(c.Request.Context(), viewer.FromContext(c.Request.Context()))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateMember(c *gin.Context) {
	var req memberdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.memberSvc.Create(c.Request.Context(), viewer.FromContext(c.Request.Context()), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateMember(c *gin.Context) {
	id, err := pathID(c, "id", memberdomain.ErrInvalidID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req memberdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.memberSvc.Update(c.Request.Context(), viewer.FromContext(c.Request.Context()), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUserEnrollments(c *gin.Context) {
	resp, err := s.memberSvc.ListUserEnrollments(c.Request.Context(), viewer.FromContext(c.Request.Context()))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
