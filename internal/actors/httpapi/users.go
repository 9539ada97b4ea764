package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mhui/eventbuddy/internal/core/model"
)

type saveUserReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) saveUser(c *gin.Context) {
	var req saveUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}
	if req.Name == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name and email are required"})
		return
	}

	user := &model.User{ID: actorID(c), Name: req.Name, Email: req.Email}
	if err := s.users.SaveUser(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) getUser(c *gin.Context) {
	user, err := s.users.GetUser(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type pushTokenReq struct {
	Token string `json:"token"`
}

func (s *Server) updatePushToken(c *gin.Context) {
	var req pushTokenReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "token is required"})
		return
	}

	if err := s.users.UpdatePushToken(c.Request.Context(), actorID(c), req.Token); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
