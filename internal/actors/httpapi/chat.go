package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mhui/eventbuddy/internal/core/model"
)

type sendMessageReq struct {
	UserName string `json:"userName"`
	Text     string `json:"text"`
}

func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}

	resp, err := s.chat.SendMessage(c.Request.Context(), model.SendMessageArgs{
		EventID:  c.Param("id"),
		UserID:   actorID(c),
		UserName: req.UserName,
		Text:     req.Text,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.Message)
}

func (s *Server) listMessages(c *gin.Context) {
	messages, err := s.chat.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
