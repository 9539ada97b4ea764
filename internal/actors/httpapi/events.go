package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mhui/eventbuddy/internal/core/model"
)

type createEventReq struct {
	Title           string `json:"title"`
	Icon            string `json:"icon"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"maxParticipants"`
}

func (s *Server) createEvent(c *gin.Context) {
	var req createEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}

	resp, err := s.events.CreateEvent(c.Request.Context(), model.CreateEventArgs{
		Title:           req.Title,
		Icon:            req.Icon,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        req.Location,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		CreatorID:       actorID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.Event)
}

func (s *Server) listEvents(c *gin.Context) {
	events, err := s.events.ListEvents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) upcomingFeed(c *gin.Context) {
	events, err := s.events.UpcomingFeed(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) getEvent(c *gin.Context) {
	event, err := s.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) eventStatus(c *gin.Context) {
	event, err := s.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.events.Status(*event))
}

func (s *Server) joinEvent(c *gin.Context) {
	if err := s.events.JoinEvent(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) exitEvent(c *gin.Context) {
	if err := s.events.ExitEvent(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) cancelEvent(c *gin.Context) {
	if err := s.events.CancelEvent(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) mySchedule(c *gin.Context) {
	active, archive, err := s.events.MySchedule(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active, "archive": archive})
}
