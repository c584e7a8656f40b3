package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gocial/backend/internal/service"
	"gocial/backend/pkg/response"
)

type ParticipationHandler struct {
	participationService service.ParticipationService
	logger               *zap.Logger
}

func NewParticipationHandler(participationService service.ParticipationService, logger *zap.Logger) *ParticipationHandler {
	return &ParticipationHandler{participationService: participationService, logger: logger}
}

type ParticipateRequest struct {
	Message string `json:"message" binding:"max=500"`
}

type DecideRequest struct {
	Action   string `json:"action" binding:"required,oneof=accept reject"`
	Response string `json:"response" binding:"max=500"`
}

type RateRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review" binding:"max=1000"`
}

func (h *ParticipationHandler) Participate(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	var req ParticipateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	p, err := h.participationService.Request(c.Request.Context(), activityID, userID, req.Message)
	if err != nil {
		writeServiceError(c, h.logger, "participate", err)
		return
	}

	response.Created(c, gin.H{
		"status":           p.Status,
		"participation_id": p.ID,
	})
}

func (h *ParticipationHandler) Leave(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	if err := h.participationService.Cancel(c.Request.Context(), activityID, userID); err != nil {
		writeServiceError(c, h.logger, "cancel participation", err)
		return
	}

	response.Success(c, nil)
}

func (h *ParticipationHandler) ListParticipants(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	list, err := h.participationService.ListParticipants(c.Request.Context(), activityID, userID)
	if err != nil {
		writeServiceError(c, h.logger, "list participants", err)
		return
	}

	response.Success(c, list)
}

func (h *ParticipationHandler) Decide(c *gin.Context) {
	hostID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}
	participantID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.NotFound(c, service.ErrParticipationMissing.Error())
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.participationService.Decide(c.Request.Context(), activityID, hostID, participantID, req.Action, req.Response)
	if err != nil {
		writeServiceError(c, h.logger, "decide participation", err)
		return
	}

	response.Success(c, p)
}

func (h *ParticipationHandler) RateHost(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.participationService.RateHost(c.Request.Context(), activityID, userID, req.Rating, req.Review); err != nil {
		writeServiceError(c, h.logger, "rate host", err)
		return
	}

	response.Success(c, nil)
}

func (h *ParticipationHandler) RateParticipant(c *gin.Context) {
	hostID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}
	participantID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.NotFound(c, service.ErrParticipationMissing.Error())
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err = h.participationService.RateParticipant(c.Request.Context(), activityID, hostID, participantID, req.Rating, req.Review)
	if err != nil {
		writeServiceError(c, h.logger, "rate participant", err)
		return
	}

	response.Success(c, nil)
}
