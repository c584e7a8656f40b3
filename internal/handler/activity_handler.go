package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gocial/backend/internal/service"
	"gocial/backend/pkg/response"
)

type ActivityHandler struct {
	activityService service.ActivityService
	logger          *zap.Logger
}

func NewActivityHandler(activityService service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, logger: logger}
}

type FeedRequest struct {
	Type      string   `form:"type" binding:"omitempty,activity_type"`
	Category  string   `form:"category"`
	Date      string   `form:"date"`
	Lat       *float64 `form:"lat" binding:"omitempty,min=-90,max=90"`
	Lng       *float64 `form:"lng" binding:"omitempty,min=-180,max=180"`
	RadiusKm  float64  `form:"radius" binding:"omitempty,gt=0,lte=500"`
	GirlsOnly bool     `form:"girls_only"`
	FreeOnly  bool     `form:"free_only"`
	Page      int      `form:"page"`
	PerPage   int      `form:"per_page"`
}

type CreateActivityRequest struct {
	Title        string `json:"title" binding:"required,max=120"`
	Description  string `json:"description"`
	ActivityType string `json:"activity_type" binding:"required,activity_type"`
	Category     string `json:"category" binding:"max=50"`
	Subcategory  string `json:"subcategory" binding:"max=50"`
	Date         string `json:"date" binding:"required"`

	DurationMinutes *int `json:"duration_minutes" binding:"omitempty,gt=0"`
	MinParticipants *int `json:"min_participants" binding:"omitempty,gte=1"`
	MaxParticipants *int `json:"max_participants" binding:"omitempty,gte=2"`
	MinAge          *int `json:"min_age" binding:"omitempty,gte=0,lte=120"`
	MaxAge          *int `json:"max_age" binding:"omitempty,gte=0,lte=120"`

	GenderRestriction string `json:"gender_restriction"`
	IsGirlsOnly       bool   `json:"is_girls_only"`
	RequireApproval   *bool  `json:"require_approval"`
	Visibility        string `json:"visibility" binding:"omitempty,visibility"`
	FriendsOnly       bool   `json:"friends_only"`
	AcceptNonVerified *bool  `json:"accept_non_verified"`
	AcceptNonPremium  *bool  `json:"accept_non_premium"`
	Status            string `json:"status" binding:"omitempty,oneof=draft published"`

	Address      string   `json:"address" binding:"max=255"`
	City         string   `json:"city" binding:"max=100"`
	PostalCode   string   `json:"postal_code" binding:"max=10"`
	MeetingPoint string   `json:"meeting_point" binding:"max=255"`
	Latitude     *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`

	VisioURL      string `json:"visio_url" binding:"omitempty,url,max=500"`
	VisioPlatform string `json:"visio_platform" binding:"max=50"`

	ImageURL string   `json:"image_url" binding:"omitempty,url,max=500"`
	Price    *float64 `json:"price" binding:"omitempty,gte=0"`
	Currency string   `json:"currency" binding:"omitempty,len=3"`
}

type UpdateActivityRequest struct {
	Title             *string  `json:"title" binding:"omitempty,max=120"`
	Description       *string  `json:"description"`
	Category          *string  `json:"category" binding:"omitempty,max=50"`
	Address           *string  `json:"address" binding:"omitempty,max=255"`
	City              *string  `json:"city" binding:"omitempty,max=100"`
	PostalCode        *string  `json:"postal_code" binding:"omitempty,max=10"`
	MaxParticipants   *int     `json:"max_participants"`
	Price             *float64 `json:"price" binding:"omitempty,gte=0"`
	Visibility        *string  `json:"visibility" binding:"omitempty,visibility"`
	Status            *string  `json:"status"`
	IsGirlsOnly       *bool    `json:"is_girls_only"`
	GenderRestriction *string  `json:"gender_restriction"`
	RequireApproval   *bool    `json:"require_approval"`
	VisioURL          *string  `json:"visio_url" binding:"omitempty,max=500"`
	Date              *string  `json:"date"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
}

type CancelActivityRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

func (h *ActivityHandler) Feed(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req FeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.activityService.Feed(c.Request.Context(), userID, service.FeedFilter{
		Type:      req.Type,
		Category:  req.Category,
		Date:      req.Date,
		Lat:       req.Lat,
		Lng:       req.Lng,
		RadiusKm:  req.RadiusKm,
		GirlsOnly: req.GirlsOnly,
		FreeOnly:  req.FreeOnly,
		Page:      service.Page{Page: req.Page, PerPage: req.PerPage},
	})
	if err != nil {
		writeServiceError(c, h.logger, "feed", err)
		return
	}

	response.Success(c, page)
}

func (h *ActivityHandler) ListHosted(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	page, err := h.activityService.ListHosted(c.Request.Context(), userID,
		c.Query("include_past") == "true", pageFromQuery(c))
	if err != nil {
		writeServiceError(c, h.logger, "list hosted activities", err)
		return
	}

	response.Success(c, page)
}

func (h *ActivityHandler) ListParticipating(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	page, err := h.activityService.ListParticipating(c.Request.Context(), userID,
		c.Query("status"), c.Query("include_past") == "true", pageFromQuery(c))
	if err != nil {
		writeServiceError(c, h.logger, "list participations", err)
		return
	}

	response.Success(c, page)
}

func (h *ActivityHandler) ListLiked(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	page, err := h.activityService.ListLiked(c.Request.Context(), userID, pageFromQuery(c))
	if err != nil {
		writeServiceError(c, h.logger, "list liked activities", err)
		return
	}

	response.Success(c, page)
}

func (h *ActivityHandler) Create(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	view, err := h.activityService.Create(c.Request.Context(), userID, service.CreateActivityInput{
		Title:             req.Title,
		Description:       req.Description,
		ActivityType:      req.ActivityType,
		Category:          req.Category,
		Subcategory:       req.Subcategory,
		Date:              req.Date,
		DurationMinutes:   req.DurationMinutes,
		MinParticipants:   req.MinParticipants,
		MaxParticipants:   req.MaxParticipants,
		MinAge:            req.MinAge,
		MaxAge:            req.MaxAge,
		GenderRestriction: req.GenderRestriction,
		IsGirlsOnly:       req.IsGirlsOnly,
		RequireApproval:   req.RequireApproval,
		Visibility:        req.Visibility,
		FriendsOnly:       req.FriendsOnly,
		AcceptNonVerified: req.AcceptNonVerified,
		AcceptNonPremium:  req.AcceptNonPremium,
		Status:            req.Status,
		Address:           req.Address,
		City:              req.City,
		PostalCode:        req.PostalCode,
		MeetingPoint:      req.MeetingPoint,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		VisioURL:          req.VisioURL,
		VisioPlatform:     req.VisioPlatform,
		ImageURL:          req.ImageURL,
		Price:             req.Price,
		Currency:          req.Currency,
	})
	if err != nil {
		writeServiceError(c, h.logger, "create activity", err)
		return
	}

	response.Created(c, view)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	detail, err := h.activityService.Get(c.Request.Context(), userID, activityID)
	if err != nil {
		writeServiceError(c, h.logger, "get activity", err)
		return
	}

	response.Success(c, detail)
}

func (h *ActivityHandler) Update(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	view, err := h.activityService.Update(c.Request.Context(), userID, activityID, service.UpdateActivityInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Address:           req.Address,
		City:              req.City,
		PostalCode:        req.PostalCode,
		MaxParticipants:   req.MaxParticipants,
		Price:             req.Price,
		Visibility:        req.Visibility,
		Status:            req.Status,
		IsGirlsOnly:       req.IsGirlsOnly,
		GenderRestriction: req.GenderRestriction,
		RequireApproval:   req.RequireApproval,
		VisioURL:          req.VisioURL,
		Date:              req.Date,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
	})
	if err != nil {
		writeServiceError(c, h.logger, "update activity", err)
		return
	}

	response.Success(c, view)
}

// Cancel soft-deletes the activity. The reason body is optional.
func (h *ActivityHandler) Cancel(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	var req CancelActivityRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	if err := h.activityService.Cancel(c.Request.Context(), userID, activityID, req.Reason); err != nil {
		writeServiceError(c, h.logger, "cancel activity", err)
		return
	}

	response.Success(c, nil)
}

func (h *ActivityHandler) Like(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	created, err := h.activityService.Like(c.Request.Context(), userID, activityID)
	if err != nil {
		writeServiceError(c, h.logger, "like activity", err)
		return
	}

	if created {
		response.Created(c, gin.H{"liked": true})
		return
	}
	response.Success(c, gin.H{"liked": true})
}

func (h *ActivityHandler) Unlike(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	if err := h.activityService.Unlike(c.Request.Context(), userID, activityID); err != nil {
		writeServiceError(c, h.logger, "unlike activity", err)
		return
	}

	response.Success(c, gin.H{"liked": false})
}

func (h *ActivityHandler) Share(c *gin.Context) {
	userID, activityID, ok := callerAndActivity(c)
	if !ok {
		return
	}

	if err := h.activityService.Share(c.Request.Context(), userID, activityID); err != nil {
		writeServiceError(c, h.logger, "share activity", err)
		return
	}

	response.Success(c, nil)
}
