package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gocial/backend/internal/handler/middleware"
	"gocial/backend/internal/service"
	jwtpkg "gocial/backend/pkg/jwt"
	"gocial/backend/pkg/response"
)

var ErrNoClaims = errors.New("claims not found in context")

func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return uuid.Nil, ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return uuid.Nil, ErrNoClaims
	}
	return uuid.Parse(claims.Subject)
}

// callerAndActivity reads the caller and the :id path parameter, writing the
// error response itself when either is missing.
func callerAndActivity(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return uuid.Nil, uuid.Nil, false
	}
	activityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, service.ErrActivityNotFound.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return userID, activityID, true
}

// pageFromQuery reads page and per_page; the service applies defaults and
// caps.
func pageFromQuery(c *gin.Context) service.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	return service.Page{Page: page, PerPage: perPage}
}

type refusal struct {
	status int
	reason string
}

// refusals maps domain errors to their HTTP status and reason code.
var refusals = map[error]refusal{
	service.ErrActivityNotFound:     {http.StatusNotFound, "activity_not_found"},
	service.ErrUserNotFound:         {http.StatusNotFound, "user_not_found"},
	service.ErrNotParticipating:     {http.StatusNotFound, "not_participating"},
	service.ErrParticipationMissing: {http.StatusNotFound, "participation_not_found"},
	service.ErrNotHost:              {http.StatusForbidden, "not_host"},

	service.ErrTitleRequired:      {http.StatusBadRequest, "title_required"},
	service.ErrInvalidType:        {http.StatusBadRequest, "invalid_activity_type"},
	service.ErrDateRequired:       {http.StatusBadRequest, "date_required"},
	service.ErrInvalidDate:        {http.StatusBadRequest, "invalid_date"},
	service.ErrDateInPast:         {http.StatusBadRequest, "date_in_past"},
	service.ErrInvalidVisibility:  {http.StatusBadRequest, "invalid_visibility"},
	service.ErrInvalidGender:      {http.StatusBadRequest, "invalid_gender_restriction"},
	service.ErrInvalidCapacity:    {http.StatusBadRequest, "invalid_capacity"},
	service.ErrCapacityBelowCount: {http.StatusBadRequest, "capacity_below_count"},
	service.ErrInvalidStatus:      {http.StatusBadRequest, "invalid_status"},
	service.ErrInvalidCoordinates: {http.StatusBadRequest, "invalid_coordinates"},
	service.ErrLocationMismatch:   {http.StatusBadRequest, "location_mismatch"},
	service.ErrInvalidAction:      {http.StatusBadRequest, "invalid_action"},
	service.ErrInvalidRating:      {http.StatusBadRequest, "invalid_rating"},

	service.ErrSelfJoin:             {http.StatusBadRequest, "self_join"},
	service.ErrActivityClosed:       {http.StatusBadRequest, "activity_closed"},
	service.ErrActivityFull:         {http.StatusBadRequest, "activity_full"},
	service.ErrActivityPast:         {http.StatusBadRequest, "activity_past"},
	service.ErrActivityNotPast:      {http.StatusBadRequest, "activity_not_past"},
	service.ErrAlreadyParticipating: {http.StatusBadRequest, "already_participating"},
	service.ErrRequestPending:       {http.StatusBadRequest, "request_pending"},
	service.ErrRequestRejected:      {http.StatusBadRequest, "request_rejected"},
	service.ErrNotPending:           {http.StatusBadRequest, "not_pending"},
	service.ErrNotValidated:         {http.StatusBadRequest, "not_validated"},

	service.ErrFriendsOnly:          {http.StatusBadRequest, "friends_only"},
	service.ErrVerificationRequired: {http.StatusBadRequest, "verification_required"},
	service.ErrPremiumRequired:      {http.StatusBadRequest, "premium_required"},
	service.ErrGenderRestricted:     {http.StatusBadRequest, "gender_restricted"},
	service.ErrAgeRestricted:        {http.StatusBadRequest, "age_restricted"},
}

// writeServiceError answers with the mapped refusal, or a generic 500 that
// names only the failed operation.
func writeServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	for target, r := range refusals {
		if errors.Is(err, target) {
			response.Refused(c, r.status, r.reason, target.Error())
			return
		}
	}
	if !errors.Is(err, service.ErrPersistence) {
		logger.Error("unexpected service error", zap.String("op", op), zap.Error(err))
	}
	response.InternalError(c, op+" failed")
}
