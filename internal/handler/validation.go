package handler

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"gocial/backend/internal/model"
	"gocial/backend/pkg/response"
)

var registerOnce sync.Once

// RegisterValidators adds the activity_type and visibility binding tags to
// gin's validator. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("activity_type", func(fl validator.FieldLevel) bool {
			return model.ActivityType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
			_, ok := model.ParseVisibility(fl.Field().String())
			return ok
		})
	})
}

// bindError answers a failed ShouldBind with the offending fields and the
// rule each one broke.
func bindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		response.Refused(c, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusBadRequest, response.APIResponse{
		Code:    http.StatusBadRequest,
		Message: "validation failed",
		Reason:  "validation_failed",
		Data:    fields,
	})
}
