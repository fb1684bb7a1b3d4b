package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/middleware"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/internal/services"
	"github.com/smarttransit/seat-booking-backend/internal/utils"
	"github.com/smarttransit/seat-booking-backend/pkg/apperror"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Seats   []int  `json:"seats,omitempty"`
}

// respondError renders err as JSON. Errors that are not AppErrors are logged
// and reported as storage failures without their detail.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		logger.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": middleware.GetRequestID(c),
		}).Error("Unhandled error")
		appErr = apperror.StorageUnavailable(err)
	}

	c.JSON(appErr.Code, errorResponse{
		Error:   strings.ToLower(string(appErr.Kind)),
		Message: appErr.Message,
		Code:    string(appErr.Kind),
		Field:   appErr.Field,
		Seats:   appErr.Seats,
	})
}

// bindJSON decodes and validates the body, naming the offending field on failure
func bindJSON(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.InvalidInput(fe.Field(), validationMessage(fe))
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperror.InvalidInput(field, "must be a "+typeErr.Type.String())
	}

	if errors.Is(err, io.EOF) {
		return apperror.InvalidInput("body", "request body is required")
	}
	return apperror.InvalidInput("body", "malformed JSON")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "traveldate":
		return "must be YYYY-MM-DD"
	case "seatnumbers":
		return "must be a non-empty list of distinct positive seat numbers"
	case "email":
		return "must be an email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// requestMeta collects the caller details stored on payment audits
func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{
		IP:        utils.GetRealIP(c),
		Device:    utils.ParseUserAgent(utils.GetUserAgent(c)).Summary(),
		RequestID: middleware.GetRequestID(c),
	}
}

// callerFrom returns the authenticated caller, or false when the route is unauthenticated
func callerFrom(c *gin.Context) (services.Caller, bool) {
	user, ok := middleware.GetUserContext(c)
	if !ok {
		return services.Caller{}, false
	}
	return services.Caller{
		Email: user.Email,
		Name:  user.Name,
		Phone: user.Phone,
		Roles: user.Roles,
	}, true
}

func requireCaller(c *gin.Context) (services.Caller, bool) {
	caller, ok := callerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "User context not found",
			"code":    "MISSING_USER_CONTEXT",
		})
		return services.Caller{}, false
	}
	return caller, true
}
