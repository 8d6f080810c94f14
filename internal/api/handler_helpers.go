package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/macrotracker/internal"
	"github.com/yourname/macrotracker/internal/auth"
	"github.com/yourname/macrotracker/internal/response"
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case http.StatusBadRequest:
		resp = response.BadRequest(msg + ": " + err.Error())
	case http.StatusNotFound:
		resp = response.NotFound(msg + ": " + err.Error())
	case http.StatusUnprocessableEntity:
		resp = response.Unprocessable(msg)
	case http.StatusTooManyRequests:
		resp = response.TooManyRequests(msg)
	case http.StatusBadGateway:
		resp = response.BadGateway(msg)
	case http.StatusInternalServerError:
		resp = response.InternalError(msg)
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(http.StatusOK, response.Success(data, meta))
}

// HandleTrackerError maps tracker failures onto HTTP statuses.
func HandleTrackerError(c *gin.Context, logger internal.Logger, err error) {
	status, msg := trackerErrorStatus(err)
	HandleError(c, logger, err, status, msg)
}

func trackerErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, internal.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "Token limit reached for this session; clear your totals to continue"
	case errors.Is(err, internal.ErrParse):
		return http.StatusUnprocessableEntity, "Could not read a nutrition estimate for that food"
	case errors.Is(err, internal.ErrExternalCall):
		return http.StatusBadGateway, "Nutrition estimate service is unavailable"
	}
	return http.StatusInternalServerError, "Failed to update totals"
}

func sessionID(c *gin.Context) string {
	return c.GetString(auth.SessionKey)
}
