package api

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/yourname/macrotracker/internal/service"
)

func PostFood(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty body is an empty description.
		var req service.FoodRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateFoodRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		summary, err := app.Tracker().Submit(c.Request.Context(), sessionID(c), req.Description)
		if err != nil {
			HandleTrackerError(c, app.Logger(), err)
			return
		}

		app.Hub().Broadcast(summary.SessionID, summary)
		HandleSuccess(c, app.Logger(), summary, nil)
	}
}

func DeleteTotals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := app.Tracker().Clear(c.Request.Context(), sessionID(c))
		if err != nil {
			HandleTrackerError(c, app.Logger(), err)
			return
		}

		app.Hub().Broadcast(summary.SessionID, summary)
		HandleSuccess(c, app.Logger(), summary, nil)
	}
}

func GetSummary(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := app.Tracker().Summary(c.Request.Context(), sessionID(c))
		if err != nil {
			HandleTrackerError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), summary, nil)
	}
}

func GetGoals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), app.Tracker().Goals(), nil)
	}
}
