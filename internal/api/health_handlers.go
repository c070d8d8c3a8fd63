package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/auth"
	"github.com/yourname/moodlog/internal/csvio"
	"github.com/yourname/moodlog/internal/response"
	"github.com/yourname/moodlog/internal/service"
)

// GetHealth returns the stored entries as JSON or, with format=csv, as a
// download. Read failures degrade to an empty result.
func GetHealth(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserID(c)
		requestID := c.GetString("request_id")

		if c.Query("format") == "csv" {
			text, err := app.Entries().Export(c.Request.Context(), userID)
			if err != nil {
				app.Logger().Warnf("[request_id=%s] export for %s failed, sending header only: %v", requestID, userID, err)
				text = csvio.Encode(nil)
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=health_data_%s.csv", userID))
			c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(text))
			return
		}

		entries, err := app.Entries().List(c.Request.Context(), userID)
		if err != nil {
			app.Logger().Warnf("[request_id=%s] listing entries for %s failed, sending none: %v", requestID, userID, err)
			entries = []internal.HealthEntry{}
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, entries)
	}
}

type importRequest struct {
	CSVData string `json:"csvData"`
}

func PostHealth(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("action") == "import" {
			importHealth(app, c)
			return
		}

		var body service.EntryRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgInvalidEntry)
			return
		}
		if err := service.ValidateEntryRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgInvalidEntry)
			return
		}

		entry, err := app.Entries().Create(c.Request.Context(), auth.UserID(c), &body)
		if errors.Is(err, internal.ErrValidation) {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgInvalidEntry)
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, response.MsgSaveFailed)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, response.EntrySaved(entry))
	}
}

func importHealth(app App, c *gin.Context) {
	var body importRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.CSVData == "" {
		if err == nil {
			err = errors.New("empty csvData")
		}
		HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgCSVRequired)
		return
	}

	n, err := app.Entries().Import(c.Request.Context(), auth.UserID(c), body.CSVData)
	if errors.Is(err, internal.ErrValidation) {
		HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgInvalidEntry)
		return
	}
	if err != nil {
		HandleError(c, app.Logger(), err, http.StatusInternalServerError, response.MsgSaveFailed)
		return
	}
	HandleSuccess(c, app.Logger(), http.StatusOK, response.Imported(fmt.Sprintf("%d件のデータをインポートしました", n), n))
}

func PutHealth(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.EntryRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgInvalidEntry)
			return
		}
		if body.ID == "" {
			HandleError(c, app.Logger(), errors.New("missing id"), http.StatusBadRequest, response.MsgEntryIDRequired)
			return
		}
		if err := service.ValidateEntryRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgInvalidEntry)
			return
		}

		entry, err := app.Entries().Update(c.Request.Context(), auth.UserID(c), &body)
		switch {
		case errors.Is(err, internal.ErrNotFound):
			HandleError(c, app.Logger(), err, http.StatusNotFound, response.MsgEntryNotFound)
			return
		case errors.Is(err, internal.ErrValidation):
			HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgInvalidEntry)
			return
		case err != nil:
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, response.MsgSaveFailed)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, response.EntrySaved(entry))
	}
}

func GetHistory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := app.Entries().History(c.Request.Context(), auth.UserID(c), c.Query("view"), c.Query("month"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, response.MsgInvalidQuery)
			return
		}

		body := gin.H{
			"view":      v.View,
			"month":     v.Month,
			"prevMonth": v.PrevMonth,
			"nextMonth": v.NextMonth,
		}
		switch v.View {
		case service.ViewCalendar:
			body["calendar"] = v.Calendar
		case service.ViewChart:
			body["points"] = v.Points
		default:
			body["days"] = v.Days
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, body)
	}
}
