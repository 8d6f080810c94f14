package api

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourname/macrotracker/internal"
	"github.com/yourname/macrotracker/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

const noticeCookie = "macrotracker_notice"

func pageTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type pageRow struct {
	Label     string
	Consumed  float64
	Goal      float64
	Remaining float64
}

type pageData struct {
	Summary *service.Summary
	Rows    []pageRow
	Notice  string
}

func GetIndex(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := app.Tracker().Summary(c.Request.Context(), sessionID(c))
		if err != nil {
			app.Logger().Errorf("[request_id=%s] failed to load summary: %v", c.GetString("request_id"), err)
			c.String(http.StatusInternalServerError, "Failed to load totals")
			return
		}

		notice, _ := c.Cookie(noticeCookie)
		if notice != "" {
			c.SetCookie(noticeCookie, "", -1, "/", "", false, true)
		}

		c.HTML(http.StatusOK, "index.html", pageData{
			Summary: summary,
			Rows:    pageRows(summary),
			Notice:  notice,
		})
	}
}

// PostIndex handles the food form and always redirects back to the page.
// Failures leave the totals alone and surface as a one-shot notice.
func PostIndex(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := service.FoodRequest{Description: c.PostForm("food_input")}
		if err := service.ValidateFoodRequest(&req); err != nil {
			setNotice(c, "That description is too long.")
			c.Redirect(http.StatusSeeOther, "/")
			return
		}

		summary, err := app.Tracker().Submit(c.Request.Context(), sessionID(c), req.Description)
		if err != nil {
			_, msg := trackerErrorStatus(err)
			app.Logger().Warnf("[request_id=%s] submit failed: %v", c.GetString("request_id"), err)
			setNotice(c, msg+".")
		} else {
			app.Hub().Broadcast(summary.SessionID, summary)
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func PostClear(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := app.Tracker().Clear(c.Request.Context(), sessionID(c))
		if err != nil {
			app.Logger().Errorf("[request_id=%s] clear failed: %v", c.GetString("request_id"), err)
			setNotice(c, "Could not clear totals.")
		} else {
			app.Hub().Broadcast(summary.SessionID, summary)
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func setNotice(c *gin.Context, msg string) {
	c.SetCookie(noticeCookie, msg, 60, "/", "", false, true)
}

func pageRows(s *service.Summary) []pageRow {
	rows := make([]pageRow, 0, len(internal.NutrientKeys))
	for _, key := range internal.NutrientKeys {
		p, ok := s.Progress[key]
		if !ok {
			continue
		}
		label := string(key)
		rows = append(rows, pageRow{
			Label:     strings.ToUpper(label[:1]) + label[1:],
			Consumed:  p.Consumed,
			Goal:      p.Goal,
			Remaining: p.Remaining,
		})
	}
	return rows
}
