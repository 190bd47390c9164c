package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"

	"cvmatch-console/internal/views"
)

const indexTemplate = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the console templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"scoreStyle": scoreStyle,
		"badgeStyle": badgeStyle,
	}).ParseFS(templateFS, "templates/*.html"))
}

// Install registers the console templates on r.
func Install(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())
}

// Colours come from views.StatusFor, never from user input.
func scoreStyle(score int, status views.Status) template.CSS {
	return template.CSS(fmt.Sprintf("width: %d%%; background-color: %s", score, status.Color))
}

func badgeStyle(status views.Status) template.CSS {
	return template.CSS("background-color: " + status.Color)
}
