// Package templates embeds the HTML pages rendered by the controllers.
package templates

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed html/*.html
var files embed.FS

var funcs = template.FuncMap{
	"yesno": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
	"checked": func(b bool) template.HTMLAttr {
		if b {
			return "checked"
		}
		return ""
	},
	"alertClass": func(category string) string {
		switch strings.ToLower(category) {
		case "danger", "success", "warning":
			return "alert-" + category
		default:
			return "alert-info"
		}
	},
}

// Load parses every page; each is addressed by its file name, e.g. "home_page.html".
func Load() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "html/*.html")
}
