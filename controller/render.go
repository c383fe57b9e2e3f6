package controller

import (
	"net/http"
	"strconv"
	"time"

	"cafefinder/logging"
	"cafefinder/utils"

	"github.com/gin-gonic/gin"
)

// render adds the values every page needs and writes the template.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["errors"]; !ok {
		data["errors"] = map[string]string{}
	}
	_, loggedIn := utils.CurrentUserID(c)
	data["logged_in"] = loggedIn
	data["current_email"] = utils.CurrentEmail(c)
	data["flashes"] = utils.PopFlashes(c)
	data["year"] = time.Now().Year()
	c.HTML(status, name, data)
}

func renderError(c *gin.Context, status int, message string) {
	render(c, status, "error.html", gin.H{
		"title":   http.StatusText(status),
		"status":  status,
		"message": message,
	})
}

// serverError logs err and shows a generic 500 page.
func serverError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	logging.FromContext(c).WithError(err).Error(msg)
	renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// NotFound renders the 404 page for unknown routes.
func NotFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, "Page not found.")
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
