package controller

import (
	"errors"
	"net/http"

	"cafefinder/auth"
	"cafefinder/logging"
	"cafefinder/metrics"
	"cafefinder/utils"

	"github.com/gin-gonic/gin"
)

const (
	msgEmailTaken    = "This email already exists. Please login instead"
	msgWrongPassword = "Your password is incorrect. Please try again"
	msgUnknownEmail  = "This email is not registered. Please try again or sign up"
)

type AuthController struct {
	auth     *auth.Service
	sessions *utils.SessionManager
}

func NewAuthController(authService *auth.Service, sessions *utils.SessionManager) *AuthController {
	return &AuthController{auth: authService, sessions: sessions}
}

func (h *AuthController) Register(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		render(c, http.StatusOK, "register.html", gin.H{"title": "Register"})
		return
	}

	var form CredentialsForm
	if errs := bindForm(c, &form); len(errs) > 0 {
		render(c, http.StatusBadRequest, "register.html", gin.H{
			"title":  "Register",
			"email":  form.Email,
			"errors": errs,
		})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			utils.AddFlash(c, utils.FlashDanger, msgEmailTaken)
			c.Redirect(http.StatusFound, "/login")
			return
		}
		serverError(c, "failed to register user", err)
		return
	}

	if err := h.sessions.Login(c, user.ID, user.Email); err != nil {
		serverError(c, "failed to start session", err)
		return
	}
	logging.FromContext(c).WithField("user_id", user.ID).Info("user registered")
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthController) Login(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		render(c, http.StatusOK, "login.html", gin.H{"title": "Login"})
		return
	}

	var form CredentialsForm
	if errs := bindForm(c, &form); len(errs) > 0 {
		render(c, http.StatusBadRequest, "login.html", gin.H{
			"title":  "Login",
			"email":  form.Email,
			"errors": errs,
		})
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, auth.ErrUnknownEmail):
		metrics.LoginAttempt("unknown_email")
		utils.AddFlash(c, utils.FlashDanger, msgUnknownEmail)
		c.Redirect(http.StatusFound, "/login")
		return
	case errors.Is(err, auth.ErrWrongPassword):
		metrics.LoginAttempt("wrong_password")
		utils.AddFlash(c, utils.FlashDanger, msgWrongPassword)
		c.Redirect(http.StatusFound, "/login")
		return
	case err != nil:
		serverError(c, "failed to authenticate", err)
		return
	}

	if err := h.sessions.Login(c, user.ID, user.Email); err != nil {
		serverError(c, "failed to start session", err)
		return
	}
	metrics.LoginAttempt("success")
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthController) Logout(c *gin.Context) {
	h.sessions.Logout(c)
	c.Redirect(http.StatusFound, "/")
}
