package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/response"
	"github.com/yourname/moodlog/internal/service"
)

func PostAuth(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.AuthRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleFailure(c, app.Logger(), err, http.StatusBadRequest, response.MsgCredentialsRequired)
			return
		}
		if err := service.ValidateAuthRequest(&body); err != nil {
			HandleFailure(c, app.Logger(), err, http.StatusBadRequest, response.MsgCredentialsRequired)
			return
		}

		ctx := c.Request.Context()
		switch body.Action {
		case "register":
			user, err := app.Users().Register(ctx, body.Username, body.Password)
			if errors.Is(err, internal.ErrAlreadyExists) {
				HandleFailure(c, app.Logger(), err, http.StatusBadRequest, response.MsgUsernameTaken)
				return
			}
			if err != nil {
				HandleFailure(c, app.Logger(), err, http.StatusInternalServerError, response.MsgServerError)
				return
			}
			HandleSuccess(c, app.Logger(), http.StatusCreated, response.Registered(user.ID, user.Username))

		case "login":
			user, err := app.Users().Login(ctx, body.Username, body.Password)
			if errors.Is(err, internal.ErrInvalidCredentials) {
				HandleFailure(c, app.Logger(), err, http.StatusUnauthorized, response.MsgInvalidCredentials)
				return
			}
			if err != nil {
				HandleFailure(c, app.Logger(), err, http.StatusInternalServerError, response.MsgLoginFailed)
				return
			}
			HandleSuccess(c, app.Logger(), http.StatusOK, response.LoggedIn(user.ID, user.Username, user.IsAdmin))

		default:
			HandleFailure(c, app.Logger(), errors.New("unknown action "+body.Action), http.StatusBadRequest, response.MsgInvalidAction)
		}
	}
}

func ListUsers(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := app.Users().List(c.Request.Context())
		if err != nil {
			HandleFailure(c, app.Logger(), err, http.StatusInternalServerError, response.MsgServerError)
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, users)
	}
}

func Healthz() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
