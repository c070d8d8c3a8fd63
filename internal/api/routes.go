package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/moodlog/internal/auth"
)

var routableMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead,
}

type route struct {
	method   string
	handlers []gin.HandlerFunc
}

// resource mounts handlers on path behind the CORS headers, answers OPTIONS
// and turns every other verb into a 405.
func resource(r gin.IRoutes, path string, routes ...route) {
	methods := make([]string, 0, len(routes))
	for _, rt := range routes {
		methods = append(methods, rt.method)
	}
	cors := CORS(methods...)

	for _, rt := range routes {
		r.Handle(rt.method, path, append([]gin.HandlerFunc{cors}, rt.handlers...)...)
	}
	r.OPTIONS(path, cors, Preflight())

	notAllowed := MethodNotAllowed(methods...)
	for _, m := range routableMethods {
		if !contains(methods, m) {
			r.Handle(m, path, cors, notAllowed)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func NewRouter(app App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), RequestLogger(app.Logger()))

	r.GET("/healthz", Healthz())

	resource(r, "/auth",
		route{http.MethodPost, []gin.HandlerFunc{PostAuth(app)}},
	)
	resource(r, "/users",
		route{http.MethodGet, []gin.HandlerFunc{auth.RequireAdmin(app.Auth(), app.Logger()), ListUsers(app)}},
	)

	withUser := auth.RequireUserID()
	resource(r, "/health",
		route{http.MethodGet, []gin.HandlerFunc{withUser, GetHealth(app)}},
		route{http.MethodPost, []gin.HandlerFunc{withUser, PostHealth(app)}},
		route{http.MethodPut, []gin.HandlerFunc{withUser, PutHealth(app)}},
	)
	resource(r, "/health/history",
		route{http.MethodGet, []gin.HandlerFunc{withUser, GetHistory(app)}},
	)
	return r
}
