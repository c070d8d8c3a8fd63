package api

import (
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/auth"
	"github.com/yourname/moodlog/internal/service"
)

type App interface {
	Logger() internal.Logger
	Auth() auth.Provider
	Users() *service.UserService
	Entries() *service.EntryService
}

type app struct {
	logger  internal.Logger
	auth    auth.Provider
	users   *service.UserService
	entries *service.EntryService
}

func NewApp(logger internal.Logger, provider auth.Provider, users *service.UserService, entries *service.EntryService) App {
	return &app{logger: logger, auth: provider, users: users, entries: entries}
}

func (a *app) Logger() internal.Logger         { return a.logger }
func (a *app) Auth() auth.Provider             { return a.auth }
func (a *app) Users() *service.UserService     { return a.users }
func (a *app) Entries() *service.EntryService { return a.entries }
