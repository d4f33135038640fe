package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	setup(app, NewHttpRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
