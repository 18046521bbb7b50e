package launcher

import "github.com/gofiber/fiber/v2"

// FiberApp adapts a *fiber.App to the launcher.App interface so it can run
// alongside other long-lived apps (e.g. a broker worker) under one Launcher.
type FiberApp struct {
	App  *fiber.App
	Addr string
}

// Run listens on Addr until the app is shut down or fails to start.
func (f FiberApp) Run(_ *Launcher) error {
	return f.App.Listen(f.Addr)
}
