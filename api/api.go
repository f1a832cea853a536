package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app:           fiber.New(Config()),
		listenAddress: listenAddress,
	}
}

// Config is the fiber configuration shared by the server and handler tests
func Config() fiber.Config {
	return fiber.Config{
		AppName:     "Smart Campus API",
		BodyLimit:   12 * 1024 * 1024, // room for a 10MB PDF plus form fields
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return response.Error(c, fe.Code, fe.Message, response.CodeFor(fe.Code))
			}
			return response.FromError(c, err)
		},
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	log.Infof("Starting API Server on %s", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits up to timeout for in-flight requests
func (s *APIServer) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}
