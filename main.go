package main

import (
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/app"
)

func main() {
	// setup and run app; log.Fatal exits with status 1
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
