package main

import (
	"log"

	"github.com/kataras/iris/v12"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/config"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/server"
)

func main() {
	cfg := config.Load("./config")

	app := iris.New()
	server.RegisterAdminRoutes(app, cfg)

	addr := cfg.AdminServer.Addr()
	log.Printf("admin server listening on %s", addr)
	if err := app.Run(iris.Addr(addr)); err != nil {
		log.Fatalf("failed to run admin server: %v", err)
	}
}
