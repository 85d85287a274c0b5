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
	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	log.Printf("web server listening on %s", addr)
	if err := app.Run(iris.Addr(addr)); err != nil {
		log.Fatalf("failed to run web server: %v", err)
	}
}
