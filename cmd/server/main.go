package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/dkovalev/folderlock/internal/server"
	"github.com/dkovalev/folderlock/internal/server/config"
)

func main() {
	// optional .env for local development; real deployments set the
	// environment directly
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
