package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hrattrition/adapters/api"
	"hrattrition/internal/config"
	"hrattrition/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := appContainer.StartWatcher(ctx); err != nil {
		log.Printf("File watching disabled: %v", err)
	}
	appContainer.Warm(ctx)

	service := api.NewService(appContainer.Dashboard)
	if err := service.Start(ctx, ":"+appConfig.API.Port); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}
