package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yungbote/officechat-backend/internal/app"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()
	if err := a.Run(ctx); err != nil {
		a.Log.Error("server exited", "error", err)
		a.Close()
		os.Exit(1)
	}
}
