package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"shovebox/server/internal/app"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, configPath); err != nil {
		log.Fatalf("%v", err)
	}
}
