package main

import (
	"context"
	"errors"
	"io/fs"
	"log"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/config"
	"github.com/joho/godotenv"
)

func main() {

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := holder.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
