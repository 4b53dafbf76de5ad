package main

import (
	"context"
	"log"

	"github.com/clinivault/screenauth/internal/server"
	"github.com/clinivault/screenauth/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
