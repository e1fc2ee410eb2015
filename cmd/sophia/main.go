package main

import (
	"context"
	"log"
	"os"

	"github.com/karim1349/app-psy-sophia-sub000/internal/buildinfo"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/cli"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
