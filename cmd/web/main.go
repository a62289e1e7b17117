package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/app"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts"
)

func main() {
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
