package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sujun1972/stock-analysis-sub007/internal/app"
)

func main() {
	batchPath := flag.String("batch", "batch.json", "path to the JSON batch file")
	csvPath := flag.String("csv", "", "load the price panel from this CSV instead of Postgres")
	outPath := flag.String("out", "results.json", "path to write run results to")
	serveMetrics := flag.Bool("metrics", false, "expose /metrics and /health while the batch runs")
	flag.Parse()

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}
	defer application.Shutdown()

	batch, err := app.LoadBatchFile(*batchPath)
	if err != nil {
		application.Logger.Fatal("bad batch file: " + err.Error())
	}

	// SIGINT stops dispatching further runs; in-flight runs complete.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prices, signals, err := application.LoadPanels(ctx, batch, *csvPath)
	if err != nil {
		application.Logger.Fatal("failed to load panels: " + err.Error())
	}

	if *serveMetrics {
		application.StartHTTP()
	}

	results := application.RunBatch(ctx, batch, prices, signals)

	if err := app.WriteResults(*outPath, results); err != nil {
		application.Logger.Fatal("failed to write results: " + err.Error())
	}
}
