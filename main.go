package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	whodisConfig "github.com/dap-ware/whodis/config"
	whodisLookup "github.com/dap-ware/whodis/lookup"
	whodisModels "github.com/dap-ware/whodis/models"
	whodisServer "github.com/dap-ware/whodis/server"
	whodisStore "github.com/dap-ware/whodis/store"
)

var (
	configPath = flag.String("config", "", "YAML config file (optional)")
	database   = flag.String("db", "", "SQLite database file (overrides config)")
	help       = flag.Bool("h", false, "Display help")
)

func main() {
	// open a file for logging
	logFile, err := os.OpenFile("log.txt", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	// tee the standard logger (gin, workers) to both the file and the terminal
	multi := io.MultiWriter(logFile, os.Stdout)
	log.SetOutput(multi)

	// structured logs from the lookup engine go to the same two sinks
	encoder := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(logFile), zapcore.AddSync(os.Stdout)),
		zap.InfoLevel,
	)
	logger := zap.New(core)
	defer logger.Sync()

	flag.Parse()

	if *help {
		fmt.Println("Registration-Data Lookup Service")
		fmt.Println("\nThis program serves whois/RDAP domain lookups over HTTP and websocket, caches results, and records lookup history in a SQLite database.")
		fmt.Println("\nUsage information and program description")
		flag.PrintDefaults()
		return
	}

	cfg, err := whodisConfig.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *database != "" {
		cfg.Database.FilePath = *database
	}

	db, err := sql.Open("sqlite3", cfg.Database.FilePath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	if err := whodisStore.SetupDatabase(db); err != nil {
		log.Fatalf("Error setting up database: %v", err)
	}

	client, err := whodisLookup.NewWithConfig(cfg, logger)
	if err != nil {
		log.Fatalf("Error building lookup client: %v", err)
	}

	records := make(chan []whodisModels.Record, 100) // buffered channel for completed lookups

	var wg sync.WaitGroup

	// start the database insert worker
	wg.Add(1)
	go whodisStore.InsertWorker(db, records, &wg)

	// server gets started in go routine in whodisServer.StartServer
	srv, started := whodisServer.StartServer(client, db, records, cfg, &wg)
	go func() {
		<-started // closed when the listener exits
	}()

	logger.Info("whodis service up",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db", cfg.Database.FilePath))

	// signal handling for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// wait for interrupt signal
	<-sigs
	fmt.Println("Shutting down gracefully...")

	// graceful shutdown of the Gin server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// stop the history writer and wait for everything to drain
	close(records)
	wg.Wait()
	fmt.Println("Lookup service stopped.")
}
