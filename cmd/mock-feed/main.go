package main

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	addr := ":3000"
	if v, ok := os.LookupEnv("MOCK_FEED_ADDR"); ok {
		addr = v
	}
	failureRate := 0.0
	if v, err := strconv.ParseFloat(os.Getenv("MOCK_FEED_FAILURE_RATE"), 64); err == nil {
		failureRate = v
	}

	f := newFeed(time.Now(), 12, failureRate, time.Now().UnixNano())

	server := &http.Server{
		Addr:              addr,
		Handler:           f.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Mock news API running", "address", addr, "failure_rate", failureRate)
	if err := server.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
