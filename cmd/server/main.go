package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handler "anti-food-waste-backend/api"
	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
)

func main() {
	cfg := config.GetCached()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[error] invalid configuration: %v\n", err)
		os.Exit(1)
	}

	store := database.GetStore(database.StoreConfig{
		UseMemoryStore: cfg.UseMemoryStore,
		PostgresDSN:    cfg.PostgresDSN,
		Debug:          cfg.Debug,
	})
	defer store.Close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(cfg, store),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		fmt.Printf("Server listening on :%s (%s)\n", cfg.Port, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("[error] server failed: %v\n", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		fmt.Printf("[error] graceful shutdown failed: %v\n", err)
	}
}
