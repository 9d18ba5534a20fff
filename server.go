package fieldtrack

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldsuite/fieldtrack/config"
	"github.com/fieldsuite/fieldtrack/destinations"
	"github.com/fieldsuite/fieldtrack/places"
)

var (
	server      *http.Server
	viewCache   *ViewCache
	destStore   destinations.Store
	placeLookup places.Lookup
)

// StartServer wires the handlers to their collaborators and starts the
// HTTP server. lookup may be nil when no place service is configured.
func StartServer(vc *ViewCache, store destinations.Store, lookup places.Lookup) {
	viewCache = vc
	destStore = store
	placeLookup = lookup

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handleHealth)
	mux.HandleFunc("/api/tracking/live.json", handleTrackingLiveJSON)
	mux.HandleFunc("/api/tracking/history.json", handleTrackingHistoryJSON)
	mux.HandleFunc("/api/tracking/refresh", handleTrackingRefresh)
	mux.HandleFunc("/api/destinations.json", handleDestinationsJSON)
	mux.HandleFunc("/api/destinations/save.json", handleDestinationsSaveJSON)
	mux.HandleFunc("/api/places/autocomplete.json", handlePlacesAutocompleteJSON)
	mux.HandleFunc("/api/places/details.json", handlePlacesDetailsJSON)

	addr := fmt.Sprintf(":%d", config.Config.Server.Port)
	server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("server listening on %s", addr)
}

func HandleGracefulShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("server shutdown error: %v", err)
		} else {
			log.Printf("server shut down successfully")
		}
	}
}
