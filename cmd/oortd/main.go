// Command oortd serves the Oort simulation core: a scenario catalog, a
// lifecycle API for starting runs, and a per-run websocket snapshot
// feed. It has no bundled web UI; a renderer connects as an external
// client over the HTTP/WS surface.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lab1702/oort-sim/metrics"
	"github.com/lab1702/oort-sim/scenario"
	"github.com/lab1702/oort-sim/transport"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	tickRate := flag.Duration("tick-rate", time.Second/60, "simulation tick period")
	flag.Parse()

	log.Printf("starting oortd on %s (tick rate %v)", *addr, *tickRate)

	reg := scenario.NewRegistry()
	mc := metrics.NewCollectors(prometheus.DefaultRegisterer)
	srv := transport.NewServer(reg, *tickRate, mc)

	httpSrv := &http.Server{
		Addr:         *addr,
		Handler:      srv.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("oortd: server failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("oortd: shutting down (signal: %v)...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("oortd: server shutdown error: %v", err)
	}
	log.Println("oortd: stopped")
}
