package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/scoreboard/go/internal/api"
	"github.com/mcdev12/scoreboard/go/internal/config"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg *config.Config, services *Services) *http.Server {
	handler := api.NewHandler(services.apiOptions(cfg))

	// WriteTimeout stays unset: viewer WebSockets are long-lived.
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
