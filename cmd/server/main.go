package main

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/gnemet/deckdraft/internal/config"
	"github.com/gnemet/deckdraft/internal/i18n"
	"github.com/gnemet/deckdraft/internal/outline"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Application.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	i18n.Init()

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"T": i18n.T,
	}).ParseGlob("ui/templates/*.html"))

	settings, err := cfg.AI.Active()
	if err != nil {
		logger.Fatalf("Bad AI configuration: %v", err)
	}

	srv := newServer(cfg, tmpl, outline.NewGenerator(settings), logger)

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("ui/static"))))
	mux.HandleFunc("GET /{$}", srv.handleIndex)
	mux.HandleFunc("POST /generate", srv.handleGenerate)
	mux.HandleFunc("GET /healthz", srv.handleHealthz)

	addr := fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port)
	logger.Infof("%s starting on http://localhost:%d", cfg.Application.Name, cfg.Application.Port)
	logger.Fatal(http.ListenAndServe(addr, mux))
}
