package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/ycxd3695-spec/token-management-system/internal/api"
	"github.com/ycxd3695-spec/token-management-system/internal/codec"
	"github.com/ycxd3695-spec/token-management-system/internal/config"
	"github.com/ycxd3695-spec/token-management-system/internal/githubfs"
	"github.com/ycxd3695-spec/token-management-system/internal/store"
)

func main() {
	log.Println("[API] Starting token catalogue service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Configuration error: %v", err)
	}
	log.Printf("[API] Configuration loaded: store=%s file=%s", cfg.Target(), cfg.FilePath)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	remote := githubfs.New(cfg.APIBaseURL, cfg.GitHubToken, cfg.Owner, cfg.Repo, cfg.FilePath)
	svc := store.New(remote, codec.FormatForPath(cfg.FilePath), logger)
	server := api.NewServer(cfg, svc, logger)

	log.Printf("[API] Listening on port %s", cfg.Port)
	log.Fatal(server.Start())
}
