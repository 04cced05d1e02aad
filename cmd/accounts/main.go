package main

import (
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/accounts"
	"Storefront/pkg/kit"
)

func main() {
	service := "accounts"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8081")
	jwtSecret := getenv("JWT_SECRET", "dev-secret")

	s := &accounts.Server{
		Log:    log,
		Store:  buildStore(log),
		Tokens: accounts.NewTokens(jwtSecret),
	}

	reg := prometheus.NewRegistry()
	h := accounts.NewHandler(s, accounts.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func buildStore(log *zap.Logger) accounts.Store {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return accounts.NewMemStore()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal("open postgres failed", zap.Error(err))
	}
	return accounts.NewPostgresStore(db)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
