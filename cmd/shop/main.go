package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"Storefront/internal/shop"
	"Storefront/pkg/kit"
)

func main() {
	service := "shop"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8082")

	snapshots := buildSnapshots(log)
	images := buildImages(log)

	sh := shop.New(snapshots, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	sh.Load(ctx)
	cancel()

	s := &shop.Server{
		Shop:   sh,
		Images: images,
		Log:    log,
	}

	reg := prometheus.NewRegistry()
	h := shop.NewHandler(s, shop.HTTPDeps{
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

func buildSnapshots(log *zap.Logger) shop.Snapshots {
	switch backend := getenv("STORE", "memory"); backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		log.Info("using redis snapshots", zap.String("addr", client.Options().Addr))
		return shop.NewRedisSnapshots(client)

	case "postgres":
		db, err := sql.Open("pgx", getenv("DATABASE_URL", "postgres://localhost:5432/storefront"))
		if err != nil {
			log.Fatal("open postgres failed", zap.Error(err))
		}
		log.Info("using postgres snapshots")
		return shop.NewPostgresSnapshots(db)

	case "memory":
		return shop.NewMemSnapshots()

	default:
		log.Fatal("unknown STORE backend", zap.String("backend", backend))
		return nil
	}
}

func buildImages(log *zap.Logger) shop.ImageStore {
	if getenv("IMAGES", "inline") != "minio" {
		return shop.InlineImages{}
	}

	endpoint := getenv("MINIO_ENDPOINT", "localhost:9000")
	mc, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			getenv("MINIO_ACCESS_KEY", "minioadmin"),
			getenv("MINIO_SECRET_KEY", "minioadmin"),
			"",
		),
		Secure: os.Getenv("MINIO_USE_SSL") == "1",
	})
	if err != nil {
		log.Fatal("minio client failed", zap.Error(err))
	}

	bucket := getenv("MINIO_BUCKET", "product-images")
	images := shop.NewMinioImages(mc, bucket, getenv("MINIO_PUBLIC_URL", "http://"+endpoint))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := images.EnsureBucket(ctx); err != nil {
		log.Fatal("ensure bucket failed", zap.Error(err))
	}

	log.Info("using minio images", zap.String("bucket", bucket))
	return images
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
