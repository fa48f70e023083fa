package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/imgrelay/imgrelay/internal/api/http"
	"github.com/imgrelay/imgrelay/internal/config"
	"github.com/imgrelay/imgrelay/internal/db"
	"github.com/imgrelay/imgrelay/internal/storage"
	"github.com/imgrelay/imgrelay/internal/translog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- Blob store ---
	var bs storage.BlobStore
	var err error
	switch cfg.BlobDriver {
	case "s3":
		bs, err = storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
	default:
		bs, err = storage.NewFSStore(cfg.BlobBasePath)
	}
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Optional transfer log ---
	var tl *translog.Repo
	if cfg.TransferLog {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		tl = translog.NewRepo(dbh)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// No Timeout middleware here: a relayed stream may legitimately outlive
	// any fixed deadline, and there is no mid-download abort path.
	api.MountImages(r, bs, tl)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (blob=%s)", cfg.HTTPAddr, cfg.BlobDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
