package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"goods-manager/backup"
	"goods-manager/catalog"
	"goods-manager/handlers/api/products"
	"goods-manager/handlers/api/transfer"
	"goods-manager/handlers/auth"
	authMiddleware "goods-manager/middleware"
	"goods-manager/stores"
	"goods-manager/thumbnail"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

type config struct {
	catalogKey     string
	thumbnailSize  int
	importPolicy   backup.Policy
	maxUploadBytes int64
}

func loadConfig() (config, error) {
	cfg := config{
		catalogKey:     os.Getenv("CATALOG_KEY"),
		thumbnailSize:  thumbnail.DefaultSize,
		maxUploadBytes: 10 << 20,
	}
	if v := os.Getenv("THUMBNAIL_SIZE"); v != "" {
		size, err := cast.ToIntE(v)
		if err != nil || size <= 0 {
			return config{}, fmt.Errorf("invalid THUMBNAIL_SIZE %q", v)
		}
		cfg.thumbnailSize = size
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := cast.ToInt64E(v)
		if err != nil || n <= 0 {
			return config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", v)
		}
		cfg.maxUploadBytes = n
	}
	policy, err := backup.ParsePolicy(os.Getenv("IMPORT_POLICY"))
	if err != nil {
		return config{}, err
	}
	cfg.importPolicy = policy
	return cfg, nil
}

func setupRouter(store *catalog.Store, cfg config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	gateway := backup.NewGateway(store, cfg.importPolicy)
	opts := products.Options{Size: cfg.thumbnailSize, MaxUploadBytes: cfg.maxUploadBytes}

	r.Route("/api/v2", func(r chi.Router) {
		r.Use(authMiddleware.AuthJWT)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.HandleListProducts(store))
			r.Post("/", products.HandleSaveProduct(store, opts))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", products.HandleGetProduct(store))
				r.Get("/image", products.HandleProductImage(store))
				r.Put("/", products.HandleSaveProduct(store, opts))
				r.Delete("/", products.HandleDeleteProduct(store))
			})
		})
		r.Get("/export", transfer.HandleExport(gateway))
		r.Post("/import", transfer.HandleImport(gateway, cfg.maxUploadBytes*20))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", auth.HandleLogin)
		r.Get("/callback", auth.HandleCallback)
	})

	return r
}

func waitForShutdown(srv *http.Server, kv any) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server did not shut down cleanly")
	}
	if c, ok := kv.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close storage")
		}
	}
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	issueToken := flag.Bool("issue-token", false, "Print a signed token for OWNER_LOGIN and exit.")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	if *issueToken {
		token, err := auth.IssueToken(auth.Owner{Subject: "cli", Login: os.Getenv("OWNER_LOGIN")})
		if err != nil {
			logrus.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	kv := stores.GetStore()
	store := catalog.NewStore(kv, cfg.catalogKey)
	r := setupRouter(store, cfg)

	srv := &http.Server{Addr: *listenAddress, Handler: r}
	logrus.WithFields(logrus.Fields{
		"addr":          *listenAddress,
		"import_policy": cfg.importPolicy,
		"thumbnail":     cfg.thumbnailSize,
	}).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv, kv)
}
