//	@title			Taskgram API
//	@version		1.0
//	@description	Backend for Taskgram: image posts and personal tasks.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/taskgram/service/internal/config"
	"github.com/taskgram/service/internal/db"
	"github.com/taskgram/service/internal/events"
	"github.com/taskgram/service/internal/imagestore"
	"github.com/taskgram/service/internal/mailer"
	"github.com/taskgram/service/internal/post"
	"github.com/taskgram/service/internal/ratelimit"
	"github.com/taskgram/service/internal/storage"
	"github.com/taskgram/service/internal/task"
	"github.com/taskgram/service/internal/upload"
	"github.com/taskgram/service/internal/user"

	_ "github.com/taskgram/service/docs/swagger"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := initTracing(ctx, cfg.OTLPEndpoint, cfg.AppEnv)
	if err != nil {
		log.Fatalf("tracing init failed: %v", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store, err := storage.NewMinioStorage(ctx, storage.MinioConfig{
		Endpoint:   cfg.StorageEndpoint,
		AccessKey:  cfg.StorageAccessKey,
		SecretKey:  cfg.StorageSecretKey,
		Bucket:     cfg.StorageBucket,
		PublicBase: cfg.StoragePublicBase,
		UseSSL:     cfg.StorageUseSSL,
	})
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	images := imagestore.New(store,
		imagestore.WithMaxWidth(cfg.ImageMaxWidth),
		imagestore.WithTimeout(cfg.StorageTimeout),
	)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaPostsTopic)
		log.Printf("publishing post events to %v topic=%s", cfg.KafkaBrokers, cfg.KafkaPostsTopic)
	}
	defer publisher.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable at %s: %v (rate limiting fails open)", cfg.RedisAddr, err)
	}

	mail := mailer.New(mailer.Config{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.EmailFrom,
	})

	// Wire dependencies: repository → service → handler
	userSvc := user.NewService(user.NewRepository(pool))
	userHandler := user.NewHandler(userSvc)

	postSvc := post.NewService(
		post.NewRepository(pool),
		images,
		publisher,
		post.NewEmailNotifier(mail, userSvc),
	)
	postHandler := post.NewHandler(postSvc, !cfg.IsProduction())

	taskHandler := task.NewHandler(task.NewService(task.NewRepository(pool)))

	r := newRouter(routeDeps{
		jwtSecret: cfg.JWTSecret,
		posts:     postHandler,
		tasks:     taskHandler,
		users:     userHandler,
		stager:    upload.NewStager(cfg.UploadDir),
		limiter:   ratelimit.New(ratelimit.NewRedisCounter(rdb), "posts", cfg.PostRateLimit, cfg.PostRateWindow),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(r, serviceName),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
