package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appMiddleware "github.com/taskgram/service/internal/middleware"
	"github.com/taskgram/service/internal/post"
	"github.com/taskgram/service/internal/ratelimit"
	"github.com/taskgram/service/internal/task"
	"github.com/taskgram/service/internal/upload"
	"github.com/taskgram/service/internal/user"
)

type routeDeps struct {
	jwtSecret string
	posts     *post.Handler
	tasks     *task.Handler
	users     *user.Handler
	stager    *upload.Stager
	limiter   *ratelimit.Limiter
}

func newRouter(d routeDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI at /swagger/index.html
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.RequireAuth(d.jwtSecret))

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", d.posts.List)
			r.With(d.limiter.PerUser, d.stager.Single("image")).Post("/", d.posts.Create)
			r.Get("/user/{userId}", d.posts.ListByUser)
			r.Get("/{id}", d.posts.Get)
			r.Put("/{id}", d.posts.UpdateCaption)
			r.Delete("/{id}", d.posts.Delete)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", d.tasks.List)
			r.Post("/", d.tasks.Create)
			r.Put("/{id}", d.tasks.UpdateStatus)
			r.Delete("/{id}", d.tasks.Delete)
		})

		r.Get("/users/me", d.users.GetMe)
	})

	return r
}
