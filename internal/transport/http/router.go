package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cwrk-planet/chat-service/internal/identity"
	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"
)

type Deps struct {
	Handler        *Handler
	Resolver       identity.Resolver
	Limiter        httpmw.Limiter // nil: без ограничения
	AllowedOrigins []string
	RequestTimeout time.Duration
	// nil: promhttp.Handler() с глобальным реестром
	Metrics http.Handler
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.Metrics == nil {
		d.Metrics = promhttp.Handler()
	}
	h := d.Handler

	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httpmw.RequestLoggerCtx)
	r.Use(httpmw.RequestLogger)
	r.Use(middlewareChi.Recoverer)

	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", d.Metrics)

	// Все маршруты API требуют аутентифицированного вызывающего
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.Metrics)
		pr.Use(httpmw.Auth(d.Resolver))
		pr.Use(httpmw.RateLimit(d.Limiter))
		pr.Use(middlewareChi.Timeout(d.RequestTimeout))

		pr.Route("/chats", func(rc chi.Router) {
			rc.Get("/", h.ListChats)
			rc.Post("/", h.CreateGroupChat)
			rc.Post("/private", h.CreatePrivateChat)

			rc.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetChat)
				rr.Delete("/", h.DeleteChat)
				rr.Post("/join", h.JoinChat)
				rr.Post("/leave", h.LeaveChat)

				rr.Get("/members", h.ListMembers)
				rr.Post("/members", h.AddMembers)
				rr.Delete("/members/{userID}", h.RemoveMember)
				rr.Put("/members/{userID}/role", h.ChangeRole)

				rr.Get("/messages", h.FetchMessages)
				rr.Post("/messages", h.SendMessage)
				rr.Post("/read-all", h.MarkAllRead)

				rr.Put("/pin", h.PinMessage)
				rr.Delete("/pin", h.UnpinMessage)
			})
		})

		pr.Route("/messages/{id}", func(rm chi.Router) {
			rm.Patch("/", h.EditMessage)
			rm.Delete("/", h.DeleteMessage)
			rm.Post("/forward", h.ForwardMessage)
			rm.Put("/reaction", h.React)
			rm.Delete("/reaction", h.Unreact)
			rm.Post("/read", h.MarkRead)
		})
	})

	return otelhttp.NewHandler(r, "chat.http")
}
