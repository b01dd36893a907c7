package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/auction-dice-backend/internal/game"
	"github.com/DoyleJ11/auction-dice-backend/internal/hub"
	"github.com/DoyleJ11/auction-dice-backend/internal/ws"
)

type Deps struct {
	Game      *game.Service
	Hub       *hub.Hub
	Logger    *zap.Logger
	IndexFile string
	// WSOrigins lists extra host patterns allowed to open room websockets.
	WSOrigins []string
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := &handlers{game: d.Game, log: d.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger))
	r.Use(cors.AllowAll().Handler)

	r.Get("/", Index(d.IndexFile))
	r.Get("/healthz", Healthz)

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", h.CreateRoom)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", h.Status)
			r.Delete("/", h.DeleteRoom)
			r.Post("/join", h.JoinRoom)
			r.Post("/bids", h.PlaceBid)
			r.Post("/dice", h.RollDice)
			r.Get("/reveal", h.Reveal)
			if d.Hub != nil {
				r.Get("/ws", ws.Handler(d.Hub, d.Game, d.Logger, d.WSOrigins))
			}
		})
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
