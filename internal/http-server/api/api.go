package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"doorlist/internal/config"
	"doorlist/internal/http-server/handlers/errors"
	"doorlist/internal/http-server/handlers/guestlist"
	"doorlist/internal/http-server/handlers/invitelink"
	"doorlist/internal/http-server/handlers/membership"
	"doorlist/internal/http-server/handlers/stripehandler"
	"doorlist/internal/http-server/middleware/authenticate"
	"doorlist/internal/http-server/middleware/timeout"
	"doorlist/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	guestlist.Core
	membership.Core
	stripehandler.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	// guests POST without authentication; the administrative read of the
	// same endpoint requires an operator token
	router.Route("/api", func(rootApi chi.Router) {
		rootApi.Get("/invite", invitelink.Resolve(log))
		rootApi.Post("/guestlist", guestlist.Register(log, handler))
		rootApi.With(authenticate.New(log, handler)).Get("/guestlist", guestlist.List(log, handler))
	})
	router.Route("/v1", func(rootV1 chi.Router) {
		rootV1.Use(authenticate.New(log, handler))
		rootV1.Post("/membership/checkout", membership.Checkout(log, handler))
	})
	router.Route("/webhook", func(rootWH chi.Router) {
		rootWH.Post("/event", stripehandler.Event(log, handler))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
