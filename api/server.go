package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/thisisjab/mongozilla/compiler"
	"github.com/thisisjab/mongozilla/schema"
	"github.com/thisisjab/mongozilla/transform"
	"go.mongodb.org/mongo-driver/bson"
)

// Storage is the execution sink the server hands compiled descriptors and
// normalized documents to.
type Storage interface {
	Query(ctx context.Context, desc compiler.QueryDescriptor) ([]bson.M, error)
	InsertOne(ctx context.Context, collection string, document bson.M) error
}

// Services bundles the collaborators the handlers depend on. Schemas and
// Transforms are optional.
type Services struct {
	Storage    Storage
	Translator *compiler.Translator
	Schemas    *schema.Registry
	Transforms map[string][]transform.DocumentTransformer
}

type server struct {
	cfg      Config
	logger   *slog.Logger
	services Services
}

func NewServer(cfg Config, logger *slog.Logger, services Services) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &server{
		cfg:      cfg,
		logger:   logger,
		services: services,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)
	mux.HandleFunc("POST /api/collections/{collection}/query", s.queryCollectionHandler)
	mux.HandleFunc("POST /api/collections/{collection}/documents", s.insertDocumentHandler)

	return s.recoverPanicMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(mux)))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && serverErr != http.ErrServerClosed {
		return serverErr
	}

	return nil
}
