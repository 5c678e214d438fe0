// Package rest exposes tokenbook over HTTP with JSON bodies.
// Every route except /health and /metrics requires a bearer token.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/metrics"
	"github.com/jrife/tokenbook/transport"
	"github.com/jrife/tokenbook/transport/frontends"
	"github.com/jrife/tokenbook/utils/log"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 16

var _ frontends.TokenbookFrontend = (*Frontend)(nil)

// Frontend is an implementation of
// TokenbookFrontend for REST
type Frontend struct {
	logger        *zap.Logger
	server        transport.TokenbookServer
	authenticator *identity.Authenticator
	metrics       *metrics.Metrics
	httpServer    *http.Server
}

// Init initializes the frontend
func (frontend *Frontend) Init(options frontends.Options) error {
	if options.Server == nil || options.Authenticator == nil {
		return fmt.Errorf("rest frontend requires a server and an authenticator")
	}

	frontend.logger = options.Logger
	frontend.server = options.Server
	frontend.authenticator = options.Authenticator
	frontend.metrics = options.Metrics

	if frontend.logger == nil {
		frontend.logger = zap.L()
	}

	frontend.httpServer = &http.Server{
		Handler:           frontend.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}

// Listen accepts connections from this listener
func (frontend *Frontend) Listen(listener net.Listener) error {
	if err := frontend.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop stops accepting connections from listeners and causes
// all calls to Listen to return
func (frontend *Frontend) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return frontend.httpServer.Shutdown(ctx)
}

// Router returns the frontend's routes
func (frontend *Frontend) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, frontend.logRequests)

	r.Get("/health", frontend.handleHealth)
	r.Method(http.MethodGet, "/metrics", frontend.metrics.Handler())

	r.Group(func(protected chi.Router) {
		protected.Use(frontend.requireIdentity)
		protected.Get("/prices/{coin}", frontend.handleGetPrice)
		protected.Get("/favorites", frontend.handleListFavorites)
		protected.Post("/favorites", frontend.handleSaveFavorite)
		protected.Delete("/favorites/{symbol}", frontend.handleRemoveFavorite)
	})

	return r
}

func (frontend *Frontend) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := log.WithFields(r.Context(), zap.String("request_id", middleware.GetReqID(r.Context())))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		log.WithContext(ctx, frontend.logger).Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (frontend *Frontend) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := identity.BearerToken(r.Header.Get("Authorization"))

		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")

			return
		}

		principal, err := frontend.authenticator.Verify(token)

		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid bearer token")

			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), principal)))
	})
}

func (frontend *Frontend) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// urlParam returns a decoded route parameter. chi matches against
// RawPath when the request has one, leaving its params escaped.
func urlParam(r *http.Request, key string) (string, error) {
	param := chi.URLParam(r, key)

	if r.URL.RawPath == "" {
		return param, nil
	}

	return url.PathUnescape(param)
}

func (frontend *Frontend) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	coin, err := urlParam(r, "coin")

	if err != nil {
		writeError(w, http.StatusBadRequest, string(errs.KindInvalidInput), err.Error())

		return
	}

	message, err := frontend.server.GetPrice(r.Context(), coin)

	if err != nil {
		frontend.writeServiceError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

func (frontend *Frontend) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.FromContext(r.Context())

	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())

		return
	}

	tokens, err := frontend.server.ListFavorites(r.Context(), caller)

	if err != nil {
		frontend.writeServiceError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, favoritesResponse{Favorites: tokens})
}

func (frontend *Frontend) handleSaveFavorite(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.FromContext(r.Context())

	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())

		return
	}

	var token favorites.Token

	if err := decodeJSON(r, &token); err != nil {
		writeError(w, http.StatusBadRequest, string(errs.KindInvalidInput), err.Error())

		return
	}

	message, err := frontend.server.SaveFavorite(r.Context(), caller, token)

	if err != nil {
		frontend.writeServiceError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

func (frontend *Frontend) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	caller, err := identity.FromContext(r.Context())

	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())

		return
	}

	symbol, err := urlParam(r, "symbol")

	if err != nil {
		writeError(w, http.StatusBadRequest, string(errs.KindInvalidInput), err.Error())

		return
	}

	message, err := frontend.server.RemoveFavorite(r.Context(), caller, symbol)

	if err != nil {
		frontend.writeServiceError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

func (frontend *Frontend) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := StatusCode(kind)

	if status >= http.StatusInternalServerError {
		log.WithContext(ctx, frontend.logger).Warn("request failed", zap.Error(err))
	}

	writeError(w, status, string(kind), errs.Message(err))
}

// StatusCode maps an error kind to an HTTP status
func StatusCode(kind errs.Kind) int {
	switch kind {
	case errs.KindInvalidInput:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindUpstream:
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

type messageResponse struct {
	Message string `json:"message"`
}

type favoritesResponse struct {
	Favorites []favorites.Token `json:"favorites"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func decodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %s", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: kind, Message: message}})
}
