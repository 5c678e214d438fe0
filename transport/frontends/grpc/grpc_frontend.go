// Package grpc exposes tokenbook over gRPC. The caller's bearer
// token travels in the "authorization" metadata key.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/transport"
	"github.com/jrife/tokenbook/transport/frontends"
	"github.com/jrife/tokenbook/transport/tokenbookpb"
	"github.com/jrife/tokenbook/utils/log"
	"github.com/jrife/tokenbook/utils/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var _ frontends.TokenbookFrontend = (*Frontend)(nil)

// Frontend is an implementation of
// TokenbookFrontend for the gRPC protocol
type Frontend struct {
	logger        *zap.Logger
	server        transport.TokenbookServer
	authenticator *identity.Authenticator
	grpcServer    *grpc.Server
}

// Init initializes the frontend
func (frontend *Frontend) Init(options frontends.Options) error {
	if options.Server == nil || options.Authenticator == nil {
		return fmt.Errorf("grpc frontend requires a server and an authenticator")
	}

	frontend.logger = options.Logger
	frontend.server = options.Server
	frontend.authenticator = options.Authenticator

	if frontend.logger == nil {
		frontend.logger = zap.L()
	}

	frontend.grpcServer = grpc.NewServer(
		grpc.ForceServerCodec(tokenbookpb.Codec{}),
		grpc.UnaryInterceptor(frontend.authenticate),
	)

	tokenbookpb.RegisterTokenbookServer(frontend.grpcServer, &TokenbookServer{server: frontend.server, logger: frontend.logger})

	return nil
}

// Listen accepts connections from this listener
func (frontend *Frontend) Listen(listener net.Listener) error {
	if err := frontend.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}

// Stop stops accepting connections from listeners and causes
// all calls to Listen to return
func (frontend *Frontend) Stop() error {
	frontend.grpcServer.GracefulStop()

	return nil
}

func (frontend *Frontend) authenticate(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx = log.WithFields(ctx, zap.String("request_id", uuid.MustUUID()), zap.String("method", info.FullMethod))
	md, _ := metadata.FromIncomingContext(ctx)

	var token string

	for _, value := range md.Get("authorization") {
		if token = identity.BearerToken(value); token != "" {
			break
		}
	}

	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}

	principal, err := frontend.authenticator.Verify(token)

	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid bearer token")
	}

	return handler(identity.WithPrincipal(ctx, principal), req)
}

var _ tokenbookpb.TokenbookServer = (*TokenbookServer)(nil)

// TokenbookServer adapts a transport.TokenbookServer
// to the generated service interface
type TokenbookServer struct {
	logger *zap.Logger
	server transport.TokenbookServer
}

// GetPrice implements tokenbookpb.TokenbookServer.GetPrice
func (s *TokenbookServer) GetPrice(ctx context.Context, request *tokenbookpb.GetPriceRequest) (*tokenbookpb.MessageResponse, error) {
	message, err := s.server.GetPrice(ctx, request.CoinID)

	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	return &tokenbookpb.MessageResponse{Message: message}, nil
}

// SaveFavorite implements tokenbookpb.TokenbookServer.SaveFavorite
func (s *TokenbookServer) SaveFavorite(ctx context.Context, request *tokenbookpb.SaveFavoriteRequest) (*tokenbookpb.MessageResponse, error) {
	caller, err := identity.FromContext(ctx)

	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	message, err := s.server.SaveFavorite(ctx, caller, request.Token)

	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	return &tokenbookpb.MessageResponse{Message: message}, nil
}

// RemoveFavorite implements tokenbookpb.TokenbookServer.RemoveFavorite
func (s *TokenbookServer) RemoveFavorite(ctx context.Context, request *tokenbookpb.RemoveFavoriteRequest) (*tokenbookpb.MessageResponse, error) {
	caller, err := identity.FromContext(ctx)

	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	message, err := s.server.RemoveFavorite(ctx, caller, request.Symbol)

	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	return &tokenbookpb.MessageResponse{Message: message}, nil
}

// ListFavorites implements tokenbookpb.TokenbookServer.ListFavorites
func (s *TokenbookServer) ListFavorites(ctx context.Context, request *tokenbookpb.ListFavoritesRequest) (*tokenbookpb.ListFavoritesResponse, error) {
	caller, err := identity.FromContext(ctx)

	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	tokens, err := s.server.ListFavorites(ctx, caller)

	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	return &tokenbookpb.ListFavoritesResponse{Favorites: tokens}, nil
}

func (s *TokenbookServer) statusError(ctx context.Context, err error) error {
	code := Code(errs.KindOf(err))

	if code == codes.Internal || code == codes.Unavailable {
		log.WithContext(ctx, s.logger).Warn("request failed", zap.Error(err))
	}

	return status.Error(code, errs.Message(err))
}

// Code maps an error kind to a gRPC status code
func Code(kind errs.Kind) codes.Code {
	switch kind {
	case errs.KindInvalidInput:
		return codes.InvalidArgument
	case errs.KindNotFound:
		return codes.NotFound
	case errs.KindUpstream:
		return codes.Unavailable
	}

	return codes.Internal
}
