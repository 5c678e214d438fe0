package tokenbookpb

import (
	"context"

	"google.golang.org/grpc"
)

const (
	// ServiceName is the fully qualified gRPC service name
	ServiceName = "tokenbook.Tokenbook"

	GetPriceMethod       = "/" + ServiceName + "/GetPrice"
	SaveFavoriteMethod   = "/" + ServiceName + "/SaveFavorite"
	RemoveFavoriteMethod = "/" + ServiceName + "/RemoveFavorite"
	ListFavoritesMethod  = "/" + ServiceName + "/ListFavorites"
)

// TokenbookServer is the server API for the Tokenbook service.
// The caller's identity travels in the context.
type TokenbookServer interface {
	GetPrice(ctx context.Context, request *GetPriceRequest) (*MessageResponse, error)
	SaveFavorite(ctx context.Context, request *SaveFavoriteRequest) (*MessageResponse, error)
	RemoveFavorite(ctx context.Context, request *RemoveFavoriteRequest) (*MessageResponse, error)
	ListFavorites(ctx context.Context, request *ListFavoritesRequest) (*ListFavoritesResponse, error)
}

// RegisterTokenbookServer registers srv with s
func RegisterTokenbookServer(s grpc.ServiceRegistrar, srv TokenbookServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the Tokenbook service
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenbookServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPrice", Handler: getPriceHandler},
		{MethodName: "SaveFavorite", Handler: saveFavoriteHandler},
		{MethodName: "RemoveFavorite", Handler: removeFavoriteHandler},
		{MethodName: "ListFavorites", Handler: listFavoritesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tokenbook.json",
}

func getPriceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetPriceRequest)

	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(TokenbookServer).GetPrice(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetPriceMethod}

	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TokenbookServer).GetPrice(ctx, req.(*GetPriceRequest))
	})
}

func saveFavoriteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SaveFavoriteRequest)

	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(TokenbookServer).SaveFavorite(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SaveFavoriteMethod}

	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TokenbookServer).SaveFavorite(ctx, req.(*SaveFavoriteRequest))
	})
}

func removeFavoriteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RemoveFavoriteRequest)

	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(TokenbookServer).RemoveFavorite(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RemoveFavoriteMethod}

	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TokenbookServer).RemoveFavorite(ctx, req.(*RemoveFavoriteRequest))
	})
}

func listFavoritesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListFavoritesRequest)

	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(TokenbookServer).ListFavorites(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListFavoritesMethod}

	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TokenbookServer).ListFavorites(ctx, req.(*ListFavoritesRequest))
	})
}

// TokenbookClient is the client API for the Tokenbook service
type TokenbookClient interface {
	GetPrice(ctx context.Context, in *GetPriceRequest, opts ...grpc.CallOption) (*MessageResponse, error)
	SaveFavorite(ctx context.Context, in *SaveFavoriteRequest, opts ...grpc.CallOption) (*MessageResponse, error)
	RemoveFavorite(ctx context.Context, in *RemoveFavoriteRequest, opts ...grpc.CallOption) (*MessageResponse, error)
	ListFavorites(ctx context.Context, in *ListFavoritesRequest, opts ...grpc.CallOption) (*ListFavoritesResponse, error)
}

type tokenbookClient struct {
	cc grpc.ClientConnInterface
}

// NewTokenbookClient creates a client. Calls force the JSON codec.
func NewTokenbookClient(cc grpc.ClientConnInterface) TokenbookClient {
	return &tokenbookClient{cc: cc}
}

func (c *tokenbookClient) invoke(ctx context.Context, method string, in interface{}, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)

	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *tokenbookClient) GetPrice(ctx context.Context, in *GetPriceRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	out := new(MessageResponse)

	if err := c.invoke(ctx, GetPriceMethod, in, out, opts); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *tokenbookClient) SaveFavorite(ctx context.Context, in *SaveFavoriteRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	out := new(MessageResponse)

	if err := c.invoke(ctx, SaveFavoriteMethod, in, out, opts); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *tokenbookClient) RemoveFavorite(ctx context.Context, in *RemoveFavoriteRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	out := new(MessageResponse)

	if err := c.invoke(ctx, RemoveFavoriteMethod, in, out, opts); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *tokenbookClient) ListFavorites(ctx context.Context, in *ListFavoritesRequest, opts ...grpc.CallOption) (*ListFavoritesResponse, error) {
	out := new(ListFavoritesResponse)

	if err := c.invoke(ctx, ListFavoritesMethod, in, out, opts); err != nil {
		return nil, err
	}

	return out, nil
}
