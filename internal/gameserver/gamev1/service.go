package gamev1

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "connectfour.game.v1.GameService"

// SessionMethod is the full method path of the bidirectional Session stream.
const SessionMethod = "/" + ServiceName + "/Session"

// GameServiceServer is implemented by the game server.
type GameServiceServer interface {
	// Session carries one player's intents in and notifications out for the
	// lifetime of the connection.
	Session(SessionServer) error
}

// SessionServer is the server side of the Session stream.
type SessionServer interface {
	Send(*ServerEvent) error
	Recv() (*ClientMessage, error)
	grpc.ServerStream
}

type sessionServer struct {
	grpc.ServerStream
}

func (s *sessionServer) Send(ev *ServerEvent) error {
	return s.ServerStream.SendMsg(ev)
}

func (s *sessionServer) Recv() (*ClientMessage, error) {
	msg := new(ClientMessage)
	if err := s.ServerStream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func sessionHandler(srv any, stream grpc.ServerStream) error {
	return srv.(GameServiceServer).Session(&sessionServer{ServerStream: stream})
}

// ServiceDesc declares GameService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameServiceServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Session",
			Handler:       sessionHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "connectfour/game/v1",
}

// RegisterGameServiceServer registers srv on s.
//
// Precondition: s and srv must be non-nil.
func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// GameServiceClient opens Session streams against a game server.
type GameServiceClient interface {
	Session(ctx context.Context, opts ...grpc.CallOption) (SessionClient, error)
}

// SessionClient is the client side of the Session stream.
type SessionClient interface {
	Send(*ClientMessage) error
	Recv() (*ServerEvent, error)
	grpc.ClientStream
}

type gameServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewGameServiceClient wraps cc. Every stream it opens uses the JSON codec.
func NewGameServiceClient(cc grpc.ClientConnInterface) GameServiceClient {
	return &gameServiceClient{cc: cc}
}

func (c *gameServiceClient) Session(ctx context.Context, opts ...grpc.CallOption) (SessionClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], SessionMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &sessionClient{ClientStream: stream}, nil
}

type sessionClient struct {
	grpc.ClientStream
}

func (c *sessionClient) Send(msg *ClientMessage) error {
	return c.ClientStream.SendMsg(msg)
}

func (c *sessionClient) Recv() (*ServerEvent, error) {
	ev := new(ServerEvent)
	if err := c.ClientStream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}
