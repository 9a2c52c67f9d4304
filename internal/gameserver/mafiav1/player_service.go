package mafiav1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// PlayerService method names. PlayerService is hosted by each client and
// called by the game server.
const (
	PlayerService_NotifyJoin_FullMethodName           = "/mafia.v1.PlayerService/NotifyJoin"
	PlayerService_NotifyLeave_FullMethodName          = "/mafia.v1.PlayerService/NotifyLeave"
	PlayerService_NotifyAction_FullMethodName         = "/mafia.v1.PlayerService/NotifyAction"
	PlayerService_SendRole_FullMethodName             = "/mafia.v1.PlayerService/SendRole"
	PlayerService_SendAvailableActions_FullMethodName = "/mafia.v1.PlayerService/SendAvailableActions"
	PlayerService_Livez_FullMethodName                = "/mafia.v1.PlayerService/Livez"
)

// PlayerServiceClient is the API the server uses to reach a client.
type PlayerServiceClient interface {
	NotifyJoin(ctx context.Context, in *JoinNotification, opts ...grpc.CallOption) (*emptypb.Empty, error)
	NotifyLeave(ctx context.Context, in *LeaveNotification, opts ...grpc.CallOption) (*emptypb.Empty, error)
	NotifyAction(ctx context.Context, in *ActionNotification, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SendRole(ctx context.Context, in *RoleMessage, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SendAvailableActions(ctx context.Context, in *AvailableActions, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Livez(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type playerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPlayerServiceClient wraps cc. Every call is sent with the mafiav1 codec.
func NewPlayerServiceClient(cc grpc.ClientConnInterface) PlayerServiceClient {
	return &playerServiceClient{cc}
}

func (c *playerServiceClient) call(ctx context.Context, method string, in any, opts []grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := invoke(ctx, c.cc, method, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *playerServiceClient) NotifyJoin(ctx context.Context, in *JoinNotification, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return c.call(ctx, PlayerService_NotifyJoin_FullMethodName, in, opts)
}

func (c *playerServiceClient) NotifyLeave(ctx context.Context, in *LeaveNotification, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return c.call(ctx, PlayerService_NotifyLeave_FullMethodName, in, opts)
}

func (c *playerServiceClient) NotifyAction(ctx context.Context, in *ActionNotification, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return c.call(ctx, PlayerService_NotifyAction_FullMethodName, in, opts)
}

func (c *playerServiceClient) SendRole(ctx context.Context, in *RoleMessage, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return c.call(ctx, PlayerService_SendRole_FullMethodName, in, opts)
}

func (c *playerServiceClient) SendAvailableActions(ctx context.Context, in *AvailableActions, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return c.call(ctx, PlayerService_SendAvailableActions_FullMethodName, in, opts)
}

func (c *playerServiceClient) Livez(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return c.call(ctx, PlayerService_Livez_FullMethodName, in, opts)
}

// PlayerServiceServer is the API a client implements.
type PlayerServiceServer interface {
	NotifyJoin(context.Context, *JoinNotification) (*emptypb.Empty, error)
	NotifyLeave(context.Context, *LeaveNotification) (*emptypb.Empty, error)
	NotifyAction(context.Context, *ActionNotification) (*emptypb.Empty, error)
	SendRole(context.Context, *RoleMessage) (*emptypb.Empty, error)
	SendAvailableActions(context.Context, *AvailableActions) (*emptypb.Empty, error)
	Livez(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// UnimplementedPlayerServiceServer returns codes.Unimplemented for every method.
type UnimplementedPlayerServiceServer struct{}

func (UnimplementedPlayerServiceServer) NotifyJoin(context.Context, *JoinNotification) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method NotifyJoin not implemented")
}
func (UnimplementedPlayerServiceServer) NotifyLeave(context.Context, *LeaveNotification) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method NotifyLeave not implemented")
}
func (UnimplementedPlayerServiceServer) NotifyAction(context.Context, *ActionNotification) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method NotifyAction not implemented")
}
func (UnimplementedPlayerServiceServer) SendRole(context.Context, *RoleMessage) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SendRole not implemented")
}
func (UnimplementedPlayerServiceServer) SendAvailableActions(context.Context, *AvailableActions) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SendAvailableActions not implemented")
}
func (UnimplementedPlayerServiceServer) Livez(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Livez not implemented")
}

// RegisterPlayerServiceServer registers srv with s.
func RegisterPlayerServiceServer(s grpc.ServiceRegistrar, srv PlayerServiceServer) {
	s.RegisterService(&PlayerService_ServiceDesc, srv)
}

// PlayerService_ServiceDesc is the grpc.ServiceDesc for PlayerService.
var PlayerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "mafia.v1.PlayerService",
	HandlerType: (*PlayerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "NotifyJoin", Handler: unaryHandler(PlayerService_NotifyJoin_FullMethodName, PlayerServiceServer.NotifyJoin)},
		{MethodName: "NotifyLeave", Handler: unaryHandler(PlayerService_NotifyLeave_FullMethodName, PlayerServiceServer.NotifyLeave)},
		{MethodName: "NotifyAction", Handler: unaryHandler(PlayerService_NotifyAction_FullMethodName, PlayerServiceServer.NotifyAction)},
		{MethodName: "SendRole", Handler: unaryHandler(PlayerService_SendRole_FullMethodName, PlayerServiceServer.SendRole)},
		{MethodName: "SendAvailableActions", Handler: unaryHandler(PlayerService_SendAvailableActions_FullMethodName, PlayerServiceServer.SendAvailableActions)},
		{MethodName: "Livez", Handler: unaryHandler(PlayerService_Livez_FullMethodName, PlayerServiceServer.Livez)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mafiav1/player_service.go",
}
