package mafiav1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// GameService method names.
const (
	GameService_Register_FullMethodName      = "/mafia.v1.GameService/Register"
	GameService_Leave_FullMethodName         = "/mafia.v1.GameService/Leave"
	GameService_PerformAction_FullMethodName = "/mafia.v1.GameService/PerformAction"
	GameService_PlayerStats_FullMethodName   = "/mafia.v1.GameService/PlayerStats"
	GameService_ListPlayers_FullMethodName   = "/mafia.v1.GameService/ListPlayers"
	GameService_UpdateAvatar_FullMethodName  = "/mafia.v1.GameService/UpdateAvatar"
)

// GameServiceClient is the client API for the server-hosted GameService.
type GameServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Leave(ctx context.Context, in *LeaveRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	PerformAction(ctx context.Context, in *PerformActionRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	PlayerStats(ctx context.Context, in *PlayerStatsRequest, opts ...grpc.CallOption) (*PlayerStatsResponse, error)
	ListPlayers(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListPlayersResponse, error)
	UpdateAvatar(ctx context.Context, in *UpdateAvatarRequest, opts ...grpc.CallOption) (*PlayerStatsResponse, error)
}

type gameServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewGameServiceClient wraps cc. Every call is sent with the mafiav1 codec.
func NewGameServiceClient(cc grpc.ClientConnInterface) GameServiceClient {
	return &gameServiceClient{cc}
}

func (c *gameServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	out := new(RegisterResponse)
	if err := invoke(ctx, c.cc, GameService_Register_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gameServiceClient) Leave(ctx context.Context, in *LeaveRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := invoke(ctx, c.cc, GameService_Leave_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gameServiceClient) PerformAction(ctx context.Context, in *PerformActionRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := invoke(ctx, c.cc, GameService_PerformAction_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gameServiceClient) PlayerStats(ctx context.Context, in *PlayerStatsRequest, opts ...grpc.CallOption) (*PlayerStatsResponse, error) {
	out := new(PlayerStatsResponse)
	if err := invoke(ctx, c.cc, GameService_PlayerStats_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gameServiceClient) ListPlayers(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListPlayersResponse, error) {
	out := new(ListPlayersResponse)
	if err := invoke(ctx, c.cc, GameService_ListPlayers_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gameServiceClient) UpdateAvatar(ctx context.Context, in *UpdateAvatarRequest, opts ...grpc.CallOption) (*PlayerStatsResponse, error) {
	out := new(PlayerStatsResponse)
	if err := invoke(ctx, c.cc, GameService_UpdateAvatar_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GameServiceServer is the server API for GameService.
type GameServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Leave(context.Context, *LeaveRequest) (*emptypb.Empty, error)
	PerformAction(context.Context, *PerformActionRequest) (*emptypb.Empty, error)
	PlayerStats(context.Context, *PlayerStatsRequest) (*PlayerStatsResponse, error)
	ListPlayers(context.Context, *emptypb.Empty) (*ListPlayersResponse, error)
	UpdateAvatar(context.Context, *UpdateAvatarRequest) (*PlayerStatsResponse, error)
}

// UnimplementedGameServiceServer returns codes.Unimplemented for every method.
type UnimplementedGameServiceServer struct{}

func (UnimplementedGameServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedGameServiceServer) Leave(context.Context, *LeaveRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Leave not implemented")
}
func (UnimplementedGameServiceServer) PerformAction(context.Context, *PerformActionRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method PerformAction not implemented")
}
func (UnimplementedGameServiceServer) PlayerStats(context.Context, *PlayerStatsRequest) (*PlayerStatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PlayerStats not implemented")
}
func (UnimplementedGameServiceServer) ListPlayers(context.Context, *emptypb.Empty) (*ListPlayersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPlayers not implemented")
}
func (UnimplementedGameServiceServer) UpdateAvatar(context.Context, *UpdateAvatarRequest) (*PlayerStatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateAvatar not implemented")
}

// RegisterGameServiceServer registers srv with s.
func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&GameService_ServiceDesc, srv)
}

// GameService_ServiceDesc is the grpc.ServiceDesc for GameService.
var GameService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "mafia.v1.GameService",
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(GameService_Register_FullMethodName, GameServiceServer.Register)},
		{MethodName: "Leave", Handler: unaryHandler(GameService_Leave_FullMethodName, GameServiceServer.Leave)},
		{MethodName: "PerformAction", Handler: unaryHandler(GameService_PerformAction_FullMethodName, GameServiceServer.PerformAction)},
		{MethodName: "PlayerStats", Handler: unaryHandler(GameService_PlayerStats_FullMethodName, GameServiceServer.PlayerStats)},
		{MethodName: "ListPlayers", Handler: unaryHandler(GameService_ListPlayers_FullMethodName, GameServiceServer.ListPlayers)},
		{MethodName: "UpdateAvatar", Handler: unaryHandler(GameService_UpdateAvatar_FullMethodName, GameServiceServer.UpdateAvatar)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mafiav1/game_service.go",
}
