package gameserver

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/partygames/mafia/internal/game/mafia"
	"github.com/partygames/mafia/internal/game/session"
	"github.com/partygames/mafia/internal/gameserver/mafiav1"
	"github.com/partygames/mafia/internal/stats"
)

// GameServiceServer implements mafiav1.GameServiceServer on top of an
// Orchestrator.
type GameServiceServer struct {
	mafiav1.UnimplementedGameServiceServer
	orch   *Orchestrator
	stats  stats.Store
	logger *zap.Logger
}

// NewGameServiceServer creates a GameServiceServer.
//
// Precondition: orch, store and logger must be non-nil.
func NewGameServiceServer(orch *Orchestrator, store stats.Store, logger *zap.Logger) *GameServiceServer {
	return &GameServiceServer{orch: orch, stats: store, logger: logger}
}

// Register implements mafiav1.GameServiceServer.
func (s *GameServiceServer) Register(ctx context.Context, req *mafiav1.RegisterRequest) (*mafiav1.RegisterResponse, error) {
	if req.Port < 1 || req.Port > 65535 {
		return nil, status.Errorf(codes.InvalidArgument, "port must be 1-65535, got %d", req.Port)
	}
	sess, err := s.orch.Register(ctx, req.Name, req.Host, int(req.Port))
	if err != nil {
		return nil, toStatus(err)
	}
	return &mafiav1.RegisterResponse{Id: sess.ID.String()}, nil
}

// Leave implements mafiav1.GameServiceServer.
func (s *GameServiceServer) Leave(ctx context.Context, req *mafiav1.LeaveRequest) (*emptypb.Empty, error) {
	id, err := parseSessionID(req.Id)
	if err != nil {
		return nil, err
	}
	if err := s.orch.Leave(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// PerformAction implements mafiav1.GameServiceServer.
func (s *GameServiceServer) PerformAction(ctx context.Context, req *mafiav1.PerformActionRequest) (*emptypb.Empty, error) {
	id, err := parseSessionID(req.Id)
	if err != nil {
		return nil, err
	}
	if err := s.orch.PerformAction(ctx, id, req.Action, req.TargetName); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// PlayerStats implements mafiav1.GameServiceServer.
func (s *GameServiceServer) PlayerStats(ctx context.Context, req *mafiav1.PlayerStatsRequest) (*mafiav1.PlayerStatsResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, status.Error(codes.InvalidArgument, "name must not be empty")
	}
	rec, err := s.stats.Get(ctx, req.Name)
	if err != nil {
		if errors.Is(err, stats.ErrPlayerNotFound) {
			return nil, status.Errorf(codes.NotFound, "no stats for player %s", req.Name)
		}
		s.logger.Error("reading player stats", zap.String("player", req.Name), zap.Error(err))
		return nil, status.Error(codes.Internal, "reading player stats")
	}
	return recordToProto(rec), nil
}

// ListPlayers implements mafiav1.GameServiceServer.
func (s *GameServiceServer) ListPlayers(ctx context.Context, _ *emptypb.Empty) (*mafiav1.ListPlayersResponse, error) {
	records, err := s.stats.List(ctx)
	if err != nil {
		s.logger.Error("listing player stats", zap.Error(err))
		return nil, status.Error(codes.Internal, "listing player stats")
	}
	resp := &mafiav1.ListPlayersResponse{Players: make([]*mafiav1.PlayerStatsResponse, 0, len(records))}
	for _, rec := range records {
		resp.Players = append(resp.Players, recordToProto(rec))
	}
	return resp, nil
}

// UpdateAvatar implements mafiav1.GameServiceServer. An empty avatar
// restores stats.DefaultAvatar.
func (s *GameServiceServer) UpdateAvatar(ctx context.Context, req *mafiav1.UpdateAvatarRequest) (*mafiav1.PlayerStatsResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, status.Error(codes.InvalidArgument, "name must not be empty")
	}
	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		avatar = stats.DefaultAvatar
	}
	rec, err := s.stats.UpdateAvatar(ctx, req.Name, avatar)
	if err != nil {
		if errors.Is(err, stats.ErrPlayerNotFound) {
			return nil, status.Errorf(codes.NotFound, "no stats for player %s", req.Name)
		}
		s.logger.Error("updating avatar", zap.String("player", req.Name), zap.Error(err))
		return nil, status.Error(codes.Internal, "updating avatar")
	}
	s.logger.Info("avatar updated", zap.String("player", rec.Name), zap.String("avatar", rec.Avatar))
	return recordToProto(rec), nil
}

func recordToProto(rec stats.Record) *mafiav1.PlayerStatsResponse {
	return &mafiav1.PlayerStatsResponse{
		Name:          rec.Name,
		Avatar:        rec.Avatar,
		Wins:          rec.Wins,
		Losses:        rec.Losses,
		SecondsPlayed: rec.SecondsPlayed,
	}
}

func parseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid session id %q", raw)
	}
	return id, nil
}

// toStatus maps orchestrator and game errors to gRPC status errors.
func toStatus(err error) error {
	var unavailable *mafia.ActionUnavailableError
	switch {
	case errors.As(err, &unavailable):
		return mafiav1.ActionUnavailableStatus(err.Error(), mafia.ActionStrings(unavailable.Available))
	case errors.Is(err, session.ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, mafia.ErrTargetRequired),
		errors.Is(err, mafia.ErrInvalidTarget),
		errors.Is(err, mafia.ErrUnknownPlayer):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, session.ErrUnknownSession):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, session.ErrInactive),
		errors.Is(err, ErrNoGame),
		errors.Is(err, mafia.ErrNotRunning):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
