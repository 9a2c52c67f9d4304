package gameserver

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/partygames/mafia/internal/game/session"
	"github.com/partygames/mafia/internal/gameserver/mafiav1"
)

// Dialer opens a transport to a client's PlayerService.
type Dialer interface {
	Dial(host string, port int) (session.Notifier, error)
}

// GRPCDialer dials clients over insecure gRPC. Connections are established
// lazily on the first call.
type GRPCDialer struct {
	opts []grpc.DialOption
}

// NewGRPCDialer returns a GRPCDialer. Extra options are appended after the
// insecure transport credentials.
func NewGRPCDialer(opts ...grpc.DialOption) *GRPCDialer {
	return &GRPCDialer{opts: append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)}
}

// Dial implements Dialer.
//
// Precondition: port must be in 1-65535.
// Postcondition: Returns a Notifier backed by a new client connection.
func (d *GRPCDialer) Dial(host string, port int) (session.Notifier, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := grpc.NewClient(addr, d.opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing client at %s: %w", addr, err)
	}
	return &grpcNotifier{conn: conn, client: mafiav1.NewPlayerServiceClient(conn)}, nil
}

type grpcNotifier struct {
	conn   *grpc.ClientConn
	client mafiav1.PlayerServiceClient
}

func (n *grpcNotifier) NotifyJoin(ctx context.Context, player string) error {
	_, err := n.client.NotifyJoin(ctx, &mafiav1.JoinNotification{Player: player})
	return err
}

func (n *grpcNotifier) NotifyLeave(ctx context.Context, player string) error {
	_, err := n.client.NotifyLeave(ctx, &mafiav1.LeaveNotification{Player: player})
	return err
}

func (n *grpcNotifier) NotifyAction(ctx context.Context, text string) error {
	_, err := n.client.NotifyAction(ctx, &mafiav1.ActionNotification{Notification: text})
	return err
}

func (n *grpcNotifier) SendRole(ctx context.Context, role string) error {
	_, err := n.client.SendRole(ctx, &mafiav1.RoleMessage{Role: role})
	return err
}

func (n *grpcNotifier) SendAvailableActions(ctx context.Context, actions []string) error {
	_, err := n.client.SendAvailableActions(ctx, &mafiav1.AvailableActions{Actions: actions})
	return err
}

func (n *grpcNotifier) Livez(ctx context.Context) error {
	_, err := n.client.Livez(ctx, &emptypb.Empty{})
	return err
}

func (n *grpcNotifier) Close() error {
	return n.conn.Close()
}
