// Package observability provides logging utilities shared by the server and
// the bot client.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/partygames/mafia/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration,
// tagged with the emitting component.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, component string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	if component != "" {
		logger = logger.With(zap.String("component", component))
	}
	return logger, nil
}

// UnaryServerInterceptor logs every unary RPC with its status code and
// latency. Successful calls log at debug, client errors at info and server
// errors at warn.
func UnaryServerInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("elapsed", time.Since(start)),
		}
		switch code {
		case codes.OK:
			logger.Debug("rpc handled", fields...)
		case codes.Internal, codes.Unknown, codes.Unavailable, codes.DeadlineExceeded:
			logger.Warn("rpc failed", append(fields, zap.Error(err))...)
		default:
			logger.Info("rpc rejected", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}
