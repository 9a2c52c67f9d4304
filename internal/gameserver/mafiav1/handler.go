package mafiav1

import (
	"context"

	"google.golang.org/grpc"
)

// unaryHandler adapts a typed service method to a grpc.MethodDesc handler.
func unaryHandler[S any, Req any, Resp any](fullMethod string, call func(S, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// invoke issues a unary call with the mafiav1 codec selected.
func invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in, out any, opts []grpc.CallOption) error {
	return cc.Invoke(ctx, method, in, out, append([]grpc.CallOption{CallOption()}, opts...)...)
}
