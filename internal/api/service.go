// Package api is the gRPC contract of certvault. Messages travel as
// google.protobuf.Struct, so server and client share plain Go types instead
// of generated stubs.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "certvault.v1.CertificateService"

// Full method names, as seen by interceptors.
const (
	IssueMethod  = "/" + ServiceName + "/Issue"
	VerifyMethod = "/" + ServiceName + "/Verify"
	PingMethod   = "/" + ServiceName + "/Ping"
)

// CertificateServiceServer is implemented by the gRPC server.
type CertificateServiceServer interface {
	Issue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Verify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(CertificateServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(call unaryCall, fullMethod string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CertificateServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CertificateServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes CertificateService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CertificateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Issue", Handler: unaryHandler(CertificateServiceServer.Issue, IssueMethod)},
		{MethodName: "Verify", Handler: unaryHandler(CertificateServiceServer.Verify, VerifyMethod)},
		{MethodName: "Ping", Handler: unaryHandler(CertificateServiceServer.Ping, PingMethod)},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterCertificateServiceServer(s grpc.ServiceRegistrar, srv CertificateServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// CertificateServiceClient calls CertificateService over cc.
type CertificateServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCertificateServiceClient(cc grpc.ClientConnInterface) *CertificateServiceClient {
	return &CertificateServiceClient{cc: cc}
}

func (c *CertificateServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CertificateServiceClient) Issue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, IssueMethod, in, opts...)
}

func (c *CertificateServiceClient) Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, VerifyMethod, in, opts...)
}

func (c *CertificateServiceClient) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PingMethod, in, opts...)
}
