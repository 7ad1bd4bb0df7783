// Package grpc exposes issuance and verification over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/certvault/internal/api"
	"github.com/dmitrijs2005/certvault/internal/logging"
	"github.com/dmitrijs2005/certvault/internal/services"
	"google.golang.org/grpc"
)

type certificateIssuer interface {
	Issue(ctx context.Context, req services.IssueRequest) (*services.IssueResult, error)
}

type certificateVerifier interface {
	Verify(ctx context.Context, req services.VerifyRequest) services.Verdict
}

type GRPCServer struct {
	address   string
	issuer    certificateIssuer
	verifier  certificateVerifier
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, is certificateIssuer, vs certificateVerifier, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		issuer:    is,
		verifier:  vs,
		jwtSecret: []byte(secretKey),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	api.RegisterCertificateServiceServer(srv, s)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
