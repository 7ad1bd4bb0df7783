package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/certvault/internal/api"
	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultTimeout bounds a single remote call when the caller's context has
// no deadline.
const DefaultTimeout = 10 * time.Second

type certificateService interface {
	Issue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      certificateService
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.accessToken != "" {
		ctx = withAccessToken(ctx, c.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL. accessToken may be empty
// when only verification is needed.
func NewGRPCClient(endpointURL, accessToken string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	conn, err := grpc.NewClient(c.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor))
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewCertificateServiceClient(conn)
	return c, nil
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	out, err := c.client.Ping(ctx, &structpb.Struct{})
	if err != nil {
		return c.mapError(err)
	}

	var resp api.PingResponse
	if err := api.Decode(out, &resp); err != nil || resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

// Issue asks the server to issue a certificate. The returned token is the
// only copy; the server keeps its hash.
func (c *GRPCClient) Issue(ctx context.Context, req api.IssueRequest) (*api.IssueResponse, error) {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	in, err := api.Encode(req)
	if err != nil {
		return nil, err
	}
	out, err := c.client.Issue(ctx, in)
	if err != nil {
		return nil, c.mapError(err)
	}

	var resp api.IssueResponse
	if err := api.Decode(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify runs a verification on the server.
func (c *GRPCClient) Verify(ctx context.Context, req services.VerifyRequest) (services.Verdict, error) {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	wire := api.VerifyRequest{CertificateID: req.CertificateID, Token: req.Token, Payload: req.Payload}
	for _, f := range req.Claimed {
		wire.Claimed = append(wire.Claimed, api.Claim{Name: f.Name, Value: f.Value})
	}
	in, err := api.Encode(wire)
	if err != nil {
		return services.Verdict{}, err
	}

	out, err := c.client.Verify(ctx, in)
	if err != nil {
		return services.Verdict{}, c.mapError(err)
	}

	var resp api.VerifyResponse
	if err := api.Decode(out, &resp); err != nil {
		return services.Verdict{}, err
	}
	return services.Verdict{
		OK:            resp.OK,
		Reason:        services.ReasonCode(resp.Reason),
		CertificateID: resp.CertificateID,
		Field:         resp.Field,
		Excerpt:       resp.Excerpt,
	}, nil
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}
