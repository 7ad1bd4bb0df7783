package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/certvault/internal/api"
	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Issue(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.IssueRequest
	if err := api.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Info(ctx, "Issue request", "subject", subjectFromContext(ctx))

	res, err := s.issuer.Issue(ctx, services.IssueRequest{
		RecipientName: req.RecipientName,
		IssueDate:     req.IssueDate,
		CourseName:    req.CourseName,
		DeviceInfo:    req.DeviceInfo,
		OutputName:    req.OutputName,
	})
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, common.ErrorInternal.Error())
	}

	return api.Encode(api.IssueResponse{
		CertificateID: res.Record.CertificateID,
		Token:         res.Token,
		DocumentPath:  res.DocumentPath,
		ArchiveKey:    res.ArchiveKey,
		Persisted:     res.Persisted,
		Embedded:      res.Embedded,
		Archived:      res.Archived,
	})
}

func (s *GRPCServer) Verify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.VerifyRequest
	if err := api.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	claimed := make([]services.Field, 0, len(req.Claimed))
	for _, c := range req.Claimed {
		claimed = append(claimed, services.Field{Name: c.Name, Value: c.Value})
	}

	v := s.verifier.Verify(ctx, services.VerifyRequest{
		CertificateID: req.CertificateID,
		Claimed:       claimed,
		Token:         req.Token,
		Payload:       req.Payload,
	})

	return api.Encode(api.VerifyResponse{
		OK:            v.OK,
		Reason:        string(v.Reason),
		CertificateID: v.CertificateID,
		Field:         v.Field,
		Message:       v.Message(),
		Excerpt:       v.Excerpt,
	})
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return api.Encode(api.PingResponse{Status: "OK"})
}
