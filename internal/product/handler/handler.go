package handler

import (
	"context"
	"errors"

	pb "github.com/fekuna/pricewatch-service/api/pricewatch/v1"
	"github.com/fekuna/pricewatch-service/internal/auth"
	"github.com/fekuna/pricewatch-service/internal/duplicate"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/product"
	"github.com/fekuna/pricewatch-service/internal/product/dto"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ pb.AdminServiceServer = (*AdminHandler)(nil)

type AdminHandler struct {
	pb.UnimplementedAdminServiceServer
	uc      product.UseCase
	matcher duplicate.UseCase
	logger  logger.ZapLogger
}

func NewAdminHandler(uc product.UseCase, matcher duplicate.UseCase, log logger.ZapLogger) *AdminHandler {
	return &AdminHandler{
		uc:      uc,
		matcher: matcher,
		logger:  log,
	}
}

type FindDuplicatesRequest struct {
	CategoryID int64   `json:"category_id"`
	ShopID     int64   `json:"shop_id"`
	ExcludeIDs []int64 `json:"exclude_ids,omitempty"`
}

type FindDuplicatesResponse struct {
	Candidates []model.DuplicateCandidate `json:"candidates"`
}

func (h *AdminHandler) MergeProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.MergeProductsInput
	if err := pb.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if input.Actor == "" {
		input.Actor = auth.GetActor(ctx)
	}

	res, err := h.uc.MergeProducts(ctx, &input)
	if err != nil {
		return nil, h.toStatus("failed to merge products", err)
	}
	return h.encode(res)
}

func (h *AdminHandler) SetShopURL(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var input dto.SetShopURLInput
	if err := pb.Decode(req, &input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if input.Actor == "" {
		input.Actor = auth.GetActor(ctx)
	}

	if err := h.uc.SetShopURL(ctx, &input); err != nil {
		return nil, h.toStatus("failed to set shop url", err)
	}
	return h.encode(input)
}

func (h *AdminHandler) FindDuplicates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in FindDuplicatesRequest
	if err := pb.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	candidates, err := h.matcher.FindCandidates(ctx, in.CategoryID, in.ShopID, in.ExcludeIDs)
	if err != nil {
		return nil, h.toStatus("failed to find duplicates", err)
	}
	if candidates == nil {
		candidates = []model.DuplicateCandidate{}
	}
	return h.encode(FindDuplicatesResponse{Candidates: candidates})
}

func (h *AdminHandler) encode(v interface{}) (*structpb.Struct, error) {
	out, err := pb.Encode(v)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

func (h *AdminHandler) toStatus(msg string, err error) error {
	switch {
	case errors.Is(err, product.ErrInvalidInput), errors.Is(err, duplicate.ErrInvalidScope):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, product.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	h.logger.Error(msg, zap.String("kind", "fatal"), zap.Error(err))
	return status.Error(codes.Internal, msg)
}
