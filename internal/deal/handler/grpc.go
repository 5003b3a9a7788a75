package handler

import (
	"context"
	"errors"
	"time"

	pb "github.com/fekuna/pricewatch-service/api/pricewatch/v1"
	"github.com/fekuna/pricewatch-service/internal/deal"
	"github.com/fekuna/pricewatch-service/internal/deal/dto"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ pb.DealServiceServer = (*DealHandler)(nil)

type DealHandler struct {
	pb.UnimplementedDealServiceServer
	deals  deal.UseCase
	prices price.UseCase
	logger logger.ZapLogger
}

func NewDealHandler(deals deal.UseCase, prices price.UseCase, log logger.ZapLogger) *DealHandler {
	return &DealHandler{
		deals:  deals,
		prices: prices,
		logger: log,
	}
}

type CheapestPriceRequest struct {
	ProductID int64   `json:"product_id"`
	ShopIDs   []int64 `json:"shop_ids,omitempty"`
}

type TimelineRequest struct {
	ProductID int64 `json:"product_id"`
}

type TimelineResponse struct {
	ProductID int64                `json:"product_id"`
	Points    []deal.TimelinePoint `json:"points"`
}

func (h *DealHandler) ListDeals(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var f dto.DealFilters
	if err := pb.Decode(req, &f); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	list, err := h.deals.ListDeals(ctx, f)
	if err != nil {
		return nil, h.toStatus("failed to list deals", err)
	}
	return h.encode(list)
}

func (h *DealHandler) GetCheapestPrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in CheapestPriceRequest
	if err := pb.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if in.ProductID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "product_id is required")
	}

	sp, err := h.prices.GetCheapestPrice(ctx, in.ProductID, in.ShopIDs)
	if err != nil {
		return nil, h.toStatus("failed to get cheapest price", err)
	}
	if sp == nil {
		return nil, status.Error(codes.NotFound, "no listed price for product")
	}
	return h.encode(sp)
}

func (h *DealHandler) GetPriceTimeline(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in TimelineRequest
	if err := pb.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if in.ProductID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "product_id is required")
	}

	points, err := h.deals.GetPriceTimeline(ctx, in.ProductID, time.Time{})
	if err != nil {
		return nil, h.toStatus("failed to build price timeline", err)
	}
	return h.encode(TimelineResponse{ProductID: in.ProductID, Points: points})
}

func (h *DealHandler) encode(v interface{}) (*structpb.Struct, error) {
	out, err := pb.Encode(v)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

func (h *DealHandler) toStatus(msg string, err error) error {
	switch {
	case errors.Is(err, dto.ErrInvalidFilters):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, deal.ErrProductNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	h.logger.Error(msg, zap.String("kind", "fatal"), zap.Error(err))
	return status.Error(codes.Internal, msg)
}
