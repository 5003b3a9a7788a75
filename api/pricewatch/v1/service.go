package pricewatchv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	DealServiceName  = "pricewatch.v1.DealService"
	AdminServiceName = "pricewatch.v1.AdminService"
)

type unaryFunc func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryFunc) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DealService

type DealServiceServer interface {
	ListDeals(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCheapestPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPriceTimeline(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type UnimplementedDealServiceServer struct{}

func (UnimplementedDealServiceServer) ListDeals(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListDeals not implemented")
}

func (UnimplementedDealServiceServer) GetCheapestPrice(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCheapestPrice not implemented")
}

func (UnimplementedDealServiceServer) GetPriceTimeline(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPriceTimeline not implemented")
}

var DealService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: DealServiceName,
	HandlerType: (*DealServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListDeals",
			Handler: unaryHandler("/"+DealServiceName+"/ListDeals", func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(DealServiceServer).ListDeals(ctx, in)
			}),
		},
		{
			MethodName: "GetCheapestPrice",
			Handler: unaryHandler("/"+DealServiceName+"/GetCheapestPrice", func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(DealServiceServer).GetCheapestPrice(ctx, in)
			}),
		},
		{
			MethodName: "GetPriceTimeline",
			Handler: unaryHandler("/"+DealServiceName+"/GetPriceTimeline", func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(DealServiceServer).GetPriceTimeline(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricewatch/v1/service.proto",
}

func RegisterDealServiceServer(s grpc.ServiceRegistrar, srv DealServiceServer) {
	s.RegisterService(&DealService_ServiceDesc, srv)
}

type DealServiceClient interface {
	ListDeals(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetCheapestPrice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetPriceTimeline(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type dealServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDealServiceClient(cc grpc.ClientConnInterface) DealServiceClient {
	return &dealServiceClient{cc}
}

func (c *dealServiceClient) ListDeals(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, "/"+DealServiceName+"/ListDeals", in, opts...)
}

func (c *dealServiceClient) GetCheapestPrice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, "/"+DealServiceName+"/GetCheapestPrice", in, opts...)
}

func (c *dealServiceClient) GetPriceTimeline(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, "/"+DealServiceName+"/GetPriceTimeline", in, opts...)
}

// AdminService

type AdminServiceServer interface {
	MergeProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetShopURL(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindDuplicates(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type UnimplementedAdminServiceServer struct{}

func (UnimplementedAdminServiceServer) MergeProducts(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method MergeProducts not implemented")
}

func (UnimplementedAdminServiceServer) SetShopURL(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetShopURL not implemented")
}

func (UnimplementedAdminServiceServer) FindDuplicates(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method FindDuplicates not implemented")
}

var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "MergeProducts",
			Handler: unaryHandler("/"+AdminServiceName+"/MergeProducts", func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(AdminServiceServer).MergeProducts(ctx, in)
			}),
		},
		{
			MethodName: "SetShopURL",
			Handler: unaryHandler("/"+AdminServiceName+"/SetShopURL", func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(AdminServiceServer).SetShopURL(ctx, in)
			}),
		},
		{
			MethodName: "FindDuplicates",
			Handler: unaryHandler("/"+AdminServiceName+"/FindDuplicates", func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(AdminServiceServer).FindDuplicates(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricewatch/v1/service.proto",
}

func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}

type AdminServiceClient interface {
	MergeProducts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetShopURL(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	FindDuplicates(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type adminServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminServiceClient(cc grpc.ClientConnInterface) AdminServiceClient {
	return &adminServiceClient{cc}
}

func (c *adminServiceClient) MergeProducts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, "/"+AdminServiceName+"/MergeProducts", in, opts...)
}

func (c *adminServiceClient) SetShopURL(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, "/"+AdminServiceName+"/SetShopURL", in, opts...)
}

func (c *adminServiceClient) FindDuplicates(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, "/"+AdminServiceName+"/FindDuplicates", in, opts...)
}
