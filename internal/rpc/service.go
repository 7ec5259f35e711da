package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "mes.consumption.v1.ConsumptionService"

const (
	GetPageMethod                = "/" + ServiceName + "/GetPage"
	GetGroupsMethod              = "/" + ServiceName + "/GetGroups"
	GetBatchFacetsMethod         = "/" + ServiceName + "/GetBatchFacets"
	GetPlannedQuantityMethod     = "/" + ServiceName + "/GetPlannedQuantity"
	InvalidateRecipeTotalsMethod = "/" + ServiceName + "/InvalidateRecipeTotals"
)

type ConsumptionServiceServer interface {
	GetPage(context.Context, *GetPageRequest) (*GetPageResponse, error)
	GetGroups(context.Context, *GetGroupsRequest) (*GetGroupsResponse, error)
	GetBatchFacets(context.Context, *GetBatchFacetsRequest) (*GetBatchFacetsResponse, error)
	GetPlannedQuantity(context.Context, *GetPlannedQuantityRequest) (*GetPlannedQuantityResponse, error)
	InvalidateRecipeTotals(context.Context, *InvalidateRecipeTotalsRequest) (*InvalidateRecipeTotalsResponse, error)
}

func RegisterConsumptionServiceServer(s grpc.ServiceRegistrar, srv ConsumptionServiceServer) {
	s.RegisterService(&ConsumptionServiceDesc, srv)
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(ConsumptionServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ConsumptionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ConsumptionServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ConsumptionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConsumptionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetPage",
			Handler:    unaryHandler(GetPageMethod, ConsumptionServiceServer.GetPage),
		},
		{
			MethodName: "GetGroups",
			Handler:    unaryHandler(GetGroupsMethod, ConsumptionServiceServer.GetGroups),
		},
		{
			MethodName: "GetBatchFacets",
			Handler:    unaryHandler(GetBatchFacetsMethod, ConsumptionServiceServer.GetBatchFacets),
		},
		{
			MethodName: "GetPlannedQuantity",
			Handler:    unaryHandler(GetPlannedQuantityMethod, ConsumptionServiceServer.GetPlannedQuantity),
		},
		{
			MethodName: "InvalidateRecipeTotals",
			Handler:    unaryHandler(InvalidateRecipeTotalsMethod, ConsumptionServiceServer.InvalidateRecipeTotals),
		},
	},
	Streams: []grpc.StreamDesc{},
}

type ConsumptionServiceClient interface {
	GetPage(ctx context.Context, in *GetPageRequest, opts ...grpc.CallOption) (*GetPageResponse, error)
	GetGroups(ctx context.Context, in *GetGroupsRequest, opts ...grpc.CallOption) (*GetGroupsResponse, error)
	GetBatchFacets(ctx context.Context, in *GetBatchFacetsRequest, opts ...grpc.CallOption) (*GetBatchFacetsResponse, error)
	GetPlannedQuantity(ctx context.Context, in *GetPlannedQuantityRequest, opts ...grpc.CallOption) (*GetPlannedQuantityResponse, error)
	InvalidateRecipeTotals(ctx context.Context, in *InvalidateRecipeTotalsRequest, opts ...grpc.CallOption) (*InvalidateRecipeTotalsResponse, error)
}

type consumptionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewConsumptionServiceClient(cc grpc.ClientConnInterface) ConsumptionServiceClient {
	return &consumptionServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *consumptionServiceClient) GetPage(ctx context.Context, in *GetPageRequest, opts ...grpc.CallOption) (*GetPageResponse, error) {
	return invoke[GetPageResponse](ctx, c.cc, GetPageMethod, in, opts)
}

func (c *consumptionServiceClient) GetGroups(ctx context.Context, in *GetGroupsRequest, opts ...grpc.CallOption) (*GetGroupsResponse, error) {
	return invoke[GetGroupsResponse](ctx, c.cc, GetGroupsMethod, in, opts)
}

func (c *consumptionServiceClient) GetBatchFacets(ctx context.Context, in *GetBatchFacetsRequest, opts ...grpc.CallOption) (*GetBatchFacetsResponse, error) {
	return invoke[GetBatchFacetsResponse](ctx, c.cc, GetBatchFacetsMethod, in, opts)
}

func (c *consumptionServiceClient) GetPlannedQuantity(ctx context.Context, in *GetPlannedQuantityRequest, opts ...grpc.CallOption) (*GetPlannedQuantityResponse, error) {
	return invoke[GetPlannedQuantityResponse](ctx, c.cc, GetPlannedQuantityMethod, in, opts)
}

func (c *consumptionServiceClient) InvalidateRecipeTotals(ctx context.Context, in *InvalidateRecipeTotalsRequest, opts ...grpc.CallOption) (*InvalidateRecipeTotalsResponse, error) {
	return invoke[InvalidateRecipeTotalsResponse](ctx, c.cc, InvalidateRecipeTotalsMethod, in, opts)
}
