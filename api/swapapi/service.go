// Package swapapi is the wire contract of the swap gRPC service: message
// types, the service descriptor and a typed client. Messages travel as
// JSON under the "json" content-subtype.
package swapapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "junction.swap.v1.SwapService"

// IdentityHeader carries the caller identity. It is set by the
// authenticating proxy in front of the service.
const IdentityHeader = "x-identity"

type SwapServiceServer interface {
	CreateSwap(context.Context, *CreateSwapRequest) (*CreateSwapResponse, error)
	ExecuteSwap(context.Context, *ExecuteSwapRequest) (*Empty, error)
	CancelSwap(context.Context, *CancelSwapRequest) (*Empty, error)
	GetSwap(context.Context, *GetSwapRequest) (*Swap, error)
	ListPendingSwaps(context.Context, *Empty) (*SwapList, error)
	BalanceOf(context.Context, *BalanceOfRequest) (*BalanceOfResponse, error)
	Balances(context.Context, *BalancesRequest) (*BalancesResponse, error)
	Deposit(context.Context, *DepositRequest) (*DepositResponse, error)
	Withdraw(context.Context, *WithdrawRequest) (*WithdrawResponse, error)
	DepositAddress(context.Context, *DepositAddressRequest) (*DepositAddressResponse, error)
	WhoAmI(context.Context, *Empty) (*WhoAmIResponse, error)
	ListAssets(context.Context, *Empty) (*AssetList, error)
	Audit(context.Context, *Empty) (*AuditResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SwapServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateSwap", SwapServiceServer.CreateSwap),
		unary("ExecuteSwap", SwapServiceServer.ExecuteSwap),
		unary("CancelSwap", SwapServiceServer.CancelSwap),
		unary("GetSwap", SwapServiceServer.GetSwap),
		unary("ListPendingSwaps", SwapServiceServer.ListPendingSwaps),
		unary("BalanceOf", SwapServiceServer.BalanceOf),
		unary("Balances", SwapServiceServer.Balances),
		unary("Deposit", SwapServiceServer.Deposit),
		unary("Withdraw", SwapServiceServer.Withdraw),
		unary("DepositAddress", SwapServiceServer.DepositAddress),
		unary("WhoAmI", SwapServiceServer.WhoAmI),
		unary("ListAssets", SwapServiceServer.ListAssets),
		unary("Audit", SwapServiceServer.Audit),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "junction/swap/v1",
}

func RegisterSwapServiceServer(s grpc.ServiceRegistrar, srv SwapServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the wire name of a method, as seen by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](
	name string,
	call func(SwapServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SwapServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SwapServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
