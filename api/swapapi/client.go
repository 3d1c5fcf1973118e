package swapapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// DialOptions selects the JSON codec for every call. Transport security
// is terminated by the proxy that also sets the identity header.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
}

// WithIdentity attaches the caller identity to outgoing calls.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, IdentityHeader, identity)
}

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSwap(ctx context.Context, in *CreateSwapRequest, opts ...grpc.CallOption) (*CreateSwapResponse, error) {
	return invoke[CreateSwapResponse](ctx, c.cc, "CreateSwap", in, opts)
}

func (c *Client) ExecuteSwap(ctx context.Context, in *ExecuteSwapRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "ExecuteSwap", in, opts)
}

func (c *Client) CancelSwap(ctx context.Context, in *CancelSwapRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "CancelSwap", in, opts)
}

func (c *Client) GetSwap(ctx context.Context, in *GetSwapRequest, opts ...grpc.CallOption) (*Swap, error) {
	return invoke[Swap](ctx, c.cc, "GetSwap", in, opts)
}

func (c *Client) ListPendingSwaps(ctx context.Context, opts ...grpc.CallOption) (*SwapList, error) {
	return invoke[SwapList](ctx, c.cc, "ListPendingSwaps", &Empty{}, opts)
}

func (c *Client) BalanceOf(ctx context.Context, in *BalanceOfRequest, opts ...grpc.CallOption) (*BalanceOfResponse, error) {
	return invoke[BalanceOfResponse](ctx, c.cc, "BalanceOf", in, opts)
}

func (c *Client) Balances(ctx context.Context, in *BalancesRequest, opts ...grpc.CallOption) (*BalancesResponse, error) {
	return invoke[BalancesResponse](ctx, c.cc, "Balances", in, opts)
}

func (c *Client) Deposit(ctx context.Context, in *DepositRequest, opts ...grpc.CallOption) (*DepositResponse, error) {
	return invoke[DepositResponse](ctx, c.cc, "Deposit", in, opts)
}

func (c *Client) Withdraw(ctx context.Context, in *WithdrawRequest, opts ...grpc.CallOption) (*WithdrawResponse, error) {
	return invoke[WithdrawResponse](ctx, c.cc, "Withdraw", in, opts)
}

func (c *Client) DepositAddress(ctx context.Context, in *DepositAddressRequest, opts ...grpc.CallOption) (*DepositAddressResponse, error) {
	return invoke[DepositAddressResponse](ctx, c.cc, "DepositAddress", in, opts)
}

func (c *Client) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*WhoAmIResponse, error) {
	return invoke[WhoAmIResponse](ctx, c.cc, "WhoAmI", &Empty{}, opts)
}

func (c *Client) ListAssets(ctx context.Context, opts ...grpc.CallOption) (*AssetList, error) {
	return invoke[AssetList](ctx, c.cc, "ListAssets", &Empty{}, opts)
}

func (c *Client) Audit(ctx context.Context, opts ...grpc.CallOption) (*AuditResponse, error) {
	return invoke[AuditResponse](ctx, c.cc, "Audit", &Empty{}, opts)
}
