package grpcserver

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/metadata"

	"junction/api/swapapi"
	"junction/domain/swap"
	"junction/service"
)

// Server adapts SwapService to gRPC.
type Server struct {
	svc *service.SwapService
	log *logrus.Entry
}

var _ swapapi.SwapServiceServer = (*Server)(nil)

func NewServer(svc *service.SwapService, log *logrus.Entry) *Server {
	return &Server{svc: svc, log: log}
}

// -------------------- Commands --------------------

func (s *Server) CreateSwap(
	ctx context.Context,
	req *swapapi.CreateSwapRequest,
) (*swapapi.CreateSwapResponse, error) {
	offered, err := swapapi.ParseChain(req.OfferedChain)
	if err != nil {
		return nil, toStatus(err)
	}
	wanted, err := swapapi.ParseChain(req.WantedChain)
	if err != nil {
		return nil, toStatus(err)
	}

	id, err := s.svc.CreateSwap(
		ctx,
		identity(ctx),
		req.OfferedSymbol,
		offered,
		req.OfferedAmount,
		req.WantedSymbol,
		wanted,
		req.DurationNanos,
	)
	if err != nil {
		return nil, toStatus(err)
	}
	return &swapapi.CreateSwapResponse{ID: id}, nil
}

func (s *Server) ExecuteSwap(ctx context.Context, req *swapapi.ExecuteSwapRequest) (*swapapi.Empty, error) {
	if err := s.svc.ExecuteSwap(ctx, identity(ctx), req.ID1, req.ID2); err != nil {
		return nil, toStatus(err)
	}
	return &swapapi.Empty{}, nil
}

func (s *Server) CancelSwap(ctx context.Context, req *swapapi.CancelSwapRequest) (*swapapi.Empty, error) {
	if err := s.svc.CancelSwap(ctx, identity(ctx), req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &swapapi.Empty{}, nil
}

func (s *Server) Deposit(ctx context.Context, req *swapapi.DepositRequest) (*swapapi.DepositResponse, error) {
	c, err := swapapi.ParseChain(req.Chain)
	if err != nil {
		return nil, toStatus(err)
	}
	dup, err := s.svc.Deposit(ctx, req.Ref, identity(ctx), req.Symbol, c, req.Amount)
	if err != nil {
		return nil, toStatus(err)
	}
	return &swapapi.DepositResponse{Duplicate: dup}, nil
}

func (s *Server) Withdraw(ctx context.Context, req *swapapi.WithdrawRequest) (*swapapi.WithdrawResponse, error) {
	c, err := swapapi.ParseChain(req.Chain)
	if err != nil {
		return nil, toStatus(err)
	}
	ticket, err := s.svc.Withdraw(ctx, identity(ctx), req.Symbol, req.Amount, c, req.Address)
	if err != nil {
		return nil, toStatus(err)
	}
	return &swapapi.WithdrawResponse{Ticket: ticket}, nil
}

func (s *Server) DepositAddress(
	ctx context.Context,
	req *swapapi.DepositAddressRequest,
) (*swapapi.DepositAddressResponse, error) {
	c, err := swap.ParseChain(req.Chain)
	if err != nil {
		return nil, toStatus(err)
	}
	addr, err := s.svc.DepositAddress(identity(ctx), c)
	if err != nil {
		return nil, toStatus(err)
	}
	return &swapapi.DepositAddressResponse{Address: addr}, nil
}

// -------------------- Queries --------------------

func (s *Server) GetSwap(ctx context.Context, req *swapapi.GetSwapRequest) (*swapapi.Swap, error) {
	r, err := s.svc.GetSwap(req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	out := swapapi.FromSwap(r)
	return &out, nil
}

func (s *Server) ListPendingSwaps(ctx context.Context, _ *swapapi.Empty) (*swapapi.SwapList, error) {
	reqs := s.svc.ListPendingSwaps()
	resp := &swapapi.SwapList{Swaps: make([]swapapi.Swap, 0, len(reqs))}
	for _, r := range reqs {
		resp.Swaps = append(resp.Swaps, swapapi.FromSwap(r))
	}
	return resp, nil
}

func (s *Server) BalanceOf(ctx context.Context, req *swapapi.BalanceOfRequest) (*swapapi.BalanceOfResponse, error) {
	return &swapapi.BalanceOfResponse{Amount: s.svc.BalanceOf(owner(ctx, req.Owner), req.Symbol)}, nil
}

func (s *Server) Balances(ctx context.Context, req *swapapi.BalancesRequest) (*swapapi.BalancesResponse, error) {
	return &swapapi.BalancesResponse{Balances: s.svc.Balances(owner(ctx, req.Owner))}, nil
}

func (s *Server) WhoAmI(ctx context.Context, _ *swapapi.Empty) (*swapapi.WhoAmIResponse, error) {
	id := identity(ctx)
	return &swapapi.WhoAmIResponse{Identity: string(id), Anonymous: id.IsAnonymous()}, nil
}

func (s *Server) ListAssets(ctx context.Context, _ *swapapi.Empty) (*swapapi.AssetList, error) {
	list := s.svc.Assets()
	resp := &swapapi.AssetList{Assets: make([]swapapi.Asset, 0, len(list))}
	for _, a := range list {
		resp.Assets = append(resp.Assets, swapapi.Asset{
			Symbol:   a.Symbol,
			Chain:    swapapi.ChainName(a.Chain),
			Decimals: a.Decimals,
			Name:     a.Name,
		})
	}
	return resp, nil
}

func (s *Server) Audit(ctx context.Context, _ *swapapi.Empty) (*swapapi.AuditResponse, error) {
	reports := s.svc.Audit()
	resp := &swapapi.AuditResponse{Reports: make([]swapapi.SupplyReport, 0, len(reports))}
	for _, r := range reports {
		resp.Reports = append(resp.Reports, swapapi.SupplyReport(r))
	}
	return resp, nil
}

// -------------------- Converters --------------------

// identity reads the caller from the x-identity header. A missing header
// is the anonymous caller.
func identity(ctx context.Context) swap.Identity {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(swapapi.IdentityHeader)
	if len(vals) == 0 {
		return ""
	}
	return swap.Identity(strings.TrimSpace(vals[0]))
}

func owner(ctx context.Context, requested string) swap.Identity {
	if requested != "" {
		return swap.Identity(requested)
	}
	return identity(ctx)
}
