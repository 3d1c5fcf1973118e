// Command swapctl talks to a junction server over gRPC. Amounts are given
// and shown in whole tokens, using the server's asset catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"

	"junction/api/grpcserver"
	"junction/api/swapapi"
	"junction/domain/swap"
	"junction/infra/assets"
)

const usage = `usage: swapctl [flags] <command> [args]

commands:
  whoami
  assets
  deposit  <symbol> <amount> [ref]
  withdraw <symbol> <amount> <chain> <address>
  create   <offered-symbol> <amount> <wanted-symbol> <duration>
  execute  <id1> <id2>
  cancel   <id>
  get      <id>
  pending
  balance  [owner]
  address  <chain>
  audit
`

func main() {
	addr := flag.String("addr", "localhost:9090", "server address")
	identity := flag.String("identity", os.Getenv("JUNCTION_IDENTITY"), "caller identity")
	timeout := flag.Duration("timeout", 10*time.Second, "per-call timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	conn, err := grpc.NewClient(*addr, swapapi.DialOptions()...)
	if err != nil {
		fail(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if *identity != "" {
		ctx = swapapi.WithIdentity(ctx, *identity)
	}

	c := &cli{client: swapapi.NewClient(conn), out: tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)}
	if err := c.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fail(err)
	}
	c.out.Flush()
}

func fail(err error) {
	if reason := grpcserver.Reason(err); reason != "" {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", reason, err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

type cli struct {
	client  *swapapi.Client
	out     *tabwriter.Writer
	catalog *assets.Catalog
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	need := func(n int) error {
		if len(args) < n {
			return errors.Newf("%s needs %d arguments\n\n%s", cmd, n, usage)
		}
		return nil
	}

	switch cmd {
	case "whoami":
		resp, err := c.client.WhoAmI(ctx)
		if err != nil {
			return err
		}
		if resp.Anonymous {
			fmt.Fprintln(c.out, "anonymous")
		} else {
			fmt.Fprintln(c.out, resp.Identity)
		}

	case "assets":
		list, err := c.client.ListAssets(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, "SYMBOL\tCHAIN\tDECIMALS\tNAME")
		for _, a := range list.Assets {
			fmt.Fprintf(c.out, "%s\t%s\t%d\t%s\n", a.Symbol, a.Chain, a.Decimals, a.Name)
		}

	case "deposit":
		if err := need(2); err != nil {
			return err
		}
		amount, err := c.amount(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		req := &swapapi.DepositRequest{Symbol: args[0], Amount: amount}
		if len(args) > 2 {
			req.Ref = args[2]
		}
		resp, err := c.client.Deposit(ctx, req)
		if err != nil {
			return err
		}
		if resp.Duplicate {
			fmt.Fprintln(c.out, "already credited")
		} else {
			fmt.Fprintln(c.out, "credited")
		}

	case "withdraw":
		if err := need(4); err != nil {
			return err
		}
		amount, err := c.amount(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		resp, err := c.client.Withdraw(ctx, &swapapi.WithdrawRequest{
			Symbol: args[0], Amount: amount, Chain: args[2], Address: args[3],
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, resp.Ticket)

	case "create":
		if err := need(4); err != nil {
			return err
		}
		amount, err := c.amount(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		d, err := time.ParseDuration(args[3])
		if err != nil || d <= 0 {
			return errors.Newf("bad duration %q", args[3])
		}
		resp, err := c.client.CreateSwap(ctx, &swapapi.CreateSwapRequest{
			OfferedSymbol: args[0], OfferedAmount: amount,
			WantedSymbol: args[2], DurationNanos: uint64(d),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, resp.ID)

	case "execute":
		if err := need(2); err != nil {
			return err
		}
		id1, err := parseID(args[0])
		if err != nil {
			return err
		}
		id2, err := parseID(args[1])
		if err != nil {
			return err
		}
		if _, err := c.client.ExecuteSwap(ctx, &swapapi.ExecuteSwapRequest{ID1: id1, ID2: id2}); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "matched")

	case "cancel":
		if err := need(1); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if _, err := c.client.CancelSwap(ctx, &swapapi.CancelSwapRequest{ID: id}); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "cancelled")

	case "get":
		if err := need(1); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := c.client.GetSwap(ctx, &swapapi.GetSwapRequest{ID: id})
		if err != nil {
			return err
		}
		return c.printSwaps(ctx, []swapapi.Swap{*s})

	case "pending":
		list, err := c.client.ListPendingSwaps(ctx)
		if err != nil {
			return err
		}
		return c.printSwaps(ctx, list.Swaps)

	case "balance":
		req := &swapapi.BalancesRequest{}
		if len(args) > 0 {
			req.Owner = args[0]
		}
		resp, err := c.client.Balances(ctx, req)
		if err != nil {
			return err
		}
		catalog, err := c.assets(ctx)
		if err != nil {
			return err
		}
		symbols := make([]string, 0, len(resp.Balances))
		for sym := range resp.Balances {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		fmt.Fprintln(c.out, "SYMBOL\tAMOUNT")
		for _, sym := range symbols {
			fmt.Fprintf(c.out, "%s\t%s\n", sym, catalog.Format(sym, resp.Balances[sym]))
		}

	case "address":
		if err := need(1); err != nil {
			return err
		}
		resp, err := c.client.DepositAddress(ctx, &swapapi.DepositAddressRequest{Chain: args[0]})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, resp.Address)

	case "audit":
		resp, err := c.client.Audit(ctx)
		if err != nil {
			return err
		}
		catalog, err := c.assets(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, "SYMBOL\tSPENDABLE\tESCROWED\tDEPOSITED\tWITHDRAWN\tBALANCED")
		for _, r := range resp.Reports {
			fmt.Fprintf(c.out, "%s\t%s\t%s\t%s\t%s\t%t\n", r.Symbol,
				catalog.Format(r.Symbol, r.Spendable), catalog.Format(r.Symbol, r.Escrowed),
				catalog.Format(r.Symbol, r.Deposited), catalog.Format(r.Symbol, r.Withdrawn), r.Balanced)
		}

	default:
		return errors.Newf("unknown command %q\n\n%s", cmd, usage)
	}
	return nil
}

func (c *cli) printSwaps(ctx context.Context, swaps []swapapi.Swap) error {
	catalog, err := c.assets(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ID\tOWNER\tOFFERED\tWANTED\tDEADLINE\tSTATUS")
	for _, s := range swaps {
		fmt.Fprintf(c.out, "%d\t%s\t%s %s/%s\t%s/%s\t%s\t%s\n",
			s.ID, s.Owner,
			catalog.Format(s.OfferedSymbol, s.OfferedAmount), s.OfferedSymbol, s.OfferedChain,
			s.WantedSymbol, s.WantedChain,
			time.Unix(0, int64(s.Deadline)).UTC().Format(time.RFC3339),
			s.Status)
	}
	return nil
}

// assets fetches the server's catalog once.
func (c *cli) assets(ctx context.Context) (*assets.Catalog, error) {
	if c.catalog != nil {
		return c.catalog, nil
	}
	list, err := c.client.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]assets.Asset, 0, len(list.Assets))
	for _, a := range list.Assets {
		ch, err := swapapi.ParseChain(a.Chain)
		if err != nil {
			return nil, err
		}
		entries = append(entries, assets.Asset{Symbol: a.Symbol, Chain: ch, Decimals: a.Decimals, Name: a.Name})
	}
	c.catalog = assets.New(entries)
	return c.catalog, nil
}

func (c *cli) amount(ctx context.Context, symbol, s string) (uint64, error) {
	catalog, err := c.assets(ctx)
	if err != nil {
		return 0, err
	}
	return catalog.Parse(symbol, s)
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(swap.ErrInvalidInput, "swap id %q", s)
	}
	return id, nil
}
