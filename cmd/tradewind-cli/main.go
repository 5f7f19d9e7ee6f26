package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tradewind/pkg/tradewind"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tradewind-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version      Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  submit       Submit a parent order\n")
		fmt.Fprintf(os.Stderr, "  cancel       Cancel a parent order by ID\n")
		fmt.Fprintf(os.Stderr, "  order        Show one order and its children\n")
		fmt.Fprintf(os.Stderr, "  orders       List orders\n")
		fmt.Fprintf(os.Stderr, "  positions    List positions\n")
		fmt.Fprintf(os.Stderr, "  risk         Show risk engine statistics\n")
		fmt.Fprintf(os.Stderr, "\nServer address comes from TRADEWIND_SERVER (default http://localhost:8080).\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	server := "http://localhost:8080"
	if s := os.Getenv("TRADEWIND_SERVER"); s != "" {
		server = s
	}
	client := tradewind.NewClient(server)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("tradewind-cli %s\n", version)

	case "submit":
		err = cmdSubmit(ctx, client, os.Args[2:])

	case "cancel":
		err = cmdCancel(ctx, client, os.Args[2:])

	case "order":
		err = cmdOrder(ctx, client, os.Args[2:])

	case "orders":
		err = cmdOrders(ctx, client, os.Args[2:])

	case "positions":
		err = cmdPositions(ctx, client)

	case "risk":
		err = cmdRisk(ctx, client)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func cmdSubmit(ctx context.Context, client *tradewind.Client, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	symbol := fs.String("symbol", "", "symbol to trade (required)")
	side := fs.String("side", "buy", "buy or sell")
	typ := fs.String("type", "market", "market, limit, twap, or iceberg")
	qty := fs.Float64("qty", 0, "quantity (required)")
	limit := fs.Float64("limit", 0, "limit price (limit/iceberg)")
	slices := fs.Int("slices", 0, "TWAP slice count")
	duration := fs.String("duration", "", "TWAP duration (e.g. 5m)")
	visible := fs.Float64("visible", 0, "iceberg visible quantity")
	fs.Parse(args)

	order, err := client.SubmitOrder(ctx, tradewind.SubmitOrderRequest{
		Symbol:       *symbol,
		Side:         *side,
		Type:         *typ,
		Qty:          *qty,
		LimitPrice:   *limit,
		TWAPSlices:   *slices,
		TWAPDuration: *duration,
		VisibleQty:   *visible,
	})
	if err != nil {
		return err
	}
	fmt.Printf("submitted %s: %s %s %v %s (status %s)\n",
		order.ID, order.Side, order.Symbol, order.Qty, order.Type, order.Status)
	return nil
}

func cmdCancel(ctx context.Context, client *tradewind.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: tradewind-cli cancel <order-id>")
	}
	if err := client.CancelOrder(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("cancellation requested for %s\n", args[0])
	return nil
}

func cmdOrder(ctx context.Context, client *tradewind.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: tradewind-cli order <order-id>")
	}
	detail, err := client.GetOrder(ctx, args[0])
	if err != nil {
		return err
	}
	printOrder(detail.Order)
	for _, child := range detail.Children {
		fmt.Print("  ")
		printOrder(child)
	}
	return nil
}

func cmdOrders(ctx context.Context, client *tradewind.Client, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	status := fs.String("status", "", "filter by status")
	fs.Parse(args)

	orders, err := client.ListOrders(ctx, *status)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("no orders")
		return nil
	}
	for _, o := range orders {
		printOrder(o)
	}
	return nil
}

func cmdPositions(ctx context.Context, client *tradewind.Client) error {
	positions, err := client.GetPositions(ctx)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("no positions")
		return nil
	}
	for _, p := range positions {
		fmt.Printf("%-8s qty %10.2f  avg cost %10.2f\n", p.Symbol, p.Qty, p.AvgCost)
	}
	return nil
}

func cmdRisk(ctx context.Context, client *tradewind.Client) error {
	stats, err := client.GetRiskStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("validations %d  approved %d  rejected %d\n",
		stats.Validations, stats.Approved, stats.Rejected)
	return nil
}

func printOrder(o tradewind.Order) {
	line := fmt.Sprintf("%s  %-4s %-8s %-7s qty %10.2f filled %10.2f  %s",
		o.ID, o.Side, o.Symbol, o.Type, o.Qty, o.FilledQty, o.Status)
	if o.Reason != "" {
		line += "  (" + o.Reason + ")"
	}
	fmt.Println(line)
}
