package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"timeslice/pkg/timeslice"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: timeslice-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version        Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  instruments    List loaded instruments\n")
		fmt.Fprintf(os.Stderr, "  times          List observed times for an instrument\n")
		fmt.Fprintf(os.Stderr, "  filters        List available date filters\n")
		fmt.Fprintf(os.Stderr, "  run            Run a backtest\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "version":
		fmt.Printf("timeslice-cli %s\n", version)

	case "instruments":
		cmdInstruments(ctx, os.Args[2:])

	case "times":
		cmdTimes(ctx, os.Args[2:])

	case "filters":
		cmdFilters(ctx, os.Args[2:])

	case "run":
		cmdRun(ctx, os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

func serverFlag(fs *flag.FlagSet) *string {
	return fs.String("server", "http://127.0.0.1:8080", "timeslice-server base URL")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func cmdInstruments(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("instruments", flag.ExitOnError)
	server := serverFlag(fs)
	fs.Parse(args)

	instruments, err := timeslice.NewClient(*server).Instruments(ctx)
	if err != nil {
		fatal(err)
	}
	for _, sym := range instruments {
		fmt.Println(sym)
	}
}

func cmdTimes(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("times", flag.ExitOnError)
	server := serverFlag(fs)
	instrument := fs.String("instrument", "", "instrument symbol (required)")
	fs.Parse(args)

	if *instrument == "" {
		fatal(fmt.Errorf("-instrument is required"))
	}
	times, err := timeslice.NewClient(*server).Times(ctx, *instrument)
	if err != nil {
		fatal(err)
	}
	for _, t := range times {
		fmt.Println(t)
	}
}

func cmdFilters(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("filters", flag.ExitOnError)
	server := serverFlag(fs)
	fs.Parse(args)

	filters, err := timeslice.NewClient(*server).Filters(ctx)
	if err != nil {
		fatal(err)
	}
	for _, f := range filters {
		fmt.Println(f)
	}
}

func cmdRun(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	server := serverFlag(fs)
	instrument := fs.String("instrument", "", "instrument symbol (required)")
	hedge := fs.String("hedge", "", "hedge symbol for spread mode")
	entry := fs.String("entry", "", "entry time, e.g. 09:30 (required)")
	exit := fs.String("exit", "", "exit time, e.g. 16:00 (required)")
	position := fs.String("position", "long", `position: "long" or "short"`)
	filters := fs.String("filters", "daily", "comma-separated filter labels")
	dates := fs.String("dates", "", "comma-separated explicit dates (overrides -filters)")
	showTrades := fs.Bool("trades", false, "print the individual trades")
	fs.Parse(args)

	if *instrument == "" || *entry == "" || *exit == "" {
		fatal(fmt.Errorf("-instrument, -entry and -exit are required"))
	}

	req := timeslice.BacktestRequest{
		Instrument: *instrument,
		Hedge:      *hedge,
		EntryTime:  *entry,
		ExitTime:   *exit,
		Position:   *position,
		Filters:    splitList(*filters),
		Dates:      splitList(*dates),
	}

	res, err := timeslice.NewClient(*server).Backtest(ctx, req)
	if err != nil {
		fatal(err)
	}

	if *showTrades {
		for _, tr := range res.Trades {
			fmt.Printf("%s  pnl %+8.2f  cum %+8.2f\n", tr.Date, tr.PnL, tr.CumulativePnL)
		}
		fmt.Println()
	}

	fmt.Printf("trades:       %d (of %d selected dates)\n", res.Stats.TradeCount, res.SelectedDates)
	fmt.Printf("mean pnl:     %s\n", formatStat(res.Stats.MeanPnL))
	fmt.Printf("std pnl:      %s\n", formatStat(res.Stats.StdPnL))
	fmt.Printf("avg gap days: %.2f\n", res.Stats.AvgGapDays)
	fmt.Printf("sharpe:       %s\n", formatStat(res.Stats.Sharpe))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatStat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}
