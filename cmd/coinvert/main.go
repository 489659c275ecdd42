// Coinvert converts between fiat currencies and cryptocurrencies from
// the terminal.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"coinvert/internals/adapter/coingecko"
	"coinvert/internals/adapter/fiatrates"
	"coinvert/internals/adapter/rest"
	"coinvert/internals/catalog"
	"coinvert/internals/config"
	"coinvert/internals/core/domain"
	"coinvert/internals/format"
	"coinvert/internals/history"
	"coinvert/internals/logging"
	"coinvert/internals/prompt"
	"coinvert/internals/refdata"
	"coinvert/internals/selection"
	"coinvert/internals/service"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg       *config.Config
	logger    *slog.Logger
	converter service.ConverterService
	tables    *refdata.Tables
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coinvert",
	Short: "Convert between fiat currencies and cryptocurrencies",
	Long: `Coinvert converts between fiat currencies and the top cryptocurrencies
using live rates, with autocomplete search over the combined catalog and
30-day rate history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		level, _ := cmd.Flags().GetString("log-level")
		logger = logging.NewDefault(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
}

// buildStack wires the live providers and builds the catalog once for
// this invocation. Both legs degrade to bundled data when a provider is
// unreachable, so this never fails.
func buildStack(cmd *cobra.Command) {
	fiatREST := rest.New(cfg.RequestTimeout, rest.NewRateLimit(cfg.FiatRateInterval, cfg.FiatRateBurst), logger)
	coinREST := rest.New(cfg.RequestTimeout, rest.NewRateLimit(cfg.CoinRateInterval, cfg.CoinRateBurst), logger)
	fiatAPI := fiatrates.New(fiatREST, cfg.FiatAPIURL, logger)
	coinAPI := coingecko.New(coinREST, cfg.CoinAPIURL, logger)

	tables = refdata.Load(logger)
	builder := catalog.NewBuilder(fiatAPI, coinAPI, tables, logger)
	cat, _ := builder.Build(cmd.Context())
	holder := catalog.NewHolder(cat)
	charts := history.New(coinAPI, fiatAPI, logger)
	converter = service.NewConverterService(holder, fiatAPI, coinAPI, charts, tables.Popular, logger)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coinvert %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

// --- Convert Command ---

var convertCmd = &cobra.Command{
	Use:   "convert [amount] [from] [to]",
	Short: "Convert an amount between two currencies",
	Long: `Convert an amount between two currencies.

With three arguments the conversion runs directly:
  coinvert convert 100 usd eur
  coinvert convert 0.5 btc usd

With no arguments an interactive picker selects both currencies.`,
	Args: cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 3:
			buildStack(cmd)
			return convertDirect(cmd, args)
		case 0:
			buildStack(cmd)
			return convertInteractive(cmd)
		default:
			return errors.New("provide amount, from and to, or no arguments for interactive mode")
		}
	},
}

func convertDirect(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	from, err := converter.ResolveCode(args[1])
	if err != nil {
		return err
	}
	to, err := converter.ResolveCode(args[2])
	if err != nil {
		return err
	}
	res, err := converter.Convert(cmd.Context(), domain.ConversionRequest{
		From:   from.Selection(),
		To:     to.Selection(),
		Amount: amount,
	})
	if err != nil {
		return err
	}
	printResult(res, from, to)
	return nil
}

func convertInteractive(cmd *cobra.Command) error {
	picker := prompt.NewPicker(converter)

	var fromTracker, toTracker selection.Tracker
	from, ok, err := picker.Run("From", &fromTracker)
	if err != nil {
		return interactiveErr(err)
	}
	if !ok {
		if from, ok = recoverTyped(&fromTracker); !ok {
			return errors.New("no source currency selected")
		}
	}
	to, ok, err := picker.Run("To", &toTracker)
	if err != nil {
		return interactiveErr(err)
	}
	if !ok {
		if to, ok = recoverTyped(&toTracker); !ok {
			return errors.New("no target currency selected")
		}
	}

	amount, err := readAmount(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	fromSel, _ := fromTracker.Selection()
	toSel, _ := toTracker.Selection()
	res, err := converter.Convert(cmd.Context(), domain.ConversionRequest{
		From:   fromSel,
		To:     toSel,
		Amount: amount,
	})
	if err != nil {
		return err
	}
	printResult(res, from, to)
	return nil
}

// recoverTyped resolves a picker field dismissed mid-typing: text that
// already names a catalog entry (a bare code, or the pinned canonical
// form) still counts as a selection.
func recoverTyped(tr *selection.Tracker) (domain.CurrencyEntry, bool) {
	e, ok := selection.Parse(tr.Text(), converter.Catalog())
	if ok {
		tr.Select(e)
	}
	return e, ok
}

func interactiveErr(err error) error {
	if errors.Is(err, prompt.ErrNotTerminal) {
		return errors.New("interactive mode needs a terminal; pass amount, from and to as arguments")
	}
	return err
}

func readAmount(in *os.File, out *os.File) (float64, error) {
	fmt.Fprint(out, "Amount: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return 0, err
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", strings.TrimSpace(line))
	}
	return amount, nil
}

func printResult(res *domain.ConversionResult, from, to domain.CurrencyEntry) {
	fmt.Printf("%s %s = %s %s\n",
		format.AmountFor(res.AmountIn, from.Code, from.Kind, tables), from.Code,
		format.AmountFor(res.AmountOut, to.Code, to.Kind, tables), to.Code)
	fmt.Printf("1 %s = %s %s\n", from.Code, format.Rate(res.Rate), to.Code)
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the currency catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buildStack(cmd)
		printGroups(converter.Search(args[0]))
		return nil
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Show the popular currency picks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		buildStack(cmd)
		printGroups(converter.Popular())
		return nil
	},
}

func printGroups(res domain.SearchResult) {
	if res.NoMatches {
		fmt.Println("no results")
		return
	}
	if len(res.Fiat) > 0 {
		fmt.Println("Fiat:")
		for _, e := range res.Fiat {
			fmt.Printf("  %s\n", selection.Canonical(e))
		}
	}
	if len(res.Crypto) > 0 {
		fmt.Println("Crypto:")
		for _, e := range res.Crypto {
			fmt.Printf("  %s\n", selection.Canonical(e))
		}
	}
}

// --- List Command ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every currency in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		buildStack(cmd)
		cat := converter.Catalog()
		for _, e := range cat.Entries() {
			fmt.Printf("%-6s %-28s %s\n", e.Code, e.Name, e.Kind)
		}
		fmt.Printf("%d currencies\n", cat.Len())
		return nil
	},
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history [from] [to]",
	Short: "Show the 30-day rate history for a pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		buildStack(cmd)
		from, err := converter.ResolveCode(args[0])
		if err != nil {
			return err
		}
		to, err := converter.ResolveCode(args[1])
		if err != nil {
			return err
		}

		res := converter.History(cmd.Context(), from.Selection(), to.Selection())
		fmt.Printf("%s/%s, last %d days\n", from.Code, to.Code, len(res.Points))
		for _, line := range renderSeries(res.Points) {
			fmt.Println(line)
		}
		if res.Degraded {
			fmt.Println("note: placeholder data, provider unavailable")
		} else if res.Simulated {
			fmt.Println("note: simulated data")
		}
		return nil
	},
}

const barWidth = 24

// renderSeries draws one bar per day, scaled between the series minimum
// and maximum.
func renderSeries(points domain.RateSeries) []string {
	if len(points) == 0 {
		return nil
	}
	lo, hi := points[0].Value, points[0].Value
	for _, p := range points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}

	lines := make([]string, 0, len(points))
	for _, p := range points {
		n := barWidth / 2
		if hi > lo {
			n = 1 + int(float64(barWidth-1)*(p.Value-lo)/(hi-lo))
		}
		bar := strings.Repeat("▇", n) + strings.Repeat(" ", barWidth-n)
		lines = append(lines, fmt.Sprintf("%s  %s %s", p.Label, bar, format.Rate(p.Value)))
	}
	return lines
}
