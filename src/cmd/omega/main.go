package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mickeykoko321/omega/src/chain"
	"github.com/mickeykoko321/omega/src/cmd/omega/run"
	"github.com/mickeykoko321/omega/src/events"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/utils"
)

var rootCmd = &cobra.Command{
	Use:   "omega",
	Short: "Futures contract chains and calendar events",
	Long:  "Builds futures contract chains from the contract-month tables, attaches their daily data and resolves the calendar events of each structure.",
}

var chainCmd = &cobra.Command{
	Use:   "chain --stem LH --kind Outright --status Active",
	Short: "Build a chain, attach its data and print a summary",
	Run: withApp(func(cmd *cobra.Command, app *run.App) error {
		args, err := chainArgs(cmd, true)
		if err != nil {
			return err
		}

		fc, err := app.Chain(args)
		if err != nil {
			return fmt.Errorf("error building chain: %w", err)
		}

		fmt.Println(fc.Summary())
		return nil
	}),
}

var eventsCmd = &cobra.Command{
	Use:   "events --stem LH --kind Spread --event GoldmanRoll --offset 3",
	Short: "Resolve a calendar event for every structure of a chain",
	Run: withApp(func(cmd *cobra.Command, app *run.App) error {
		event, err := cmd.Flags().GetString("event")
		if err != nil {
			return fmt.Errorf("error getting event: %w", err)
		}

		kind, err := events.ParseKind(event)
		if err != nil {
			return fmt.Errorf("invalid event: %w", err)
		}

		offset, err := cmd.Flags().GetInt("offset")
		if err != nil {
			return fmt.Errorf("error getting offset: %w", err)
		}

		args, err := chainArgs(cmd, false)
		if err != nil {
			return err
		}

		rows, err := app.Events(args, kind, offset)
		if err != nil {
			return fmt.Errorf("error resolving events: %w", err)
		}

		fmt.Println(run.EventsTable(kind, rows))
		return nil
	}),
}

var amendCmd = &cobra.Command{
	Use:   "amend --stem LH --trade G,J --no-trade K",
	Short: "Switch trading on or off for the contract months of given letters",
	Run: withApp(func(cmd *cobra.Command, app *run.App) error {
		stem, err := cmd.Flags().GetString("stem")
		if err != nil {
			return fmt.Errorf("error getting stem: %w", err)
		}

		trade, err := cmd.Flags().GetStringSlice("trade")
		if err != nil {
			return fmt.Errorf("error getting trade: %w", err)
		}

		noTrade, err := cmd.Flags().GetStringSlice("no-trade")
		if err != nil {
			return fmt.Errorf("error getting no-trade: %w", err)
		}

		if err := app.Amend(stem, trade, noTrade); err != nil {
			return fmt.Errorf("error amending %s: %w", stem, err)
		}

		return nil
	}),
}

var providerFileCmd = &cobra.Command{
	Use:   "provider-file --provider Bloomberg --status Active --out tickers.csv",
	Short: "Write the download tickers of the markets with their provider symbols",
	Run: withApp(func(cmd *cobra.Command, app *run.App) error {
		p, err := cmd.Flags().GetString("provider")
		if err != nil {
			return fmt.Errorf("error getting provider: %w", err)
		}

		provider, err := instrument.ParseProvider(p)
		if err != nil {
			return fmt.Errorf("invalid provider: %w", err)
		}

		out, err := cmd.Flags().GetString("out")
		if err != nil {
			return fmt.Errorf("error getting out: %w", err)
		}

		st, err := status(cmd)
		if err != nil {
			return err
		}

		d, err := date(cmd)
		if err != nil {
			return err
		}

		stems, err := marketStems(cmd, app)
		if err != nil {
			return err
		}

		w := os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("error creating %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}

		if _, err := app.ProviderFile(w, st, provider, stems, d); err != nil {
			return fmt.Errorf("error writing provider file: %w", err)
		}

		return nil
	}),
}

var curvatureCmd = &cobra.Command{
	Use:   "curvature --date 2018-05-01",
	Short: "List the ED and FF butterflies used for curvature",
	Run: withApp(func(cmd *cobra.Command, app *run.App) error {
		d, err := date(cmd)
		if err != nil {
			return err
		}

		tickers, err := app.Curvature(d)
		if err != nil {
			return fmt.Errorf("error listing curvature: %w", err)
		}

		fmt.Println(strings.Join(tickers, "\n"))
		return nil
	}),
}

var missingCmd = &cobra.Command{
	Use:   "missing --sector Commodity",
	Short: "List the download tickers without stored data",
	Run: withApp(func(cmd *cobra.Command, app *run.App) error {
		d, err := date(cmd)
		if err != nil {
			return err
		}

		stems, err := marketStems(cmd, app)
		if err != nil {
			return err
		}

		missing, report := app.Missing(stems, d)
		for _, ticker := range missing {
			fmt.Println(ticker)
		}

		if err := report.Err(); err != nil {
			log.Warnf("some markets were skipped: %v", err)
		}

		return nil
	}),
}

var referenceCmd = &cobra.Command{
	Use:   "reference --stem LH --kind Outright --status Expired",
	Short: "Write the reference series covering a chain",
	Run: withApp(func(cmd *cobra.Command, app *run.App) error {
		args, err := chainArgs(cmd, true)
		if err != nil {
			return err
		}

		series, err := app.Reference(args)
		if err != nil {
			return fmt.Errorf("error writing reference: %w", err)
		}

		first, _ := series.First()
		last, _ := series.Last()
		fmt.Printf("reference from %s to %s\n", utils.FormatDate(first.Date), utils.FormatDate(last.Date))
		return nil
	}),
}

type appFunc func(cmd *cobra.Command, app *run.App) error

// withApp sets the app up, runs fn and exits non-zero on error once the
// app is closed.
func withApp(fn appFunc) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		app := setup(cmd)
		if err := runApp(cmd, app, fn); err != nil {
			log.Fatalf("%v", err)
		}
	}
}

// runApp closes the app whatever fn returns, so the metrics textfile and
// pending notifications are written for failed runs too.
func runApp(cmd *cobra.Command, app *run.App, fn appFunc) error {
	err := fn(cmd, app)
	closeApp(app)
	return err
}

func setup(cmd *cobra.Command) *run.App {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		log.Fatalf("error getting config: %v", err)
	}

	goEnv, err := cmd.Flags().GetString("go-env")
	if err != nil {
		log.Fatalf("error getting go-env: %v", err)
	}

	envDir, err := cmd.Flags().GetString("env")
	if err != nil {
		log.Fatalf("error getting env: %v", err)
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		log.Fatalf("error getting log-level: %v", err)
	}

	textfile, err := cmd.Flags().GetString("metrics-textfile")
	if err != nil {
		log.Fatalf("error getting metrics-textfile: %v", err)
	}

	app, err := run.Setup(run.RunArgs{
		ConfigPath:      configPath,
		GoEnv:           goEnv,
		EnvDir:          envDir,
		LogLevel:        logLevel,
		MetricsTextfile: textfile,
	})
	if err != nil {
		log.Fatalf("error setting up omega: %v", err)
	}

	return app
}

func closeApp(app *run.App) {
	if err := app.Close(); err != nil {
		log.Errorf("error closing omega: %v", err)
	}
}

func date(cmd *cobra.Command) (time.Time, error) {
	s, err := cmd.Flags().GetString("date")
	if err != nil {
		return time.Time{}, fmt.Errorf("error getting date: %w", err)
	}

	if s == "" {
		return utils.Day(time.Now()), nil
	}

	d, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %w", err)
	}

	return d, nil
}

func status(cmd *cobra.Command) (chain.Status, error) {
	s, err := cmd.Flags().GetString("status")
	if err != nil {
		return "", fmt.Errorf("error getting status: %w", err)
	}

	st, err := chain.ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("invalid status: %w", err)
	}

	return st, nil
}

func marketStems(cmd *cobra.Command, app *run.App) ([]string, error) {
	explicit, err := cmd.Flags().GetStringSlice("stems")
	if err != nil {
		return nil, fmt.Errorf("error getting stems: %w", err)
	}

	sector, err := cmd.Flags().GetString("sector")
	if err != nil {
		return nil, fmt.Errorf("error getting sector: %w", err)
	}

	group, err := cmd.Flags().GetString("group")
	if err != nil {
		return nil, fmt.Errorf("error getting group: %w", err)
	}

	stems, err := app.Stems(explicit, sector, group)
	if err != nil {
		return nil, fmt.Errorf("error selecting markets: %w", err)
	}

	return stems, nil
}

func chainArgs(cmd *cobra.Command, withAttach bool) (run.ChainArgs, error) {
	var args run.ChainArgs
	var err error

	if args.Stem, err = cmd.Flags().GetString("stem"); err != nil {
		return args, fmt.Errorf("error getting stem: %w", err)
	}

	k, err := cmd.Flags().GetString("kind")
	if err != nil {
		return args, fmt.Errorf("error getting kind: %w", err)
	}

	if args.Kind, err = instrument.ParseKind(k); err != nil {
		return args, fmt.Errorf("invalid kind: %w", err)
	}

	if args.Status, err = status(cmd); err != nil {
		return args, err
	}

	if args.Date, err = date(cmd); err != nil {
		return args, err
	}

	if args.Filter, err = cmd.Flags().GetString("filter"); err != nil {
		return args, fmt.Errorf("error getting filter: %w", err)
	}

	allMonths, err := cmd.Flags().GetBool("all-months")
	if err != nil {
		return args, fmt.Errorf("error getting all-months: %w", err)
	}
	args.TradeOnly = !allMonths

	if args.ActiveCount, err = cmd.Flags().GetInt("active-count"); err != nil {
		return args, fmt.Errorf("error getting active-count: %w", err)
	}

	if args.LegGap, err = cmd.Flags().GetInt("leg-gap"); err != nil {
		return args, fmt.Errorf("error getting leg-gap: %w", err)
	}

	args.Attach = withAttach
	if !withAttach {
		return args, nil
	}

	if args.LookbackDays, err = cmd.Flags().GetInt("lookback"); err != nil {
		return args, fmt.Errorf("error getting lookback: %w", err)
	}

	if args.AllowPartial, err = cmd.Flags().GetBool("allow-partial"); err != nil {
		return args, fmt.Errorf("error getting allow-partial: %w", err)
	}

	if args.NoBoundary, err = cmd.Flags().GetBool("no-boundary"); err != nil {
		return args, fmt.Errorf("error getting no-boundary: %w", err)
	}

	return args, nil
}

func addChainFlags(cmd *cobra.Command, defaultStatus string, attach bool) {
	cmd.Flags().String("stem", "", "Customized market stem, e.g. LH")
	cmd.Flags().String("kind", string(instrument.Outright), "Outright, Spread, Butterfly, Condor, DoubleButterfly or FlyOfFly")
	cmd.Flags().String("status", defaultStatus, "Active, ActiveLive, ActivePlus, All or Expired")
	cmd.Flags().String("date", "", "Reference date (yyyy-mm-dd), today when empty")
	cmd.Flags().String("filter", "", "Keep the first n (or last -n) structures, or the ones of a maturity letter")
	cmd.Flags().Bool("all-months", false, "Use every listed month instead of the traded ones")
	cmd.Flags().Int("active-count", 0, "Number of active structures, builder default when 0")
	cmd.Flags().Int("leg-gap", 0, "Months between legs, builder default when 0")
	cmd.MarkFlagRequired("stem")

	if attach {
		cmd.Flags().Int("lookback", chain.DefaultLookbackDays, "Business days of data kept before each last date")
		cmd.Flags().Bool("allow-partial", false, "Keep structures with fewer bars than the lookback")
		cmd.Flags().Bool("no-boundary", false, "Exclude the last date from the attached window")
	}
}

func addMarketFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("stems", nil, "Markets to process, every market when empty")
	cmd.Flags().String("sector", "", "Commodity, Currency, Stock or Yield")
	cmd.Flags().String("group", "", "Meat or Other")
	cmd.Flags().String("date", "", "Reference date (yyyy-mm-dd), today when empty")
}

func main() {
	rootCmd.PersistentFlags().String("config", "", "Path to omega.yaml, $OMEGA_CONFIG when empty")
	rootCmd.PersistentFlags().String("env", "", "Directory holding the .env.<go-env> file")
	rootCmd.PersistentFlags().String("go-env", "development", "development or production")
	rootCmd.PersistentFlags().String("log-level", "", "Overrides the configured log level")
	rootCmd.PersistentFlags().String("metrics-textfile", "", "Write run metrics to this file")

	addChainFlags(chainCmd, string(chain.Active), true)

	addChainFlags(eventsCmd, string(chain.Active), false)
	eventsCmd.Flags().String("event", string(events.LastDay), "GoldmanRoll, LastDay or SpotLimit")
	eventsCmd.Flags().Int("offset", 0, "Business days added to the event date")

	amendCmd.Flags().String("stem", "", "Customized market stem, e.g. LH")
	amendCmd.Flags().StringSlice("trade", nil, "Letters to trade")
	amendCmd.Flags().StringSlice("no-trade", nil, "Letters not to trade")
	amendCmd.MarkFlagRequired("stem")

	addMarketFlags(providerFileCmd)
	providerFileCmd.Flags().String("status", string(chain.Active), "Active or Expired")
	providerFileCmd.Flags().String("provider", string(instrument.Bloomberg), "Bloomberg, CMED, IQFeed, Reuters or T4")
	providerFileCmd.Flags().String("out", "", "Output file, stdout when empty")

	curvatureCmd.Flags().String("date", "", "Reference date (yyyy-mm-dd), today when empty")

	addMarketFlags(missingCmd)

	addChainFlags(referenceCmd, string(chain.Expired), true)

	rootCmd.AddCommand(chainCmd, eventsCmd, amendCmd, providerFileCmd, curvatureCmd, missingCmd, referenceCmd)
	cobra.CheckErr(rootCmd.Execute())
}
