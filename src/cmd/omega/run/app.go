package run

import (
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/chain"
	"github.com/mickeykoko321/omega/src/config"
	"github.com/mickeykoko321/omega/src/data"
	"github.com/mickeykoko321/omega/src/dbutils"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/lists"
	"github.com/mickeykoko321/omega/src/logger"
	"github.com/mickeykoko321/omega/src/metrics"
	"github.com/mickeykoko321/omega/src/notify"
	"github.com/mickeykoko321/omega/src/utils"
)

const defaultConfigPath = "omega.yaml"

type RunArgs struct {
	ConfigPath      string
	GoEnv           string
	EnvDir          string
	LogLevel        string
	MetricsTextfile string
}

// App holds the services shared by every command of one run.
type App struct {
	Config  *config.Config
	Markets *config.MarketDatabase
	Table   *data.ContractMonthTable
	Store   data.PriceStore
	Bus     *notify.Bus
	Metrics *metrics.Metrics

	metricsTextfile string
	logCloser       io.Closer
}

// Setup loads the environment, the configuration and the market database,
// then opens the price store the configuration asks for.
func Setup(args RunArgs) (*App, error) {
	if args.EnvDir != "" {
		if err := utils.InitEnvironmentVariables(args.EnvDir, args.GoEnv); err != nil {
			return nil, fmt.Errorf("Setup: %w", err)
		}
	}

	path := args.ConfigPath
	if path == "" {
		path = utils.GetEnvOrDefault("OMEGA_CONFIG", defaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}

	if args.LogLevel != "" {
		cfg.Log.Level = args.LogLevel
	}

	closer, err := logger.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}

	markets, err := config.LoadMarketDatabase(cfg.Database)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("Setup: %w", err)
	}

	store, err := data.NewPriceStore(cfg, dbutils.InitPostgresWithUrl)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("Setup: %w", err)
	}

	app, err := NewApp(cfg, markets, store)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("Setup: %w", err)
	}

	app.metricsTextfile = args.MetricsTextfile
	app.logCloser = closer

	log.WithFields(log.Fields{
		"config":  path,
		"markets": len(markets.Stems()),
		"storage": cfg.Storage.Version,
		"run_id":  app.Bus.RunID(),
	}).Info("omega ready")

	return app, nil
}

func NewApp(cfg *config.Config, markets *config.MarketDatabase, store data.PriceStore) (*App, error) {
	bus := notify.NewBus()
	if err := bus.Subscribe(notify.LogSink); err != nil {
		return nil, fmt.Errorf("NewApp: %w", err)
	}

	return &App{
		Config:  cfg,
		Markets: markets,
		Table:   data.NewContractMonthTable(cfg.DataDir, markets),
		Store:   store,
		Bus:     bus,
		Metrics: metrics.New(),
	}, nil
}

// Close flushes pending notifications, writes the metrics textfile when one
// was requested and releases the log file.
func (a *App) Close() error {
	a.Bus.Wait()

	var errs []error
	if a.metricsTextfile != "" {
		errs = append(errs, a.Metrics.WriteTextfile(a.metricsTextfile))
	}

	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}

	return errors.Join(errs...)
}

// Calendar returns the exchange sessions between start and end. Without a
// sessions file every weekday is a session.
func (a *App) Calendar(start, end time.Time) (*data.Calendar, error) {
	if a.Config.Calendar.Path == "" {
		log.Debugf("no %s sessions file configured, using weekdays", a.Config.Calendar.Exchange)
		return data.WeekdayCalendar(start, end), nil
	}

	cal, err := data.LoadCalendar(a.Config.Calendar.Path, start, end)
	if err != nil {
		return nil, fmt.Errorf("App.Calendar: %w", err)
	}

	return cal, nil
}

// Stems returns the explicit stems, or every market matching sector and
// group when none is given.
func (a *App) Stems(explicit []string, sector, group string) ([]string, error) {
	if len(explicit) > 0 {
		for _, stem := range explicit {
			if _, err := a.Markets.Market(stem); err != nil {
				return nil, fmt.Errorf("App.Stems: %w", err)
			}
		}

		return explicit, nil
	}

	stems, err := a.Markets.Futures(sector, group)
	if err != nil {
		return nil, fmt.Errorf("App.Stems: %w", err)
	}

	return stems, nil
}

func (a *App) builder() *chain.Builder {
	return chain.NewBuilder(a.Markets, a.Table)
}

func (a *App) lister(date time.Time) *lists.Lister {
	symbology := instrument.NewSymbology(data.NewSymbolLookup(a.Markets, a.Table, date))
	return lists.NewLister(a.Markets, a.Table, a.Store, symbology)
}

// report counts the skipped markets of a batch and notifies its outcome.
func (a *App) report(command string, r *lists.Report, extra string) {
	a.Metrics.MarketsSkipped(command, len(r.Skipped))

	body := fmt.Sprintf("processed %d markets, skipped %d", len(r.Processed), len(r.Skipped))
	if err := r.Err(); err != nil {
		body = fmt.Sprintf("%s: %v", body, err)
	}

	if extra != "" {
		body = fmt.Sprintf("%s\n%s", body, extra)
	}

	if err := a.Bus.Notify(fmt.Sprintf("omega %s", command), body); err != nil {
		log.Errorf("failed to notify %s: %v", command, err)
	}
}
