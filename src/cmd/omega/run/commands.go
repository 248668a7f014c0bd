package run

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	"github.com/mickeykoko321/omega/src/chain"
	"github.com/mickeykoko321/omega/src/data"
	"github.com/mickeykoko321/omega/src/events"
	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/lists"
	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

// ChainArgs select and attach a chain. Zero ActiveCount and LegGap keep the
// builder defaults.
type ChainArgs struct {
	Stem         string
	Kind         instrument.Kind
	Status       chain.Status
	Date         time.Time
	Filter       string
	TradeOnly    bool
	ActiveCount  int
	LegGap       int
	Attach       bool
	LookbackDays int
	AllowPartial bool
	NoBoundary   bool
}

func (a *App) Chain(args ChainArgs) (*chain.FutureChain, error) {
	p := chain.NewBuildParams(args.Date, args.Stem, args.Kind, args.Status)
	p.TradeOnly = args.TradeOnly
	if args.ActiveCount > 0 {
		p.ActiveCount = args.ActiveCount
	}
	if args.LegGap > 0 {
		p.LegGap = args.LegGap
	}

	svc := chain.Services{
		Markets: a.Markets,
		Builder: a.builder(),
		Store:   a.Store,
		Account: a.Config.Account,
	}

	if args.Status == chain.ActiveLive {
		cal, err := a.Calendar(args.Date.AddDate(-1, 0, 0), args.Date.AddDate(5, 0, 0))
		if err != nil {
			return nil, fmt.Errorf("Chain: %w", err)
		}
		svc.Calendar = cal
	}

	fc, err := chain.NewFutureChain(args.Stem, args.Kind, svc)
	if err != nil {
		return nil, fmt.Errorf("Chain: %w", err)
	}

	if _, err := fc.InitializeContracts(p, args.Filter); err != nil {
		return nil, fmt.Errorf("Chain: %w", err)
	}

	a.Metrics.ChainBuilt(args.Stem, args.Kind.String(), args.Status.String())

	if !args.Attach {
		return fc, nil
	}

	ap := chain.NewAttachParams()
	if args.LookbackDays > 0 {
		ap.LookbackDays = args.LookbackDays
	}
	ap.AllowPartial = args.AllowPartial
	ap.IncludeBoundaryDays = !args.NoBoundary

	pruned, err := fc.Attach(ap)
	if err != nil {
		return nil, fmt.Errorf("Chain: %w", err)
	}

	a.Metrics.TickersPruned(args.Stem, len(pruned))
	return fc, nil
}

// EventRow is one resolved calendar event.
type EventRow struct {
	Ticker    string
	LastDate  time.Time
	EventDate time.Time
}

// Events resolves the event date of every structure of a chain.
func (a *App) Events(args ChainArgs, kind events.Kind, offset int) ([]EventRow, error) {
	args.Attach = false
	fc, err := a.Chain(args)
	if err != nil {
		return nil, fmt.Errorf("Events: %w", err)
	}

	entries := fc.Entries()
	start := entries[0].LastDate
	end := entries[0].LastDate
	for _, e := range entries {
		start = utils.GetMinTime(start, e.LastDate)
		end = utils.GetMaxTime(end, e.LastDate)
	}

	// events sit up to a few months around the last dates
	cal, err := a.Calendar(start.AddDate(0, -6, 0), end.AddDate(0, 3, 0))
	if err != nil {
		return nil, fmt.Errorf("Events: %w", err)
	}

	dates, err := events.ResolveAll(kind, cal, a.Markets, entries, offset)
	if err != nil {
		return nil, fmt.Errorf("Events: %w", err)
	}

	rows := make([]EventRow, len(entries))
	for i, e := range entries {
		rows[i] = EventRow{Ticker: e.Ticker, LastDate: e.LastDate, EventDate: dates[i]}
	}

	a.Metrics.EventsResolved(kind.String(), len(rows))
	return rows, nil
}

func EventsTable(kind events.Kind, rows []EventRow) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"Ticker", "Last Date", string(kind)})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")

	for _, r := range rows {
		table.Append([]string{r.Ticker, utils.FormatDate(r.LastDate), utils.FormatDate(r.EventDate)})
	}

	table.Render()
	return sb.String()
}

// Amend switches trading on for the trade letters and off for the others.
func (a *App) Amend(stem string, trade, noTrade []string) error {
	if len(trade) == 0 && len(noTrade) == 0 {
		return fmt.Errorf("Amend: no letter given for %s", stem)
	}

	var amendments []data.Amendment
	for _, l := range trade {
		amendments = append(amendments, data.Amendment{Letter: strings.ToUpper(l), Trade: true})
	}
	for _, l := range noTrade {
		amendments = append(amendments, data.Amendment{Letter: strings.ToUpper(l), Trade: false})
	}

	if err := a.Table.Amend(stem, amendments); err != nil {
		return fmt.Errorf("Amend: %w", err)
	}

	return nil
}

func (a *App) ProviderFile(w io.Writer, status chain.Status, provider instrument.Provider, stems []string, date time.Time) (*lists.Report, error) {
	report, err := a.lister(date).ProviderFile(w, status, provider, stems, date)
	if err != nil {
		return nil, fmt.Errorf("ProviderFile: %w", err)
	}

	a.report("provider-file", report, "")
	return report, nil
}

func (a *App) Curvature(date time.Time) ([]string, error) {
	tickers, err := a.lister(date).CurvatureList(date)
	if err != nil {
		return nil, fmt.Errorf("Curvature: %w", err)
	}

	return tickers, nil
}

// Missing lists the download tickers with no stored data and notifies them.
func (a *App) Missing(stems []string, date time.Time) ([]string, *lists.Report) {
	missing, report := a.lister(date).MissingData(stems, date)

	extra := ""
	if len(missing) > 0 {
		extra = fmt.Sprintf("missing: %s", strings.Join(missing, ", "))
	}

	a.report("missing", report, extra)
	return missing, report
}

// Reference attaches a chain and writes the synthetic reference series
// covering its padded date range.
func (a *App) Reference(args ChainArgs) (models.Series, error) {
	args.Attach = true
	fc, err := a.Chain(args)
	if err != nil {
		return nil, fmt.Errorf("Reference: %w", err)
	}

	start, end, err := fc.StartEnd(true)
	if err != nil {
		return nil, fmt.Errorf("Reference: %w", err)
	}

	series := chain.ReferenceSeries(start, end)
	store := data.NewFilePriceStore(a.Config.DataDir)
	if err := store.SaveReference(series); err != nil {
		return nil, fmt.Errorf("Reference: %w", err)
	}

	log.Infof("wrote %d reference bars to %s", len(series), store.ReferencePath())
	return series, nil
}
