package chain

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mickeykoko321/omega/src/instrument"
	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

// MeanRollYield averages the defined roll yields of a spread series.
func MeanRollYield(series models.Series) (float64, bool) {
	var values []float64
	for _, b := range series {
		if !math.IsNaN(b.RollYield) {
			values = append(values, b.RollYield)
		}
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return 0, false
	}

	return mean, true
}

// Summary renders the chain entries with their attached bar counts.
func (c *FutureChain) Summary() string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(display)

	header := []string{"Ticker", "Last Date", "Bars", "First Bar", "Last Close"}
	if c.Kind == instrument.Spread {
		header = append(header, "Roll Yield")
	}
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")
	display.WriteString(fmt.Sprintf("%s %s chain (%s):\n", c.Stem, c.Kind, c.Status))

	for _, e := range c.entries {
		series := c.data[e.Ticker]
		row := []string{e.Ticker, utils.FormatDate(e.LastDate), p.Sprintf("%d", len(series)), "-", "-"}

		if first, ok := series.First(); ok {
			row[3] = utils.FormatDate(first.Date)
		}

		if last, ok := series.Last(); ok {
			row[4] = p.Sprintf("%.4f", last.Close)
		}

		if c.Kind == instrument.Spread {
			ry := "-"
			if mean, ok := MeanRollYield(series); ok {
				ry = p.Sprintf("%.2f%%", mean)
			}
			row = append(row, ry)
		}

		table.Append(row)
	}

	table.Render()
	return display.String()
}
