package chain

import (
	"time"

	"github.com/mickeykoko321/omega/src/models"
	"github.com/mickeykoko321/omega/src/utils"
)

// ReferenceSeries is a dummy series with one bar per weekday between start
// and end. The backtest driver uses it as its master clock when contract
// series are not aligned.
func ReferenceSeries(start, end time.Time) models.Series {
	days := utils.BusinessDateRange(start, end)

	out := make(models.Series, len(days))
	for i, d := range days {
		out[i] = models.NewBar(d, 1, 2, 3, 4, 5, 6)
	}

	return out
}
