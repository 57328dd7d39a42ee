package model

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReadPanelCSV loads a PricePanel from a daily-bar CSV file with columns
// date,symbol,open,high,low,close,volume. A header row is detected and
// skipped. Dates are YYYY-MM-DD.
func ReadPanelCSV(path string) (*PricePanel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open panel csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(bufio.NewReader(file))
	r.ReuseRecord = false
	r.LazyQuotes = true

	var bars []Bar
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line+1, err)
		}
		line++
		if len(rec) < 7 {
			return nil, fmt.Errorf("csv line %d: expected 7 columns, got %d", line, len(rec))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}
		ts, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad date %q: %w", line, rec[0], err)
		}
		bar := Bar{Symbol: strings.TrimSpace(rec[1]), Timestamp: ts}
		fields := []struct {
			dst *decimal.Decimal
			col int
		}{
			{&bar.Open, 2}, {&bar.High, 3}, {&bar.Low, 4}, {&bar.Close, 5}, {&bar.Volume, 6},
		}
		for _, f := range fields {
			v, err := decimal.NewFromString(strings.TrimSpace(rec[f.col]))
			if err != nil {
				return nil, fmt.Errorf("csv line %d col %d: %w", line, f.col+1, err)
			}
			*f.dst = v
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("panel csv %s contains no bars", path)
	}
	return NewPricePanel(bars)
}
