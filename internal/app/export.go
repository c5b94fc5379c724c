package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"pool-yield-alerts/internal/storage"
)

// Export renders one pool's persisted history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.PairAddress == "" {
		return errors.New("--pair is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	samples, err := store.ListPoolHistory(ctx, opts.PairAddress, from, to)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.Logger.Info().Str("pair", opts.PairAddress).Msg("no samples found for export window")
		return nil
	}

	downsampled := downsampleSamples(samples, opts.MaxPoints)
	a.Logger.Info().Int("total", len(samples)).Int("exported", len(downsampled)).Msg("exporting samples")

	if opts.CSVPath != "" {
		if err := writeSamplesCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSamplesPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSamples(samples []storage.PoolSample, max int) []storage.PoolSample {
	if max <= 0 || len(samples) <= max {
		return samples
	}

	result := make([]storage.PoolSample, 0, max)
	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		result = append(result, samples[idx])
	}
	return result
}

func writeSamplesCSV(path string, samples []storage.PoolSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"run_ts", "pair_address", "pair_label", "tvl", "fee_24h", "volume_24h", "trades_24h", "score", "fee_over_tvl"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		record := []string{
			sample.RunTS.Format(time.RFC3339),
			sample.PairAddress,
			sample.PairLabel,
			decimalCSV(sample.TVL),
			decimalCSV(sample.Fee24h),
			decimalCSV(sample.Volume24h),
			decimalCSV(sample.Trades24h),
			sample.Score.String(),
			decimalCSV(sample.FeeOverTVL),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSamplesPNG(path string, samples []storage.PoolSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	tvl := make([]float64, len(samples))
	fee := make([]float64, len(samples))
	feeOverTVL := make([]float64, len(samples))

	for i, sample := range samples {
		x[i] = sample.RunTS
		if sample.TVL != nil {
			tvl[i] = sample.TVL.InexactFloat64()
		}
		if sample.Fee24h != nil {
			fee[i] = sample.Fee24h.InexactFloat64()
		}
		if sample.FeeOverTVL != nil {
			feeOverTVL[i] = sample.FeeOverTVL.InexactFloat64() * 100
		}
	}

	usdFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	pctFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "USD",
			ValueFormatter: usdFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Fee/TVL (%)",
			ValueFormatter: pctFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "TVL",
				XValues: x,
				YValues: tvl,
			},
			chart.TimeSeries{
				Name:    "Fee 24h",
				XValues: x,
				YValues: fee,
			},
			chart.TimeSeries{
				Name:    "Fee/TVL %",
				XValues: x,
				YValues: feeOverTVL,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func decimalCSV(v *decimal.Decimal) string {
	if v == nil {
		return ""
	}
	return v.String()
}
