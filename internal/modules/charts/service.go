// Package charts renders PNG visualizations of optimization runs.
package charts

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/vicanso/go-charts/v2"

	"github.com/aristath/frontier/internal/modules/optimization"
)

// Service renders charts from optimization runs.
type Service struct {
	log zerolog.Logger
}

// NewService creates a chart service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("component", "charts").Logger(),
	}
}

// AllocationPie renders the portfolio weights as a pie chart. Zero-weight
// assets are omitted.
func (s *Service) AllocationPie(run *optimization.RunResult) ([]byte, error) {
	if run == nil || run.Result == nil {
		return nil, fmt.Errorf("no optimization result to chart")
	}

	symbols := make([]string, 0, len(run.Result.Weights))
	for symbol, w := range run.Result.Weights {
		if w > 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	if len(symbols) == 0 {
		return nil, fmt.Errorf("all weights are zero")
	}

	values := make([]float64, 0, len(symbols))
	labels := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		w := run.Result.Weights[symbol]
		values = append(values, w*100)
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", symbol, w*100))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Allocation • %s risk", run.Level)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render allocation pie: %w", err)
	}

	return p.Bytes()
}

// GrowthLine renders the normalized growth-of-100 series for every asset in
// the run's history.
func (s *Service) GrowthLine(run *optimization.RunResult) ([]byte, error) {
	if run == nil || run.Growth.NumObservations() == 0 {
		return nil, fmt.Errorf("no price history to chart")
	}

	symbols := run.Growth.Symbols()
	values := make([][]float64, 0, len(symbols))
	for _, symbol := range symbols {
		values = append(values, run.Growth.Prices[symbol])
	}

	// Thin the x-axis labels; daily labels over years are unreadable
	split := 10
	if len(run.Growth.Dates) < split {
		split = len(run.Growth.Dates)
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = symbols[i]
	}

	p, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Growth of 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        run.Growth.Dates,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: split,
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: symbols}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render growth chart: %w", err)
	}

	return p.Bytes()
}
