package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	dservice "MacroPull/internal/domain/service"
	"MacroPull/internal/services/features"
	applogger "MacroPull/pkg/logger"
)

// BuildOptions are the per-deployment pipeline settings.
type BuildOptions struct {
	SeriesID     string
	Symbol       string
	Cadence      drepo.Cadence
	SnapLow      bool
	FillLimit    int
	DriverColumn string
	PriceColumns []string
}

// BuildRequest selects the pair of series for one run. Empty fields fall back
// to BuildOptions.
type BuildRequest struct {
	RunID    string `json:"run_id,omitempty"`
	SeriesID string `json:"series_id,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
}

// BuildReport summarizes what each stage kept and dropped.
type BuildReport struct {
	RunID            string        `json:"run_id"`
	SeriesID         string        `json:"series_id"`
	Symbol           string        `json:"symbol"`
	IndicatorRows    int           `json:"indicator_rows"`
	IndicatorSkipped int           `json:"indicator_skipped"`
	PriceRows        int           `json:"price_rows"`
	PriceSkipped     int           `json:"price_skipped"`
	CoercedCells     int           `json:"coerced_cells"`
	AlignedRows      int           `json:"aligned_rows"`
	FilledCells      int           `json:"filled_cells"`
	IncompleteRows   int           `json:"incomplete_rows"`
	FeatureRows      int           `json:"feature_rows"`
	Duration         time.Duration `json:"duration"`
}

// PipelineBuilder fetches raw series and runs them through the feature pipeline.
type PipelineBuilder struct {
	indicators dservice.IndicatorSource
	prices     dservice.PriceSource
	store      drepo.FeatureStore
	exporter   drepo.Exporter
	pub        drepo.Publisher
	metrics    drepo.Metrics
	opts       BuildOptions
	l          *applogger.Logger
	newID      func() string
	now        func() time.Time
}

// NewPipelineBuilder wires the pipeline. store and exporter may be nil.
func NewPipelineBuilder(
	indicators dservice.IndicatorSource,
	prices dservice.PriceSource,
	store drepo.FeatureStore,
	exporter drepo.Exporter,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	opts BuildOptions,
) *PipelineBuilder {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &PipelineBuilder{
		indicators: indicators,
		prices:     prices,
		store:      store,
		exporter:   exporter,
		pub:        pub,
		metrics:    metrics,
		opts:       opts,
		l:          applogger.Nop(),
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger injects a structured logger.
func (b *PipelineBuilder) SetLogger(l *applogger.Logger) {
	if l != nil {
		b.l = l
	}
}

func (b *PipelineBuilder) resolve(req BuildRequest) BuildRequest {
	if req.SeriesID == "" {
		req.SeriesID = b.opts.SeriesID
	}
	if req.Symbol == "" {
		req.Symbol = b.opts.Symbol
	}
	req.Symbol = strings.ToUpper(req.Symbol)
	if req.RunID == "" {
		req.RunID = b.newID()
	}
	return req
}

func (b *PipelineBuilder) featureOptions(seriesID string) features.Options {
	prices := append([]string(nil), b.opts.PriceColumns...)
	if !contains(prices, b.opts.DriverColumn) {
		prices = append(prices, b.opts.DriverColumn)
	}
	return features.Options{
		Indicator: features.NormalizeOptions{TimestampColumn: models.ColDate, ValueColumns: []string{seriesID}},
		Prices: features.NormalizeOptions{
			TimestampColumn: models.ColDate,
			ValueColumns:    prices,
			Required:        []string{b.opts.DriverColumn},
		},
		TargetColumn: seriesID,
		DriverColumn: b.opts.DriverColumn,
		Cadence:      b.opts.Cadence,
		SnapLow:      b.opts.SnapLow,
		FillLimit:    b.opts.FillLimit,
	}
}

// Features fetches fresh data and builds the feature table without persisting it.
func (b *PipelineBuilder) Features(ctx context.Context, req BuildRequest) (models.FeatureTable, BuildReport, error) {
	start := time.Now()
	req = b.resolve(req)
	report := BuildReport{RunID: req.RunID, SeriesID: req.SeriesID, Symbol: req.Symbol}
	if req.SeriesID == "" || req.Symbol == "" {
		return models.FeatureTable{}, report, fmt.Errorf("build: series id and symbol are required")
	}

	indicator, err := b.indicators.FetchIndicator(ctx, req.SeriesID)
	if err != nil {
		b.metrics.RecordError("fetch_indicator")
		return models.FeatureTable{}, report, fmt.Errorf("fetch indicator %s: %w", req.SeriesID, err)
	}
	prices, err := b.prices.FetchDailyPrices(ctx, req.Symbol)
	if err != nil {
		b.metrics.RecordError("fetch_prices")
		return models.FeatureTable{}, report, fmt.Errorf("fetch prices %s: %w", req.Symbol, err)
	}

	res, err := features.Build(indicator, prices, b.featureOptions(req.SeriesID))
	b.observe(&report, res)
	report.Duration = time.Since(start)
	b.metrics.RecordLatency("build", report.Duration.Seconds())
	if err != nil {
		b.metrics.RecordError(errorKind(err))
		b.l.Error("feature build failed",
			applogger.String("run_id", req.RunID),
			applogger.String("series_id", req.SeriesID),
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return models.FeatureTable{}, report, fmt.Errorf("build: %w", err)
	}

	table := models.FeatureTable{
		RunID:       req.RunID,
		SeriesID:    req.SeriesID,
		Symbol:      req.Symbol,
		BuiltAt:     b.now(),
		PassThrough: res.Features.PassThrough,
		Rows:        res.Features.Rows,
	}
	b.l.Info("feature table built",
		applogger.String("run_id", req.RunID),
		applogger.String("series_id", req.SeriesID),
		applogger.String("symbol", req.Symbol),
		applogger.Int("aligned_rows", report.AlignedRows),
		applogger.Int("feature_rows", report.FeatureRows),
		applogger.Duration("duration_ms", report.Duration),
	)
	return table, report, nil
}

// Run builds the feature table and hands it to the exporter, the store and
// the publisher, in that order.
func (b *PipelineBuilder) Run(ctx context.Context, req BuildRequest) (models.FeatureTable, BuildReport, error) {
	table, report, err := b.Features(ctx, req)
	if err != nil {
		return table, report, err
	}
	if b.exporter != nil {
		if err := b.exporter.ExportFeatureTable(table); err != nil {
			b.metrics.RecordError("export")
			return table, report, fmt.Errorf("export: %w", err)
		}
	}
	if b.store != nil {
		start := time.Now()
		if err := b.store.SaveFeatureTable(ctx, table); err != nil {
			b.metrics.RecordError("store")
			return table, report, fmt.Errorf("store: %w", err)
		}
		b.metrics.RecordLatency("store", time.Since(start).Seconds())
	}
	if b.pub != nil {
		if err := b.pub.PublishFeatureTable(ctx, table); err != nil {
			b.metrics.RecordError("publish")
			return table, report, fmt.Errorf("publish: %w", err)
		}
	}
	return table, report, nil
}

// observe copies stage counts into the report, records metrics and warns
// about dropped rows.
func (b *PipelineBuilder) observe(report *BuildReport, res features.Result) {
	report.IndicatorRows = res.Indicator.RowsIn
	report.IndicatorSkipped = res.Indicator.SkippedRows
	report.PriceRows = res.Prices.RowsIn
	report.PriceSkipped = res.Prices.SkippedRows
	report.CoercedCells = res.Indicator.CoercedCells + res.Prices.CoercedCells
	report.AlignedRows = len(res.Aligned.Rows)
	report.FilledCells = res.Features.Filled
	report.IncompleteRows = res.Features.Incomplete + res.Features.DroppedDerived
	report.FeatureRows = len(res.Features.Rows)

	b.metrics.RecordStage("normalize_indicator", report.IndicatorRows, report.IndicatorRows-report.IndicatorSkipped)
	b.metrics.RecordStage("normalize_prices", report.PriceRows, report.PriceRows-report.PriceSkipped)
	b.metrics.RecordSkipped("normalize", report.IndicatorSkipped+report.PriceSkipped)
	if report.AlignedRows > 0 {
		b.metrics.RecordStage("reconcile", report.PriceRows-report.PriceSkipped, report.AlignedRows)
		b.metrics.RecordStage("derive", report.AlignedRows, report.FeatureRows)
		b.metrics.RecordSkipped("derive", report.IncompleteRows)
	}

	if len(res.Prices.EmptyColumns) > 0 {
		b.l.Warn("price columns without values dropped",
			applogger.String("run_id", report.RunID),
			applogger.Strings("columns", res.Prices.EmptyColumns),
		)
	}
	for _, nr := range []features.NormalizeResult{res.Indicator, res.Prices} {
		if nr.SkippedRows == 0 {
			continue
		}
		fields := []applogger.Field{
			applogger.String("run_id", report.RunID),
			applogger.Int("skipped", nr.SkippedRows),
			applogger.Int("rows_in", nr.RowsIn),
		}
		if len(nr.ParseErrors) > 0 {
			fields = append(fields,
				applogger.String("source", nr.ParseErrors[0].Source),
				applogger.Error(nr.ParseErrors[0]),
			)
		}
		b.l.Warn("rows with unparsable timestamps skipped", fields...)
	}
	if report.IncompleteRows > 0 {
		b.l.Warn("incomplete rows dropped",
			applogger.String("run_id", report.RunID),
			applogger.Int("dropped", report.IncompleteRows),
			applogger.Int("aligned_rows", report.AlignedRows),
		)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, features.ErrEmptySeries):
		return "empty_series"
	case errors.Is(err, features.ErrNoOverlap):
		return "no_overlap"
	default:
		return "build"
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

type nopMetrics struct{}

func (nopMetrics) RecordStage(string, int, int)     {}
func (nopMetrics) RecordSkipped(string, int)        {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLatency(string, float64)    {}
func (nopMetrics) RecordPrediction(string, float64) {}
