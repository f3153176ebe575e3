package service

import (
	"context"

	"MacroPull/internal/domain/models"
)

// IndicatorSource fetches a low-frequency macroeconomic series.
type IndicatorSource interface {
	FetchIndicator(ctx context.Context, seriesID string) (models.RawTable, error)
}

// PriceSource fetches a high-frequency daily price series.
type PriceSource interface {
	FetchDailyPrices(ctx context.Context, symbol string) (models.RawTable, error)
}
