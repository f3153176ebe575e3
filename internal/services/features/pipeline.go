package features

import (
    "MacroPull/internal/domain/models"
    domrepo "MacroPull/internal/domain/repository"
)

// Options configures one end-to-end feature build.
type Options struct {
    Indicator    NormalizeOptions
    Prices       NormalizeOptions
    TargetColumn string
    DriverColumn string
    Cadence      domrepo.Cadence
    SnapLow      bool
    FillLimit    int
}

// Result keeps every intermediate value of a build for reporting.
type Result struct {
    Indicator NormalizeResult
    Prices    NormalizeResult
    Aligned   models.AlignedTable
    Features  DeriveResult
}

// Build normalizes both raw tables, reconciles them and derives features.
// It is a pure function of its inputs.
func Build(indicator, prices models.RawTable, opts Options) (Result, error) {
    var res Result
    var err error

    res.Indicator, err = Normalize(indicator, opts.Indicator)
    if err != nil {
        return res, err
    }
    res.Prices, err = Normalize(prices, opts.Prices)
    if err != nil {
        return res, err
    }
    res.Aligned, err = Reconcile(res.Indicator.Series, res.Prices.Series, ReconcileOptions{
        Cadence: opts.Cadence,
        SnapLow: opts.SnapLow,
    })
    if err != nil {
        return res, err
    }
    res.Features, err = BuildFeatures(res.Aligned, DeriveOptions{
        TargetColumn: opts.TargetColumn,
        DriverColumn: opts.DriverColumn,
        FillLimit:    opts.FillLimit,
    })
    return res, err
}
