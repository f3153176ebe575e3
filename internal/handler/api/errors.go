package api

import (
    "errors"

    domrepo "MacroPull/internal/domain/repository"
    "MacroPull/internal/service/alphavantage"
    "MacroPull/internal/service/fred"
    "MacroPull/internal/services/features"
    "MacroPull/internal/services/model"
    "MacroPull/internal/usecase"
    xhttp "MacroPull/pkg/http"
)

// toAppError maps pipeline and provider failures onto API errors.
func toAppError(err error) *xhttp.AppError {
    var appErr *xhttp.AppError
    if errors.As(err, &appErr) {
        return appErr
    }

    var schema *model.FeatureSchemaError
    if errors.As(err, &schema) {
        e := xhttp.NewAppError("ERR_FEATURE_SCHEMA", "rows", "feature rows do not match the model", 400).
            WithParam("row", schema.Row).
            WithError(err)
        if len(schema.Missing) > 0 {
            e.WithParam("missing", schema.Missing)
        }
        if len(schema.Unexpected) > 0 {
            e.WithParam("unexpected", schema.Unexpected)
        }
        return e
    }

    var noOverlap *features.NoOverlapError
    if errors.As(err, &noOverlap) {
        return xhttp.UnprocessableError("ERR_NO_OVERLAP", "series share no periods").
            WithParam("stage", noOverlap.Stage).
            WithParam("low_rows", noOverlap.LowRows).
            WithParam("high_periods", noOverlap.HighPeriods).
            WithError(err)
    }

    var empty *features.EmptySeriesError
    if errors.As(err, &empty) {
        return xhttp.UnprocessableError("ERR_EMPTY_SERIES", "series has no usable rows").
            WithParam("stage", empty.Stage).
            WithParam("series", empty.Series).
            WithParam("rows_in", empty.RowsIn).
            WithError(err)
    }

    var status *xhttp.StatusError
    switch {
    case errors.Is(err, model.ErrInsufficientRows), errors.Is(err, model.ErrSingularDesign):
        return xhttp.UnprocessableError("ERR_MODEL_FIT", err.Error()).WithError(err)
    case errors.Is(err, domrepo.ErrModelNotFound):
        return xhttp.NewAppError("ERR_MODEL_NOT_FOUND", "", "no trained model; train one first", 404).WithError(err)
    case errors.Is(err, domrepo.ErrFeatureTableNotFound):
        return xhttp.NotFoundError("feature table not found").WithError(err)
    case errors.Is(err, usecase.ErrTrainingInProgress):
        return xhttp.NewAppError("ERR_CONFLICT", "", err.Error(), 409).WithError(err)
    case errors.Is(err, fred.ErrAPI), errors.Is(err, alphavantage.ErrAPI),
        errors.Is(err, alphavantage.ErrRateLimited), errors.As(err, &status):
        return xhttp.BadGatewayError(err.Error()).WithError(err)
    default:
        return xhttp.InternalError("internal error").WithError(err)
    }
}
