package api

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "MacroPull/internal/domain/models"
    "MacroPull/internal/usecase"
    xhttp "MacroPull/pkg/http"
    xlogger "MacroPull/pkg/logger"
)

// PipelineRunner builds and persists feature tables.
type PipelineRunner interface {
    Run(ctx context.Context, req usecase.BuildRequest) (models.FeatureTable, usecase.BuildReport, error)
}

// ModelTrainer fits and stores the regression model.
type ModelTrainer interface {
    Train(ctx context.Context, req usecase.BuildRequest) (usecase.TrainResult, error)
}

// ModelScorer scores with the stored model.
type ModelScorer interface {
    Predict(ctx context.Context, req usecase.BuildRequest) (models.Prediction, error)
    Score(ctx context.Context, rows []map[string]float64) ([]float64, error)
}

// RunRequest is the body of pipeline and training calls. Empty fields use
// the configured series.
type RunRequest struct {
    RunID    string `json:"run_id" validate:"omitempty,max=64"`
    SeriesID string `json:"series_id" validate:"omitempty,max=64"`
    Symbol   string `json:"symbol" validate:"omitempty,max=16"`
}

func (r RunRequest) build() usecase.BuildRequest {
    return usecase.BuildRequest{RunID: r.RunID, SeriesID: r.SeriesID, Symbol: r.Symbol}
}

// PredictRequest is bound from the query string.
type PredictRequest struct {
    SeriesID string `query:"series_id" validate:"omitempty,max=64"`
    Symbol   string `query:"symbol" validate:"omitempty,max=16"`
}

// ScoreRequest carries caller-built feature rows.
type ScoreRequest struct {
    Rows []map[string]float64 `json:"rows" validate:"required,min=1"`
}

// RunResponse is returned by POST /pipeline/run.
type RunResponse struct {
    Report usecase.BuildReport `json:"report"`
    Table  models.FeatureTable `json:"table"`
}

// ScoreResponse is returned by POST /score.
type ScoreResponse struct {
    Model       string    `json:"model"`
    Predictions []float64 `json:"predictions"`
}

// PipelineEchoHandler serves the pipeline, training and scoring endpoints.
type PipelineEchoHandler struct {
    logger  *xlogger.Logger
    runner  PipelineRunner
    trainer ModelTrainer
    scorer  ModelScorer
    model   string
}

func NewPipelineEchoHandler(logger *xlogger.Logger, runner PipelineRunner, trainer ModelTrainer, scorer ModelScorer, modelKey string) *PipelineEchoHandler {
    if logger == nil {
        logger = xlogger.Nop()
    }
    return &PipelineEchoHandler{logger: logger, runner: runner, trainer: trainer, scorer: scorer, model: modelKey}
}

func (h *PipelineEchoHandler) RegisterRoutes(g *echo.Group) {
    g.GET("/health", h.Health)
    g.POST("/pipeline/run", h.Run)
    g.POST("/model/train", h.Train)
    g.GET("/predict", h.Predict)
    g.POST("/score", h.Score)
}

func (h *PipelineEchoHandler) Health(c echo.Context) error {
    return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *PipelineEchoHandler) Run(c echo.Context) error {
    req := &RunRequest{}
    if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
        return xhttp.BadRequestResponse(c, verr)
    }
    table, report, err := h.runner.Run(c.Request().Context(), req.build())
    if err != nil {
        return h.fail(c, "pipeline run", err)
    }
    return xhttp.SuccessResponse(c, RunResponse{Report: report, Table: table})
}

func (h *PipelineEchoHandler) Train(c echo.Context) error {
    req := &RunRequest{}
    if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
        return xhttp.BadRequestResponse(c, verr)
    }
    res, err := h.trainer.Train(c.Request().Context(), req.build())
    if err != nil {
        return h.fail(c, "model train", err)
    }
    return xhttp.CreatedResponse(c, res)
}

func (h *PipelineEchoHandler) Predict(c echo.Context) error {
    req := &PredictRequest{}
    if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
        return xhttp.BadRequestResponse(c, verr)
    }
    pred, err := h.scorer.Predict(c.Request().Context(), usecase.BuildRequest{SeriesID: req.SeriesID, Symbol: req.Symbol})
    if err != nil {
        return h.fail(c, "predict", err)
    }
    c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
    return xhttp.SuccessResponse(c, pred)
}

func (h *PipelineEchoHandler) Score(c echo.Context) error {
    req := &ScoreRequest{}
    if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
        return xhttp.BadRequestResponse(c, verr)
    }
    out, err := h.scorer.Score(c.Request().Context(), req.Rows)
    if err != nil {
        return h.fail(c, "score", err)
    }
    return xhttp.SuccessResponse(c, ScoreResponse{Model: h.model, Predictions: out})
}

func (h *PipelineEchoHandler) fail(c echo.Context, op string, err error) error {
    appErr := toAppError(err)
    if appErr.Status >= http.StatusInternalServerError {
        h.logger.Error(op+" usecase error", xlogger.Error(err))
    } else {
        h.logger.Warn(op+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
    }
    return xhttp.AppErrorResponse(c, appErr)
}

var _ xhttp.Handler = (*PipelineEchoHandler)(nil)
