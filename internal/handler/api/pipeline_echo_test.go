package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	domrepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/service/fred"
	"MacroPull/internal/services/features"
	"MacroPull/internal/services/model"
	"MacroPull/internal/usecase"
)

type fakeUsecases struct {
	lastReq usecase.BuildRequest
	runErr  error
	pred    models.Prediction
	predErr error
	scores  []float64
	scoreIn []map[string]float64
	trained usecase.TrainResult
}

func (f *fakeUsecases) Run(_ context.Context, req usecase.BuildRequest) (models.FeatureTable, usecase.BuildReport, error) {
	f.lastReq = req
	if f.runErr != nil {
		return models.FeatureTable{}, usecase.BuildReport{}, f.runErr
	}
	return models.FeatureTable{RunID: "run-1", SeriesID: "GDPC1", Symbol: "SPY"},
		usecase.BuildReport{RunID: "run-1", FeatureRows: 11}, nil
}

func (f *fakeUsecases) Train(_ context.Context, req usecase.BuildRequest) (usecase.TrainResult, error) {
	f.lastReq = req
	return f.trained, f.runErr
}

func (f *fakeUsecases) Predict(_ context.Context, req usecase.BuildRequest) (models.Prediction, error) {
	f.lastReq = req
	return f.pred, f.predErr
}

func (f *fakeUsecases) Score(_ context.Context, rows []map[string]float64) ([]float64, error) {
	f.scoreIn = rows
	if len(rows) > 0 && len(rows[0]) != 2 {
		return nil, fmt.Errorf("score: %w", &model.FeatureSchemaError{Stage: "score", Rows: len(rows), Missing: []string{models.ColDriverPctChange}})
	}
	return f.scores, nil
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, f *fakeUsecases, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	NewPipelineEchoHandler(nil, f, f, f, "model:crisis_ols").RegisterRoutes(e.Group("/api"))

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func errorCode(t *testing.T, env envelope) string {
	t.Helper()
	var errs []struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.NotEmpty(t, errs)
	return errs[0].Code
}

func TestHealth(t *testing.T) {
	rec, env := serve(t, &fakeUsecases{}, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestRunPipeline(t *testing.T) {
	f := &fakeUsecases{}
	rec, env := serve(t, f, http.MethodPost, "/api/pipeline/run", `{"series_id":"GDPC1","symbol":"spy"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GDPC1", f.lastReq.SeriesID)
	assert.Equal(t, "spy", f.lastReq.Symbol)

	var out RunResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "run-1", out.Table.RunID)
	assert.Equal(t, 11, out.Report.FeatureRows)
}

func TestRunPipelineEmptyBodyUsesDefaults(t *testing.T) {
	f := &fakeUsecases{}
	rec, _ := serve(t, f, http.MethodPost, "/api/pipeline/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.BuildRequest{}, f.lastReq)
}

func TestRunPipelineErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no overlap", fmt.Errorf("build: %w", &features.NoOverlapError{Stage: "reconcile", LowRows: 4}), http.StatusUnprocessableEntity, "ERR_NO_OVERLAP"},
		{"empty series", fmt.Errorf("build: %w", &features.EmptySeriesError{Stage: "normalize", Series: "GDPC1"}), http.StatusUnprocessableEntity, "ERR_EMPTY_SERIES"},
		{"provider", fmt.Errorf("fetch indicator GDPC1: %w", fred.ErrAPI), http.StatusBadGateway, "ERR_UPSTREAM"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := serve(t, &fakeUsecases{runErr: tc.err}, http.MethodPost, "/api/pipeline/run", `{}`)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusInternalServerError {
				return
			}
			assert.Equal(t, tc.code, errorCode(t, env))
		})
	}
}

func TestRunPipelineValidation(t *testing.T) {
	rec, env := serve(t, &fakeUsecases{}, http.MethodPost, "/api/pipeline/run", `{"symbol":"WAYTOOLONGSYMBOLNAME"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERR_MAX", errorCode(t, env))
}

func TestTrain(t *testing.T) {
	f := &fakeUsecases{trained: usecase.TrainResult{Key: "model:crisis_ols", Model: models.RegressionModel{Name: "crisis_ols"}}}
	rec, env := serve(t, f, http.MethodPost, "/api/model/train", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var out usecase.TrainResult
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "crisis_ols", out.Model.Name)

	rec, env = serve(t, &fakeUsecases{runErr: usecase.ErrTrainingInProgress}, http.MethodPost, "/api/model/train", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ERR_CONFLICT", errorCode(t, env))
}

func TestPredict(t *testing.T) {
	f := &fakeUsecases{pred: models.Prediction{
		SeriesID:  "GDPC1",
		Symbol:    "SPY",
		Timestamp: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Value:     17000,
		Threshold: 18000,
		HighRisk:  true,
		Message:   model.MessageHighRisk,
	}}
	rec, env := serve(t, f, http.MethodGet, "/api/predict?series_id=GDPC1&symbol=SPY", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.BuildRequest{SeriesID: "GDPC1", Symbol: "SPY"}, f.lastReq)

	var out models.Prediction
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.True(t, out.HighRisk)
	assert.Equal(t, model.MessageHighRisk, out.Message)
}

func TestPredictWithoutModel(t *testing.T) {
	f := &fakeUsecases{predErr: fmt.Errorf("predict: %w", domrepo.ErrModelNotFound)}
	rec, env := serve(t, f, http.MethodGet, "/api/predict", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ERR_MODEL_NOT_FOUND", errorCode(t, env))
}

func TestScore(t *testing.T) {
	f := &fakeUsecases{scores: []float64{12.5}}
	rec, env := serve(t, f, http.MethodPost, "/api/score", `{"rows":[{"target_lag1":3,"driver_pct_change":0.5}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.scoreIn, 1)
	assert.Equal(t, 0.5, f.scoreIn[0][models.ColDriverPctChange])

	var out ScoreResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, []float64{12.5}, out.Predictions)
	assert.Equal(t, "model:crisis_ols", out.Model)
}

func TestScoreSchemaMismatch(t *testing.T) {
	rec, env := serve(t, &fakeUsecases{}, http.MethodPost, "/api/score", `{"rows":[{"target_lag1":3}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERR_FEATURE_SCHEMA", errorCode(t, env))
}

func TestScoreRequiresRows(t *testing.T) {
	rec, _ := serve(t, &fakeUsecases{}, http.MethodPost, "/api/score", `{"rows":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
