package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	drepo "MacroPull/internal/domain/repository"
	pkgkafka "MacroPull/pkg/kafka"
)

// Run request actions.
const (
	ActionBuild   = "build"
	ActionTrain   = "train"
	ActionPredict = "predict"
)

// RunRequest is the payload of the runs topic.
type RunRequest struct {
	Action string `json:"action"`
	BuildRequest
}

// KafkaRunHandler executes pipeline runs requested over Kafka.
type KafkaRunHandler struct {
	topic     string
	builder   *PipelineBuilder
	trainer   *Trainer
	predictor *Predictor
	metrics   drepo.Metrics
}

func NewKafkaRunHandler(topic string, builder *PipelineBuilder, trainer *Trainer, predictor *Predictor, metrics drepo.Metrics) *KafkaRunHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &KafkaRunHandler{topic: topic, builder: builder, trainer: trainer, predictor: predictor, metrics: metrics}
}

func (h *KafkaRunHandler) Topic() string { return h.topic }

// incoming message schema: {action, run_id?, series_id?, symbol?}
func (h *KafkaRunHandler) Handle(ctx context.Context, b []byte) error {
	var req RunRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if req.RunID == "" {
		req.RunID = pkgkafka.RunIDFromContext(ctx)
	}

	start := time.Now()
	var err error
	switch req.Action {
	case ActionBuild, "":
		_, _, err = h.builder.Run(ctx, req.BuildRequest)
	case ActionTrain:
		_, err = h.trainer.Train(ctx, req.BuildRequest)
	case ActionPredict:
		_, err = h.predictor.Predict(ctx, req.BuildRequest)
	default:
		h.metrics.RecordError("consumer_action")
		return fmt.Errorf("unknown run action %q", req.Action)
	}
	h.metrics.RecordLatency("run_"+actionLabel(req.Action), time.Since(start).Seconds())
	return err
}

func actionLabel(a string) string {
	if a == "" {
		return ActionBuild
	}
	return a
}

var _ pkgkafka.MessageHandler = (*KafkaRunHandler)(nil)
