package kafka

import (
    "context"
    "time"

    "github.com/segmentio/kafka-go"

    applogger "MacroPull/pkg/logger"
)

// HeaderRunID carries the pipeline run a message belongs to.
const HeaderRunID = "run_id"

// ConsumerHook defines lifecycle hooks around message handling.
// Returning a non-nil error from BeforeHandle skips the handler and triggers
// error processing (OnError, DLQ, and offset commit).
type ConsumerHook interface {
    BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
    AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
    OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook is the default hook.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    return ctx, km, data, nil
}

func (NoopHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

func (NoopHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are no-ops.
type HookFuncs struct {
    Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
    After  func(context.Context, string, kafka.Message, []byte, error)
    Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    if h.Before == nil {
        return ctx, km, data, nil
    }
    return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    if h.After != nil {
        h.After(ctx, topic, km, data, err)
    }
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    if h.Err != nil {
        h.Err(ctx, topic, km, data, err)
    }
}

type ctxKey string

const (
    ctxStartTime ctxKey = "kafka_hook_start_time"
    ctxRunID     ctxKey = "kafka_hook_run_id"
)

// WithRunID stores a run id in ctx. An empty id leaves ctx unchanged.
func WithRunID(ctx context.Context, runID string) context.Context {
    if runID == "" {
        return ctx
    }
    return context.WithValue(ctx, ctxRunID, runID)
}

// RunIDFromContext returns the run id set by CorrelationHook, if any.
func RunIDFromContext(ctx context.Context) string {
    v, _ := ctx.Value(ctxRunID).(string)
    return v
}

// HeaderValue returns the first header named key.
func HeaderValue(km kafka.Message, key string) string {
    for _, h := range km.Headers {
        if h.Key == key && len(h.Value) > 0 {
            return string(h.Value)
        }
    }
    return ""
}

// CorrelationHook copies the run id header into the handler context and logs
// how each message ended.
type CorrelationHook struct {
    Logger *applogger.Logger
}

func (h CorrelationHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    ctx = context.WithValue(ctx, ctxStartTime, time.Now())
    return WithRunID(ctx, HeaderValue(km, HeaderRunID)), km, data, nil
}

func (h CorrelationHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    if h.Logger == nil {
        return
    }
    fields := []applogger.Field{
        applogger.String("topic", topic),
        applogger.Int("partition", km.Partition),
        applogger.Int64("offset", km.Offset),
        applogger.String("run_id", RunIDFromContext(ctx)),
    }
    if start, ok := ctx.Value(ctxStartTime).(time.Time); ok {
        fields = append(fields, applogger.Duration("elapsed", time.Since(start)))
    }
    if err != nil {
        h.Logger.Warn("kafka message failed", append(fields, applogger.Error(err))...)
        return
    }
    h.Logger.Debug("kafka message handled", fields...)
}

func (h CorrelationHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

var (
    _ ConsumerHook = NoopHook{}
    _ ConsumerHook = HookFuncs{}
    _ ConsumerHook = CorrelationHook{}
)
