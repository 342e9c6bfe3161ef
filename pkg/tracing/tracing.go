package tracing

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	jaeger "github.com/uber/jaeger-client-go"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"

	"macro_trader/pkg/logger"
)

var (
	// Неверное не самое элегантное решение, но лучше чем выносить константу в отдельный пакет
	// лучше инициализирвоать при инстанцировании через аргументы.
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Config: агент jaeger. SampleRate в (0,1) — вероятностный сэмплер, иначе пишем всё.
type Config struct {
	Host       string
	Port       int
	SampleRate float64
}

func sampler(rate float64) *jCfg.SamplerConfig {
	if rate > 0 && rate < 1 {
		return &jCfg.SamplerConfig{Type: jaeger.SamplerTypeProbabilistic, Param: rate}
	}
	return &jCfg.SamplerConfig{Type: jaeger.SamplerTypeConst, Param: 1}
}

// InitTracer ставит глобальный трейсер; спаны сделок и шагов макроса идут через него.
func InitTracer(conf Config) (opentracing.Tracer, func(), error) {
	cfg := &jCfg.Configuration{
		ServiceName: serviceName,
		Sampler:     sampler(conf.SampleRate),
		Reporter: &jCfg.ReporterConfig{
			LogSpans:           false,
			LocalAgentHostPort: fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		},
	}

	jMetricsFactory := metrics.NullFactory
	tracer, closer, err := cfg.NewTracer(
		jCfg.Metrics(jMetricsFactory),
	)
	if err != nil {
		return nil, nil, err
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, func() {
		if err := closer.Close(); err != nil {
			logger.Error("[TRACE] close jaeger tracer: %v", err)
		}
	}, nil
}

// TraceID: id трейса текущего спана, "" без трейсера jaeger.
func TraceID(ctx context.Context) string {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	if sc, ok := span.Context().(jaeger.SpanContext); ok {
		return sc.TraceID().String()
	}
	return ""
}
