// Package tracing builds the OpenTelemetry tracer provider used to mirror
// logged statements as span events.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sllog "github.com/gxo-labs/scopelog/pkg/scopelog/v1/log"
	sltracing "github.com/gxo-labs/scopelog/pkg/scopelog/v1/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding/gzip"
)

const (
	defaultGRPCEndpoint = "localhost:4317"
	defaultHTTPEndpoint = "localhost:4318"
	defaultServiceName  = "scopelog"
	defaultTimeout      = 10 * time.Second
)

// OtelTracerProvider is a TracerProvider backed either by the OpenTelemetry
// SDK with an OTLP exporter or by the no-op provider.
type OtelTracerProvider struct {
	provider trace.TracerProvider

	// sdkProvider is nil for the no-op provider. The SDK provider shuts down
	// its span processors, and with them the exporter.
	sdkProvider *sdktrace.TracerProvider
}

// NewNoOpProvider returns a provider whose tracers record nothing.
func NewNoOpProvider() *OtelTracerProvider {
	return &OtelTracerProvider{provider: noop.NewTracerProvider()}
}

// NewSDKProvider wraps an SDK provider configured by the caller, typically
// with an in-memory exporter in tests.
func NewSDKProvider(tp *sdktrace.TracerProvider) *OtelTracerProvider {
	return &OtelTracerProvider{provider: tp, sdkProvider: tp}
}

// NewProviderFromEnv configures a provider from the standard OTEL_*
// environment variables. It falls back to the no-op provider when tracing is
// disabled (OTEL_SDK_DISABLED=true) or the exporter cannot be created; the
// fallback is logged, not returned as an error.
func NewProviderFromEnv(ctx context.Context, log sllog.Logger) *OtelTracerProvider {
	log = log.With("component", "TracerProvider")
	if strings.EqualFold(os.Getenv("OTEL_SDK_DISABLED"), "true") {
		log.Infof("OpenTelemetry tracing disabled via OTEL_SDK_DISABLED.")
		return NewNoOpProvider()
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName())),
		resource.WithProcess(), resource.WithOS(), resource.WithHost(),
	)
	if err != nil {
		log.Warnf("Failed to create OTel resource, using default: %v", err)
		res = resource.Default()
	}

	exporter, err := createExporter(ctx, log)
	if err != nil {
		log.Warnf("Failed to create OTLP exporter, using no-op tracer: %v", err)
		return NewNoOpProvider()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	log.Infof("OpenTelemetry SDK tracer provider configured.")
	return NewSDKProvider(tp)
}

// createExporter builds the OTLP exporter selected by
// OTEL_EXPORTER_OTLP_PROTOCOL (grpc by default, or http/protobuf).
func createExporter(ctx context.Context, log sllog.Logger) (sdktrace.SpanExporter, error) {
	protocol := strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"))
	if protocol == "" {
		protocol = "grpc"
	}
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	headers := parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	timeout := parseTimeout(os.Getenv("OTEL_EXPORTER_OTLP_TIMEOUT"), defaultTimeout)
	gzipped := strings.EqualFold(os.Getenv("OTEL_EXPORTER_OTLP_COMPRESSION"), "gzip")
	insecure := isInsecure(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"), os.Getenv("OTEL_EXPORTER_OTLP_TRACES_INSECURE"))

	switch protocol {
	case "grpc":
		if endpoint == "" {
			endpoint = defaultGRPCEndpoint
		}
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithHeaders(headers),
			otlptracegrpc.WithTimeout(timeout),
		}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}
		if gzipped {
			opts = append(opts, otlptracegrpc.WithCompressor(gzip.Name))
		}
		log.Debugf("Configuring OTLP gRPC exporter (endpoint: %s, insecure: %t)", endpoint, insecure)
		return otlptracegrpc.New(ctx, opts...)

	case "http", "http/protobuf":
		if endpoint == "" {
			endpoint = defaultHTTPEndpoint
		}
		path := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
		if path == "" {
			path = "/v1/traces"
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithURLPath(path),
			otlptracehttp.WithHeaders(headers),
			otlptracehttp.WithTimeout(timeout),
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if gzipped {
			opts = append(opts, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
		}
		log.Debugf("Configuring OTLP HTTP exporter (endpoint: %s%s, insecure: %t)", endpoint, path, insecure)
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
	}
}

// GetTracer returns a tracer from the underlying provider.
func (p *OtelTracerProvider) GetTracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.provider == nil {
		return noop.NewTracerProvider().Tracer(name, opts...)
	}
	return p.provider.Tracer(name, opts...)
}

// Shutdown flushes and stops the SDK provider, honouring ctx's deadline.
func (p *OtelTracerProvider) Shutdown(ctx context.Context) error {
	if p.sdkProvider == nil {
		return nil
	}
	if err := p.sdkProvider.Shutdown(ctx); err != nil {
		return errors.Join(errors.New("shutting down tracer provider"), err)
	}
	return nil
}

// IsEffectivelyNoOp reports whether spans are discarded.
func (p *OtelTracerProvider) IsEffectivelyNoOp() bool {
	return p.sdkProvider == nil
}

func serviceName() string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return defaultServiceName
}

// parseHeaders parses the comma-separated key=value list of
// OTEL_EXPORTER_OTLP_HEADERS.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if ok && key != "" {
			headers[key] = strings.TrimSpace(value)
		}
	}
	return headers
}

// parseTimeout accepts integer milliseconds, as OTLP specifies, or a Go
// duration. Invalid and negative values yield fallback.
func parseTimeout(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms < 0 {
			return fallback
		}
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}
	return fallback
}

func isInsecure(flags ...string) bool {
	for _, flag := range flags {
		if strings.EqualFold(strings.TrimSpace(flag), "true") {
			return true
		}
	}
	return false
}

var _ sltracing.TracerProvider = (*OtelTracerProvider)(nil)
