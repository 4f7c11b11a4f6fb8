package tracing

import (
	"context"
	"errors"
	"strings"

	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Attribute keys of statement span events.
const (
	EventName   = "log"
	SeverityKey = attribute.Key("log.severity")
	MessageKey  = attribute.Key("log.message")
	LoggerKey   = attribute.Key("log.logger")
	SkippedKey  = attribute.Key("log.skipped")
	redacted    = "[REDACTED]"
)

// Statement is the span-event view of a logged statement.
type Statement struct {
	Logger  string
	Level   level.Level
	Message string
	Tags    *tags.Tags
	Skipped int
	Cause   error
}

// RecordStatement adds stmt as an event on the span in ctx. Tags whose
// lower-cased name is in keywords have their values redacted. Nothing is
// recorded when ctx holds no recording span.
func RecordStatement(ctx context.Context, stmt Statement, keywords map[string]struct{}) {
	span := oteltrace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{
		SeverityKey.String(stmt.Level.String()),
		MessageKey.String(stmt.Message),
		LoggerKey.String(stmt.Logger),
	}
	if stmt.Skipped > 0 {
		attrs = append(attrs, SkippedKey.Int(stmt.Skipped))
	}
	if !stmt.Tags.IsEmpty() {
		attrs = append(attrs, RedactAttributes(stmt.Tags.Attributes(), keywords)...)
	}
	span.AddEvent(EventName, oteltrace.WithAttributes(attrs...))
	RecordCause(span, stmt.Cause, keywords)
}

// RedactAttributes returns a copy of attrs in which every attribute whose
// lower-cased key is in keywords has the value "[REDACTED]". attrs is
// returned as is when there is nothing to redact.
func RedactAttributes(attrs []attribute.KeyValue, keywords map[string]struct{}) []attribute.KeyValue {
	if len(keywords) == 0 || len(attrs) == 0 {
		return attrs
	}
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, kv := range attrs {
		if _, ok := keywords[strings.ToLower(string(kv.Key))]; ok {
			out = append(out, kv.Key.String(redacted))
			continue
		}
		out = append(out, kv)
	}
	return out
}

// RedactSecretsInString replaces, line by line, whatever follows a keyword
// (and its ':', '=', quote or space separators) with "[REDACTED]".
// Matching is case-insensitive; keywords must be lower case.
func RedactSecretsInString(input string, keywords map[string]struct{}) string {
	if len(keywords) == 0 || input == "" {
		return input
	}
	changed := false
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		for keyword := range keywords {
			idx := strings.Index(lower, keyword)
			if idx == -1 {
				continue
			}
			start := idx + len(keyword)
			for start < len(line) && strings.IndexByte(":= '\"", line[start]) >= 0 {
				start++
			}
			if start < len(line) {
				lines[i] = line[:start] + redacted
				changed = true
				break
			}
		}
	}
	if !changed {
		return input
	}
	return strings.Join(lines, "\n")
}

// RecordCause records err on span with its message redacted. The span status
// is left alone: a logged cause does not fail the operation.
func RecordCause(span oteltrace.Span, err error, keywords map[string]struct{}) {
	if err == nil || span == nil || !span.IsRecording() {
		return
	}
	span.RecordError(errors.New(RedactSecretsInString(err.Error(), keywords)))
}
