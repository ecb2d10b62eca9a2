// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package logging configures slog for crab commands. Every record carries
// the service name and version, plus the trace and span ids of the rig
// transition that emitted it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the handler New builds.
type Options struct {
	// Format is FormatText (the default) or FormatJSON.
	Format string
	// Level is the minimum level logged.
	Level slog.Level
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

type spanHandler struct {
	handler slog.Handler
	service string
	version string
}

func (h *spanHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, r)
}

func (h *spanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanHandler{handler: h.handler.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *spanHandler) WithGroup(name string) slog.Handler {
	return &spanHandler{handler: h.handler.WithGroup(name), service: h.service, version: h.version}
}

// New builds a logger for service.
func New(service, version string, o Options) *slog.Logger {
	w := o.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: o.Level}

	var base slog.Handler
	if o.Format == FormatJSON {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}
	return slog.New(&spanHandler{handler: base, service: service, version: version})
}

// SetDefault builds a logger with New and installs it as slog's default.
func SetDefault(service, version string, o Options) *slog.Logger {
	logger := New(service, version, o)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel parses debug, info, warn or error, case-insensitively. An
// empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, oops.In("logging").Code("INVALID_LOG_LEVEL").With("level", s).Wrap(err)
	}
	return l, nil
}
