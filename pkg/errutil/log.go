// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package errutil holds helpers for reporting oops errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level with its oops code and context.
func LogError(logger *slog.Logger, msg string, err error) {
	logAt(context.Background(), logger, slog.LevelError, msg, err)
}

// LogWarn logs err at warning level. The rigging core uses it for every
// log-and-continue path.
func LogWarn(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) {
	logAt(ctx, logger, slog.LevelWarn, msg, err, args...)
}

func logAt(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, err error, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := append([]any{}, args...)
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs = append(attrs, "error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if domain := oopsErr.Domain(); domain != "" {
			attrs = append(attrs, "domain", domain)
		}
		if c := oopsErr.Context(); len(c) > 0 {
			attrs = append(attrs, "context", c)
		}
	} else {
		attrs = append(attrs, "error", err)
	}
	logger.Log(ctx, level, msg, attrs...)
}

// Code returns the oops code of err, or "" if it has none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}
