// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails tb unless err is an oops error carrying code at
// any wrapping depth.
func AssertErrorCode(tb testing.TB, err error, code string) {
	tb.Helper()
	require.Error(tb, err, "want error with code %s", code)
	_, ok := oops.AsOops(err)
	require.Truef(tb, ok, "want oops error with code %s, got %T: %v", code, err, err)
	assert.Equal(tb, code, Code(err), "error: %v", err)
}

// AssertErrorContext fails tb unless err carries key=value in its merged
// oops context.
func AssertErrorContext(tb testing.TB, err error, key string, value any) {
	tb.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.Truef(tb, ok, "want oops error with %s in context, got %T: %v", key, err, err)
	ctx := oopsErr.Context()
	got, found := ctx[key]
	require.Truef(tb, found, "context key %q missing from %v", key, ctx)
	assert.Equal(tb, value, got)
}
