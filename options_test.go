// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package fiberio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRuntimeOptions_Defaults(t *testing.T) {
	cfg, err := resolveRuntimeOptions(nil)
	require.NoError(t, err)
	assert.True(t, cfg.hooksEnabled)
	assert.Equal(t, 256, cfg.maxEvents)
	assert.NotNil(t, cfg.logger)
}

func TestWithHooksEnabled(t *testing.T) {
	cfg, err := resolveRuntimeOptions([]RuntimeOption{WithHooksEnabled(false)})
	require.NoError(t, err)
	assert.False(t, cfg.hooksEnabled)
}

func TestWithMaxEvents(t *testing.T) {
	cfg, err := resolveRuntimeOptions([]RuntimeOption{WithMaxEvents(64)})
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.maxEvents)
}

func TestWithMaxEvents_IgnoresNonPositive(t *testing.T) {
	cfg, err := resolveRuntimeOptions([]RuntimeOption{WithMaxEvents(0), WithMaxEvents(-5)})
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.maxEvents)
}

func TestWithLogger(t *testing.T) {
	logger := NewNoOpLogger()
	cfg, err := resolveRuntimeOptions([]RuntimeOption{WithLogger(logger)})
	require.NoError(t, err)
	assert.Same(t, logger, cfg.logger)
}

func TestResolveRuntimeOptions_NilOptionSkipped(t *testing.T) {
	cfg, err := resolveRuntimeOptions([]RuntimeOption{nil, WithMaxEvents(128)})
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.maxEvents)
}
