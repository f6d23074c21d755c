// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ui_test

import (
	"bytes"
	"testing"

	"carvel.dev/zsyaml/pkg/cmd/ui"
	"github.com/stretchr/testify/assert"
)

func TestTTYSeparatesStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer

	quiet := ui.NewCustomWriterTTY(false, &stdout, &stderr)
	quiet.Printf("out %d\n", 1)
	quiet.Debugf("hidden\n")
	quiet.Warnf("warn\n")
	_, _ = quiet.DebugWriter().Write([]byte("hidden too\n"))

	assert.Equal(t, "out 1\n", stdout.String())
	assert.Equal(t, "warn\n", stderr.String())

	stderr.Reset()
	loud := ui.NewCustomWriterTTY(true, &stdout, &stderr)
	loud.Debugf("call: %s\n", "f")
	assert.Equal(t, "debug: call: f\n", stderr.String())
}
