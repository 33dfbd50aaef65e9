package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodSeconds(t *testing.T) {
	for _, v := range []uint{0, 65536, 70000} {
		_, err := periodSeconds(v)
		assert.Error(t, err, "period %d", v)
	}
	for _, v := range []uint{1, 30, 65535} {
		got, err := periodSeconds(v)
		require.NoError(t, err)
		assert.Equal(t, uint16(v), got)
	}
}

func TestBuildRejectsPeriodBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "wrapped.bin")
	for _, p := range []string{"0", "70000"} {
		err := build([]string{"-in", filepath.Join(dir, "missing.png"), "-out", out, "-period", p})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr), "no file written for -period %s", p)
	}
}
