package cmd

import (
	"errors"
	"testing"

	common "github.com/404wolf/livefs/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMount struct {
	err   error
	calls int
}

func (f *fakeMount) Unmount() error {
	f.calls++
	return f.err
}

func observeLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.ErrorLevel)
	previous := common.Logger
	common.Logger = zap.New(core).Sugar()
	t.Cleanup(func() { common.Logger = previous })
	return logs
}

func TestUnmountReportsFailure(t *testing.T) {
	logs := observeLogger(t)
	m := &fakeMount{err: errors.New("device busy")}

	err := unmount(m)
	assert.ErrorIs(t, err, m.err)
	assert.Equal(t, 1, m.calls)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Error unmounting: device busy", entries[0].Message)
}

func TestUnmountSuccessIsQuiet(t *testing.T) {
	logs := observeLogger(t)
	m := &fakeMount{}

	assert.NoError(t, unmount(m))
	assert.Equal(t, 1, m.calls)
	assert.Zero(t, logs.Len())
}
