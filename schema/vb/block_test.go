package vb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/schema/vb"
	"github.com/fcstate/migrator/schema/vc"
)

func TestVhostUserBlockStateRestoreNotSupported(t *testing.T) {
	t.Parallel()

	_, err := vb.VhostUserBlockState{}.Restore()
	require.ErrorIs(t, err, vc.ErrSnapshottingNotSupported)
}

func TestVhostUserBlockStateSavePanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		vb.VhostUserBlockState{}.Save()
	})
}
