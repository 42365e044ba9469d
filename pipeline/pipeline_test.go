package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/allocator"
	"github.com/fcstate/migrator/codec"
	"github.com/fcstate/migrator/convert"
	"github.com/fcstate/migrator/pipeline"
	"github.com/fcstate/migrator/schema/vb"
	"github.com/fcstate/migrator/schema/vc"
)

func TestParseVersionAcceptsKnownStrings(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"4.0.0", "6.0.0", "8.0.0"} {
		v, err := pipeline.ParseVersion(s)
		require.NoError(t, err)
		require.Equal(t, pipeline.Version(s), v)
	}
}

func TestParseVersionRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, err := pipeline.ParseVersion("1.0.0")
	require.ErrorIs(t, err, pipeline.ErrUnknownVersion)
}

func minimalVCState() vc.MicrovmState {
	return vc.MicrovmState{
		VmState: vc.VmState{X86: &vc.X86VmState{}},
	}
}

func TestRunPassesThroughCurrentVersion(t *testing.T) {
	t.Parallel()

	state := minimalVCState()

	w := codec.NewWriter()
	state.Encode(w)

	out, err := pipeline.Run(pipeline.Input{Version: pipeline.VersionC, Bytes: w.Bytes()})
	require.NoError(t, err)
	require.Equal(t, w.Bytes(), out)
}

func minimalVBStateWithVMGenID() vb.MicrovmState {
	guid := [16]byte{1, 2, 3}

	return vb.MicrovmState{
		VmState:      vb.VmState{X86: &vb.X86VmState{}},
		AcpiDevState: vb.ACPIDeviceManagerState{VMGenID: &vb.VMGenIDState{Addr: 0x1000, GUID: guid}},
	}
}

func TestRunUpgradesVersionB(t *testing.T) {
	t.Parallel()

	old := minimalVBStateWithVMGenID()

	w := codec.NewWriter()
	old.Encode(w)

	out, err := pipeline.Run(pipeline.Input{
		Version: pipeline.VersionB, Bytes: w.Bytes(),
		Arch: convert.ArchX86_64, Layout: allocator.DefaultX86Layout,
	})
	require.NoError(t, err)

	got, err := vc.DecodeMicrovmState(codec.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, old.AcpiDevState.VMGenID.Addr, got.DeviceStates.AcpiState.VMGenID.Addr)
}

func TestRunMissingVMGenIDTranslatesToPipelineSentinel(t *testing.T) {
	t.Parallel()

	old := minimalVBStateWithVMGenID()
	old.AcpiDevState.VMGenID = nil

	w := codec.NewWriter()
	old.Encode(w)

	_, err := pipeline.Run(pipeline.Input{
		Version: pipeline.VersionB, Bytes: w.Bytes(),
		Arch: convert.ArchX86_64, Layout: allocator.DefaultX86Layout,
	})
	require.ErrorIs(t, err, pipeline.ErrMissingVmGenID)
}

func TestRunUnknownVersionErrors(t *testing.T) {
	t.Parallel()

	_, err := pipeline.Run(pipeline.Input{Version: pipeline.Version("0.0.1"), Bytes: nil})
	require.ErrorIs(t, err, pipeline.ErrUnknownVersion)
}

func TestRunTruncatedEnvelopeErrors(t *testing.T) {
	t.Parallel()

	_, err := pipeline.Run(pipeline.Input{Version: pipeline.VersionC, Bytes: []byte{1, 2, 3}})
	require.Error(t, err)
}

func TestRunFramedRoundTripsThroughHeader(t *testing.T) {
	t.Parallel()

	old := minimalVBStateWithVMGenID()

	w := codec.NewWriter()
	old.Encode(w)

	raw := pipeline.JoinHeader(pipeline.VersionB, w.Bytes())

	out, err := pipeline.RunFramed(raw, convert.ArchX86_64, allocator.DefaultX86Layout)
	require.NoError(t, err)

	v, body, err := pipeline.SplitHeader(out)
	require.NoError(t, err)
	require.Equal(t, pipeline.VersionC, v)

	got, err := vc.DecodeMicrovmState(codec.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, old.AcpiDevState.VMGenID.Addr, got.DeviceStates.AcpiState.VMGenID.Addr)
}
