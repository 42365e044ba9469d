package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcstate/migrator/pipeline"
)

func TestJoinSplitHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	envelope := []byte{1, 2, 3, 4, 5}

	raw := pipeline.JoinHeader(pipeline.VersionB, envelope)

	v, body, err := pipeline.SplitHeader(raw)
	require.NoError(t, err)
	require.Equal(t, pipeline.VersionB, v)
	require.Equal(t, envelope, body)
}

func TestSplitHeaderTruncatedLengthPrefix(t *testing.T) {
	t.Parallel()

	_, _, err := pipeline.SplitHeader([]byte{1, 2, 3})
	require.ErrorIs(t, err, pipeline.ErrHeaderTooShort)
}

func TestSplitHeaderTruncatedVersionString(t *testing.T) {
	t.Parallel()

	raw := pipeline.JoinHeader(pipeline.VersionA, nil)
	truncated := raw[:len(raw)-2]

	_, _, err := pipeline.SplitHeader(truncated)
	require.ErrorIs(t, err, pipeline.ErrHeaderTooShort)
}

func TestSplitHeaderUnknownVersion(t *testing.T) {
	t.Parallel()

	raw := pipeline.JoinHeader(pipeline.Version("9.9.9"), nil)

	_, _, err := pipeline.SplitHeader(raw)
	require.ErrorIs(t, err, pipeline.ErrUnknownVersion)
}

func TestJoinHeaderEmptyEnvelope(t *testing.T) {
	t.Parallel()

	raw := pipeline.JoinHeader(pipeline.VersionC, nil)

	v, body, err := pipeline.SplitHeader(raw)
	require.NoError(t, err)
	require.Equal(t, pipeline.VersionC, v)
	require.Empty(t, body)
}
