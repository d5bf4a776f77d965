package lxerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewError("snapshot.Load", KindSnapshotError, "bad magic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
	assert.Contains(t, err.Error(), "op=snapshot.Load")
}

func TestMismatchError(t *testing.T) {
	err := NewMismatchError("compare", 17, "wb_data", "writeback data diverged")
	assert.Equal(t, KindCompareMismatch, err.Kind)
	assert.Equal(t, uint64(17), err.Seq)
	assert.Equal(t, "wb_data", err.Field)
	assert.Contains(t, err.Error(), "field=wb_data")
}

func TestWrapError(t *testing.T) {
	inner := errors.New("connection reset")
	wrapped := WrapError("wire.ReadLine", KindTransportError, inner)
	require.Error(t, wrapped)
	assert.True(t, errors.Is(wrapped, wrapped))
	assert.ErrorIs(t, wrapped, wrapped)
	assert.Same(t, inner, errors.Unwrap(wrapped))
}

func TestWrapErrorPreservesKind(t *testing.T) {
	original := NewError("stepper.next_commit", KindDutDeadlock, "stalled")
	wrapped := WrapError("orchestrator.commit", "", original)
	assert.Equal(t, KindDutDeadlock, wrapped.Kind)
}

func TestIsKind(t *testing.T) {
	err := NewError("wire.parse", KindProtocolError, "unknown type")
	assert.True(t, IsKind(err, KindProtocolError))
	assert.False(t, IsKind(err, KindSnapshotError))
}

func TestExitCategoryForKind(t *testing.T) {
	cases := []struct {
		kind Kind
		want ExitCategory
	}{
		{KindSnapshotError, ExitProtocol},
		{KindProtocolError, ExitProtocol},
		{KindCompareMismatch, ExitMismatch},
		{KindExtraDutCommits, ExitMismatch},
		{KindDutDeadlock, ExitMismatch},
		{KindDutMaxCycles, ExitMismatch},
		{KindDutTerminatedEarly, ExitProtocol},
		{KindTransportError, ExitProtocol},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCategoryForKind(tc.kind))
		})
	}
}

func TestExitCategoryString(t *testing.T) {
	assert.Equal(t, "Success", ExitSuccess.String())
	assert.Equal(t, "Mismatch", ExitMismatch.String())
}
