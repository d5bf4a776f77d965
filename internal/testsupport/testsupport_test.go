package testsupport

import (
	"testing"

	"github.com/LinxISA/LinxCore/internal/commit"
	"github.com/LinxISA/LinxCore/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubModelFactoryBuildsModel(t *testing.T) {
	factory := StubModelFactory(nil, 1<<10, 1<<10)
	model, err := factory()
	require.NoError(t, err)
	require.NotNil(t, model)
}

func TestHarnessSendAndReadLine(t *testing.T) {
	h := NewHarness()
	go func() {
		msg, err := h.Server.Next()
		if err != nil {
			return
		}
		if msg.Kind == "start" {
			_ = h.Server.WriteAckOk(0)
		}
	}()

	require.NoError(t, h.Send(StartLine("/tmp/x.img", 0x1000)))
	line, err := h.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "type:ack_ok,seq:0,status:ok", line)
}

func TestCommitLineFormat(t *testing.T) {
	rec := &commit.Record{Seq: 1, PC: 0x100, Len: 4, Insn: 0xAB, NextPC: 0x104}
	line := CommitLine(rec)
	assert.Contains(t, line, "type:commit")
	assert.Contains(t, line, "seq:1")
	assert.Contains(t, line, "pc:0x100")
}

func TestWriteEmptySnapshotFileIsLoadable(t *testing.T) {
	path := WriteEmptySnapshotFile(t)
	assert.FileExists(t, path)
	_, err := snapshot.Load(path, 1<<16)
	require.NoError(t, err)
}
