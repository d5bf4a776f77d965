package framing

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderDecodesStream(t *testing.T) {
	stream := strings.Join([]string{
		"type:start,snapshot_path:/tmp/a.img,trigger_pc:0x1000",
		"type:commit,seq:0,pc:0x1000,len:4,insn:0,wb_valid:0,wb_rd:0,wb_data:0," +
			"mem_valid:0,mem_is_store:0,mem_addr:0,mem_wdata:0,mem_rdata:0,mem_size:0," +
			"trap_valid:0,trap_cause:0,traparg0:0,next_pc:0x1004",
		"type:end,reason:terminate_pc",
	}, "\n")

	r := NewReader(strings.NewReader(stream))

	m1, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, KindStart, m1.Kind)
	assert.Equal(t, "/tmp/a.img", m1.Start.SnapshotPath)

	m2, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, KindCommit, m2.Kind)
	assert.Equal(t, uint64(0), m2.Commit.Seq)

	m3, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, KindEnd, m3.Kind)
	assert.Equal(t, "terminate_pc", m3.End.Reason)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderSkipsBlankLines(t *testing.T) {
	r := NewReader(strings.NewReader("\n\ntype:end,reason:guest_exit\n"))
	m, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, KindEnd, m.Kind)
}

func TestReaderUnknownTypeIsError(t *testing.T) {
	r := NewReader(strings.NewReader("type:bogus\n"))
	_, err := r.Next()
	assert.Error(t, err)
}

func TestWriterWritesAckLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteAckOk(3))
	require.NoError(t, w.WriteAckMismatch(4, "pc", 1, 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "type:ack_ok,seq:3,status:ok", lines[0])
	assert.Equal(t, "type:ack_mismatch,seq:4,status:mismatch,field:pc,qemu:1,dut:2", lines[1])
}
