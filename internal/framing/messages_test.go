package framing

import (
	"testing"

	"github.com/LinxISA/LinxCore/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStartDefaults(t *testing.T) {
	f, err := ParseLine("type:start,snapshot_path:/tmp/a.img,trigger_pc:0x10000")
	require.NoError(t, err)
	msg, err := DecodeStart(f, DefaultStartDefaults())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.img", msg.SnapshotPath)
	assert.Equal(t, uint64(0x10000), msg.TriggerPC)
	assert.Equal(t, uint64(0x10000), msg.BootPC, "boot_pc defaults to trigger_pc")
	assert.Equal(t, constants.DefaultBootSP, msg.BootSP)
	assert.Equal(t, constants.DefaultBootRA, msg.BootRA)
	assert.Nil(t, msg.TerminatePC)
}

func TestDecodeStartExplicitFields(t *testing.T) {
	f, err := ParseLine("type:start,snapshot_path:/tmp/a.img,trigger_pc:0x10000,terminate_pc:0x20000,boot_pc:0x30000,seq_base:5")
	require.NoError(t, err)
	msg, err := DecodeStart(f, DefaultStartDefaults())
	require.NoError(t, err)
	require.NotNil(t, msg.TerminatePC)
	assert.Equal(t, uint64(0x20000), *msg.TerminatePC)
	assert.Equal(t, uint64(0x30000), msg.BootPC)
	assert.Equal(t, uint64(5), msg.SeqBase)
}

func TestDecodeStartMissingSnapshotPathIsError(t *testing.T) {
	f, err := ParseLine("type:start,trigger_pc:0x10000")
	require.NoError(t, err)
	_, err = DecodeStart(f, DefaultStartDefaults())
	assert.Error(t, err)
}

func TestDecodeEnd(t *testing.T) {
	f, err := ParseLine("type:end,reason:terminate_pc")
	require.NoError(t, err)
	msg, err := DecodeEnd(f)
	require.NoError(t, err)
	assert.Equal(t, "terminate_pc", msg.Reason)
	assert.True(t, IsStrictEnd(msg.Reason))
}

func TestIsStrictEndRejectsMaxCommits(t *testing.T) {
	assert.False(t, IsStrictEnd("max_commits"))
}

func TestDecodeCommitFullRecord(t *testing.T) {
	line := "type:commit,seq:17,pc:0x12340,len:4,insn:0xabcdef," +
		"wb_valid:1,wb_rd:5,wb_data:0xDEADBEEF," +
		"mem_valid:0,mem_is_store:0,mem_addr:0,mem_wdata:0,mem_rdata:0,mem_size:0," +
		"trap_valid:0,trap_cause:0,traparg0:0,next_pc:0x12344"
	f, err := ParseLine(line)
	require.NoError(t, err)
	rec, err := DecodeCommit(f)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), rec.Seq)
	assert.Equal(t, uint64(0x12340), rec.PC)
	assert.Equal(t, uint8(4), rec.Len)
	assert.True(t, rec.WBValid)
	assert.Equal(t, uint8(5), rec.WBRd)
	assert.Equal(t, uint64(0xDEADBEEF), rec.WBData)
	assert.Equal(t, uint64(0x12344), rec.NextPC)
}

func TestDecodeCommitTrapArg0Alias(t *testing.T) {
	f, err := ParseLine("type:commit,seq:1,pc:0,len:4,insn:0,wb_valid:0,wb_rd:0,wb_data:0," +
		"mem_valid:0,mem_is_store:0,mem_addr:0,mem_wdata:0,mem_rdata:0,mem_size:0," +
		"trap_valid:1,trap_cause:3,trap_arg0:0xFF,next_pc:4")
	require.NoError(t, err)
	rec, err := DecodeCommit(f)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFF), rec.TrapArg0)
}

func TestDecodeCommitOptionalOperandMirrors(t *testing.T) {
	f, err := ParseLine("type:commit,seq:1,pc:0,len:4,insn:0,wb_valid:0,wb_rd:0,wb_data:0," +
		"mem_valid:0,mem_is_store:0,mem_addr:0,mem_wdata:0,mem_rdata:0,mem_size:0," +
		"trap_valid:0,trap_cause:0,traparg0:0,next_pc:0," +
		"src0_valid:1,src0_reg:3,src0_data:0x99")
	require.NoError(t, err)
	rec, err := DecodeCommit(f)
	require.NoError(t, err)
	assert.True(t, rec.Src0.Valid)
	assert.Equal(t, uint8(3), rec.Src0.Reg)
	assert.Equal(t, uint64(0x99), rec.Src0.Data)
	assert.False(t, rec.Src1.Valid)
}

func TestEncodeAckOk(t *testing.T) {
	assert.Equal(t, "type:ack_ok,seq:17,status:ok", EncodeAckOk(17))
}

func TestEncodeAckMismatch(t *testing.T) {
	got := EncodeAckMismatch(17, "wb_data", 0xDEADBEEF, 0xDEADBEEE)
	assert.Equal(t, "type:ack_mismatch,seq:17,status:mismatch,field:wb_data,qemu:3735928559,dut:3735928558", got)
}
