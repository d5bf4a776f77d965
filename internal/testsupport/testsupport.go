// Package testsupport exposes the test doubles and scenario-building helpers
// used to exercise the lockstep runner without a real RTL backend or REF
// process: a canned snapshot builder, a wire-protocol harness over an
// in-memory pipe, and a StubModel-backed orchestrator.ModelFactory.
package testsupport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/LinxISA/LinxCore/internal/commit"
	"github.com/LinxISA/LinxCore/internal/framing"
	"github.com/LinxISA/LinxCore/internal/orchestrator"
	"github.com/LinxISA/LinxCore/internal/rtl"
)

// EmptySnapshotBytes builds a minimal valid snapshot file body with a zero
// range table — a stand-in DUT memory image for scenarios that don't
// exercise instruction fetch off the snapshot.
func EmptySnapshotBytes() []byte {
	buf := make([]byte, 16)
	copy(buf[0:8], "LXCOSIM1")
	binary.LittleEndian.PutUint32(buf[8:12], 1)
	binary.LittleEndian.PutUint32(buf[12:16], 0)
	return buf
}

// WriteEmptySnapshotFile materializes EmptySnapshotBytes to a temp file and
// returns its path.
func WriteEmptySnapshotFile(tb testing.TB) string {
	tb.Helper()
	dir := tb.TempDir()
	path := filepath.Join(dir, "snapshot.img")
	if err := os.WriteFile(path, EmptySnapshotBytes(), 0o644); err != nil {
		tb.Fatalf("testsupport: write snapshot: %v", err)
	}
	return path
}

// StubModelFactory returns an orchestrator.ModelFactory that hands out a
// fresh rtl.StubModel driven by script on each call.
func StubModelFactory(script []rtl.ScriptedCycle, imemSize, dmemSize int) orchestrator.ModelFactory {
	return func() (rtl.Model, error) {
		return rtl.NewStubModel(script, imemSize, dmemSize), nil
	}
}

// CommitLine renders rec as a wire-format commit line, for scenarios that
// drive an orchestrator.Session as if it were reading off a REF socket.
func CommitLine(rec *commit.Record) string {
	return fmt.Sprintf(
		"type:commit,seq:%d,pc:%#x,len:%d,insn:%#x,"+
			"wb_valid:%d,wb_rd:%d,wb_data:%#x,"+
			"mem_valid:%d,mem_is_store:%d,mem_addr:%#x,mem_wdata:%#x,mem_rdata:%#x,mem_size:%d,"+
			"trap_valid:%d,trap_cause:%d,trap_arg0:%#x,next_pc:%#x",
		rec.Seq, rec.PC, rec.Len, rec.Insn,
		b2i(rec.WBValid), rec.WBRd, rec.WBData,
		b2i(rec.MemValid), b2i(rec.MemIsStore), rec.MemAddr, rec.MemWData, rec.MemRData, rec.MemSize,
		b2i(rec.TrapValid), rec.TrapCause, rec.TrapArg0, rec.NextPC,
	)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// StartLine renders a start record.
func StartLine(snapshotPath string, triggerPC uint64) string {
	return fmt.Sprintf("type:start,snapshot_path:%s,trigger_pc:%#x", snapshotPath, triggerPC)
}

// EndLine renders an end record.
func EndLine(reason string) string {
	return fmt.Sprintf("type:end,reason:%s", reason)
}

// Harness wires an orchestrator-facing framing.Conn to a raw client-side
// net.Conn over an in-memory pipe, so a test can play the REF side of the
// wire protocol by hand.
type Harness struct {
	Server *framing.Conn
	client net.Conn
	rd     *bufio.Reader
}

// NewHarness constructs a connected Harness.
func NewHarness() *Harness {
	a, b := net.Pipe()
	return &Harness{Server: framing.NewConn(a), client: b, rd: bufio.NewReader(b)}
}

// Send writes one line (sans trailing newline) to the server side.
func (h *Harness) Send(line string) error {
	_, err := h.client.Write([]byte(line + "\n"))
	return err
}

// ReadLine reads one newline-terminated line the server wrote (an ack).
func (h *Harness) ReadLine() (string, error) {
	line, err := h.rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return line[:len(line)-1], nil
}

// Close closes the client side of the pipe, simulating the REF process
// exiting (the orchestrator observes this as EOF on its next read).
func (h *Harness) Close() error {
	return h.client.Close()
}
