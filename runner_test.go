package linxcore

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LinxISA/LinxCore/internal/rtl"
	"github.com/LinxISA/LinxCore/internal/testsupport"
)

// TestRunnerHappyPathOverSocket exercises the full runner: a real unix
// socket accept, the wire protocol, the stub RTL model, and the
// orchestrator, end to end (§8 scenario 1).
func TestRunnerHappyPathOverSocket(t *testing.T) {
	snapPath := testsupport.WriteEmptySnapshotFile(t)

	script := []rtl.ScriptedCycle{
		{Lanes: [4]rtl.LaneSignals{{Fire: true, PC: 0x1000, Len: 4, NextPC: 0x1004}}},
	}

	cfg := DefaultConfig()
	cfg.SocketPath = filepath.Join(t.TempDir(), "lxcosim.sock")
	cfg.MemoryDepth = 1 << 16

	newModel := func() (rtl.Model, error) {
		return rtl.NewStubModel(script, int(cfg.MemoryDepth), int(cfg.MemoryDepth)), nil
	}

	runner := NewRunner(cfg, newModel, nil)
	ln, err := runner.Listen()
	require.NoError(t, err)

	done := make(chan error, 1)
	var gotExit string

	go func() {
		res, serveErr := runner.Serve(context.Background(), ln)
		if serveErr != nil {
			done <- serveErr
			return
		}
		gotExit = res.ExitCategory.String()
		done <- nil
	}()

	// Give Accept a moment to be listening before dialing.
	time.Sleep(20 * time.Millisecond)

	client, err := net.Dial("unix", cfg.SocketPath)
	require.NoError(t, err)
	defer client.Close()

	w := bufio.NewWriter(client)
	r := bufio.NewReader(client)

	writeLine := func(s string) {
		_, werr := w.WriteString(s + "\n")
		require.NoError(t, werr)
		require.NoError(t, w.Flush())
	}
	readLine := func() string {
		line, rerr := r.ReadString('\n')
		require.NoError(t, rerr)
		return line[:len(line)-1]
	}

	writeLine(testsupport.StartLine(snapPath, 0x1000))
	writeLine(fmt.Sprintf("type:commit,seq:0,pc:%#x,len:4,insn:0,"+
		"wb_valid:0,wb_rd:0,wb_data:0,"+
		"mem_valid:0,mem_is_store:0,mem_addr:0,mem_wdata:0,mem_rdata:0,mem_size:0,"+
		"trap_valid:0,trap_cause:0,trap_arg0:0,next_pc:%#x", uint64(0x1000), uint64(0x1004)))
	require.Equal(t, "type:ack_ok,seq:0,status:ok", readLine())

	writeLine(testsupport.EndLine("terminate_pc"))

	require.NoError(t, <-done)
	require.Equal(t, "Success", gotExit)
}
