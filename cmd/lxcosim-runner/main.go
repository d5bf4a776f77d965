// Command lxcosim-runner accepts one REF connection over a unix-domain
// socket, drives a DUT RTL model in lockstep against the commit stream it
// reads, and exits with the category named in §6.5.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/LinxISA/LinxCore"
	"github.com/LinxISA/LinxCore/internal/logging"
	"github.com/LinxISA/LinxCore/internal/lxerr"
)

func main() {
	var (
		socketPath   = flag.String("socket", "/tmp/lxcosim.sock", "unix socket to accept the REF connection on")
		verbose      = flag.Int("v", 0, "verbosity level; any value >0 enables debug logging")
		bootSP       = flag.Uint64("boot-sp", 0x0000000000020000, "default boot stack pointer, overridden per-session by start.boot_sp")
		bootRA       = flag.Uint64("boot-ra", 0, "default boot return address, overridden per-session by start.boot_ra")
		maxDutCycles = flag.Uint64("max-dut-cycles", 200_000_000, "hard simulation cycle cap (§9.A)")
		deadlock     = flag.Uint64("deadlock-cycles", 200_000, "cycles with no retirement before declaring deadlock")
		memDepth     = flag.Uint64("mem-depth", 1<<26, "DUT backing memory depth in bytes; must be a power of two")
		acceptMax    = flag.Bool("accept-max-commits-as-success", false, "treat end.reason=max_commits as Success rather than Other end (§9.A)")
		forceMism    = flag.Bool("force-mismatch", false, "diagnostic: perturb the first matching commit to exercise the report path")
		disasmTool   = flag.String("disasm-tool", "", "disassembler binary path, threaded into mismatch reports only (never invoked)")
		disasmSpec   = flag.String("disasm-spec", "", "disassembler ISA spec path, threaded into mismatch reports only (never invoked)")
		cpuAffinity  = flag.Int("cpu-affinity", -1, "pin the driver loop to this CPU index; -1 disables pinning")
		useStub      = flag.Bool("stub", false, "drive a pure-Go stub RTL model instead of a compiled DUT artifact (for smoke-testing this runner)")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose > 0 {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	if *memDepth == 0 || *memDepth&(*memDepth-1) != 0 {
		logger.Error("mem-depth must be a power of two", "value", *memDepth)
		os.Exit(int(lxerr.ExitUsage))
	}

	cfg := linxcore.DefaultConfig()
	cfg.SocketPath = *socketPath
	cfg.BootSP = *bootSP
	cfg.BootRA = *bootRA
	cfg.MaxDutCycles = *maxDutCycles
	cfg.DeadlockCycles = *deadlock
	cfg.MemoryDepth = *memDepth
	cfg.AcceptMaxCommitsAsSuccess = *acceptMax
	cfg.ForceMismatch = *forceMism
	cfg.DisasmTool = *disasmTool
	cfg.DisasmSpec = *disasmSpec
	if *cpuAffinity >= 0 {
		cfg.CPUAffinity = cpuAffinity
	}

	var newModel linxcore.ModelFactory
	if *useStub {
		newModel = linxcore.StubModelFactory(cfg)
	} else {
		newModel = linxcore.DutModelFactory()
	}

	runner := linxcore.NewRunner(cfg, newModel, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	installStackDumpHandler(logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("listening for ref connection", "socket", cfg.SocketPath)
	result, err := runner.ListenAndServe(ctx)
	if err != nil {
		logger.Error("session failed", "error", err)
		os.Exit(exitCodeFor(err))
	}

	logger.Info("session complete", "exit_category", result.ExitCategory.String(), "reason", result.Reason)
	if result.Report != nil {
		fmt.Fprintln(os.Stderr, result.Report.Format(cfg.DisasmTool, cfg.DisasmSpec))
	}
	os.Exit(int(result.ExitCategory))
}

// exitCodeFor maps a terminal session error to its exit category (§6.5).
func exitCodeFor(err error) int {
	var le *lxerr.Error
	if e, ok := err.(*lxerr.Error); ok {
		le = e
	} else {
		return int(lxerr.ExitProtocol)
	}
	return int(lxerr.ExitCategoryForKind(le.Kind))
}

// installStackDumpHandler wires SIGUSR1 to a full goroutine stack dump, for
// live debugging a session that appears to be hung (mirrors this lineage's
// existing stack-dump convenience).
func installStackDumpHandler(logger *logging.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	go func() {
		for range ch {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE STACK DUMP ===\n%s\n=== END ===\n", buf[:n])

			filename := fmt.Sprintf("lxcosim-stacks-%d.txt", os.Getpid())
			if f, err := os.Create(filename); err == nil {
				fmt.Fprintf(f, "stack dump at %s\npid=%d\n\n", time.Now().Format(time.RFC3339), os.Getpid())
				f.Write(buf[:n])
				fmt.Fprintf(f, "\n=== GOROUTINE PROFILE ===\n")
				pprof.Lookup("goroutine").WriteTo(f, 2)
				f.Close()
				logger.Info("stack dump written", "file", filename)
			}
		}
	}()
}
