package linxcore

import (
	"github.com/LinxISA/LinxCore/internal/constants"
	"github.com/LinxISA/LinxCore/internal/orchestrator"
	"github.com/LinxISA/LinxCore/internal/rtl"
)

// Config bundles the runner's runtime knobs (§6.3): the listen socket, boot
// inputs, the three budget-based termination thresholds, and the
// diagnostic/reporting options threaded down to the orchestrator.
type Config struct {
	// SocketPath is the unix-domain socket the runner listens on for the
	// REF connection.
	SocketPath string

	BootSP uint64
	BootRA uint64

	MaxDutCycles   uint64
	DeadlockCycles uint64
	MemoryDepth    uint64

	// AcceptMaxCommitsAsSuccess treats a REF end reason of "max_commits" as
	// a successful session termination rather than the "Other end" exit
	// category.
	AcceptMaxCommitsAsSuccess bool

	// ForceMismatch synthesizes a mismatch on the first matching commit, for
	// exercising the diagnostics report path (diagnostic use only).
	ForceMismatch bool

	// CPUAffinity, if non-nil, pins the session's driver loop to this CPU
	// index for cycle-timing determinism.
	CPUAffinity *int

	DisasmTool string
	DisasmSpec string
}

// DefaultConfig returns the runner's literal defaults.
func DefaultConfig() Config {
	return Config{
		SocketPath:     "/tmp/lxcosim.sock",
		BootSP:         constants.DefaultBootSP,
		BootRA:         constants.DefaultBootRA,
		MaxDutCycles:   constants.DefaultMaxDutCycles,
		DeadlockCycles: constants.DefaultDeadlockCycle,
		MemoryDepth:    1 << 26,
	}
}

func (c Config) stepperConfig() rtl.Config {
	return rtl.Config{
		DeadlockCycles: c.DeadlockCycles,
		MaxDutCycles:   c.MaxDutCycles,
		ICacheLatency:  constants.ICacheLatencyCycles,
	}
}

func (c Config) orchestratorOptions() orchestrator.Options {
	return orchestrator.Options{
		MemoryDepth:               c.MemoryDepth,
		AcceptMaxCommitsAsSuccess: c.AcceptMaxCommitsAsSuccess,
		ForceMismatch:             c.ForceMismatch,
		DisasmTool:                c.DisasmTool,
		DisasmSpec:                c.DisasmSpec,
	}
}
