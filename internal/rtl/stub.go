package rtl

import "github.com/LinxISA/LinxCore/internal/constants"

// StubModel is a pure-Go Model implementation for testing the stepper and
// orchestrator without a compiled RTL artifact. Callers script its behavior
// cycle-by-cycle via ScriptedCycle, mirroring how this lineage's stub queue
// runner simulates completions without a real kernel ring.
type StubModel struct {
	cycles uint64
	script []ScriptedCycle

	lastReqReady bool
	rspValid     bool
	rspAddr      uint64
	rspData      [constants.ICacheLineBytes]byte
	rspErr       bool

	imem, dmem []byte

	halted        bool
	mmioExitValid bool
	mmioExitCode  uint64

	robCount uint32
	robHead  ROBHead
}

// ScriptedCycle describes what a StubModel should present for one Tick.
type ScriptedCycle struct {
	Lanes         [constants.LaneCount]LaneSignals
	Halted        bool
	MMIOExitValid bool
	MMIOExitCode  uint64
	ICacheReqValid bool
	ICacheReqAddr  uint64
	ROBCount       uint32
	ROBHead        ROBHead
}

// NewStubModel constructs a StubModel backed by the given script, memory
// sizes, executed in order as Tick is called. Once the script is exhausted,
// subsequent ticks present an all-idle cycle.
func NewStubModel(script []ScriptedCycle, imemSize, dmemSize int) *StubModel {
	return &StubModel{
		script: script,
		imem:   make([]byte, imemSize),
		dmem:   make([]byte, dmemSize),
	}
}

func (m *StubModel) Reset(bootPC, bootSP, bootRA uint64) {
	m.cycles = 0
}

func (m *StubModel) current() ScriptedCycle {
	idx := int(m.cycles)
	if idx < len(m.script) {
		return m.script[idx]
	}
	return ScriptedCycle{}
}

func (m *StubModel) Tick() {
	c := m.current()
	m.halted = c.Halted
	m.mmioExitValid = c.MMIOExitValid
	m.mmioExitCode = c.MMIOExitCode
	m.robCount = c.ROBCount
	m.robHead = c.ROBHead
	m.cycles++
}

func (m *StubModel) Cycles() uint64 { return m.cycles }

func (m *StubModel) Lanes() [constants.LaneCount]LaneSignals {
	idx := int(m.cycles) - 1
	if idx < 0 || idx >= len(m.script) {
		return [constants.LaneCount]LaneSignals{}
	}
	return m.script[idx].Lanes
}

func (m *StubModel) Halted() bool          { return m.halted }
func (m *StubModel) MMIOExitValid() bool   { return m.mmioExitValid }
func (m *StubModel) MMIOExitCode() uint64  { return m.mmioExitCode }

func (m *StubModel) ICacheReqValid() bool {
	idx := int(m.cycles) - 1
	if idx < 0 || idx >= len(m.script) {
		return false
	}
	return m.script[idx].ICacheReqValid
}

func (m *StubModel) ICacheReqAddr() uint64 {
	idx := int(m.cycles) - 1
	if idx < 0 || idx >= len(m.script) {
		return 0
	}
	return m.script[idx].ICacheReqAddr
}

func (m *StubModel) SetICacheReqReady(ready bool) { m.lastReqReady = ready }

func (m *StubModel) SetICacheRsp(valid bool, addr uint64, data [constants.ICacheLineBytes]byte, errFlag bool) {
	m.rspValid, m.rspAddr, m.rspData, m.rspErr = valid, addr, data, errFlag
}

func (m *StubModel) ROBCount() uint32 { return m.robCount }
func (m *StubModel) ROBHead() ROBHead { return m.robHead }

func (m *StubModel) PeekIMem(addr uint64, size int) []byte {
	return peekBounded(m.imem, addr, size)
}

func (m *StubModel) PeekDMem(addr uint64, size int) []byte {
	return peekBounded(m.dmem, addr, size)
}

func peekBounded(buf []byte, addr uint64, size int) []byte {
	if addr >= uint64(len(buf)) {
		return nil
	}
	end := addr + uint64(size)
	if end > uint64(len(buf)) {
		end = uint64(len(buf))
	}
	out := make([]byte, end-addr)
	copy(out, buf[addr:end])
	return out
}

var _ Model = (*StubModel)(nil)
