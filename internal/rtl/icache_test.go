package rtl

import (
	"testing"

	"github.com/LinxISA/LinxCore/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedLineSource struct {
	line [constants.ICacheLineBytes]byte
}

func (s fixedLineSource) ReadLine(lineAddr uint64) [constants.ICacheLineBytes]byte {
	return s.line
}

// scriptedICacheModel is a minimal Model stub just for exercising the
// responder directly, independent of the stepper.
type scriptedICacheModel struct {
	reqValid bool
	reqAddr  uint64

	lastReady   bool
	lastRspValid bool
	lastRspAddr  uint64
	lastRspData  [constants.ICacheLineBytes]byte
}

func (m *scriptedICacheModel) Reset(bootPC, bootSP, bootRA uint64)                 {}
func (m *scriptedICacheModel) Tick()                                              {}
func (m *scriptedICacheModel) Cycles() uint64                                     { return 0 }
func (m *scriptedICacheModel) Lanes() [constants.LaneCount]LaneSignals            { return [constants.LaneCount]LaneSignals{} }
func (m *scriptedICacheModel) Halted() bool                                       { return false }
func (m *scriptedICacheModel) MMIOExitValid() bool                                { return false }
func (m *scriptedICacheModel) MMIOExitCode() uint64                               { return 0 }
func (m *scriptedICacheModel) ICacheReqValid() bool                               { return m.reqValid }
func (m *scriptedICacheModel) ICacheReqAddr() uint64                              { return m.reqAddr }
func (m *scriptedICacheModel) SetICacheReqReady(ready bool)                       { m.lastReady = ready }
func (m *scriptedICacheModel) ROBCount() uint32                                   { return 0 }
func (m *scriptedICacheModel) ROBHead() ROBHead                                   { return ROBHead{} }
func (m *scriptedICacheModel) PeekIMem(addr uint64, size int) []byte              { return nil }
func (m *scriptedICacheModel) PeekDMem(addr uint64, size int) []byte              { return nil }
func (m *scriptedICacheModel) SetICacheRsp(valid bool, addr uint64, data [constants.ICacheLineBytes]byte, errFlag bool) {
	m.lastRspValid = valid
	m.lastRspAddr = addr
	m.lastRspData = data
}

var _ Model = (*scriptedICacheModel)(nil)

func TestICacheResponderIdleNoRequest(t *testing.T) {
	src := fixedLineSource{}
	r := NewICacheResponder(src, 2)
	m := &scriptedICacheModel{}

	r.PreTick(m)
	assert.True(t, m.lastReady)
	r.PostTick(m)
	assert.False(t, m.lastRspValid)
	assert.Equal(t, icacheIdle, r.state)
}

func TestICacheResponderFullLatencyRoundTrip(t *testing.T) {
	var line [constants.ICacheLineBytes]byte
	line[0] = 0xAB
	src := fixedLineSource{line: line}
	r := NewICacheResponder(src, 2)
	m := &scriptedICacheModel{reqValid: true, reqAddr: 0x1005}

	// Cycle 1: request observed, enters pendingWait.
	r.PreTick(m)
	assert.True(t, m.lastReady)
	r.PostTick(m)
	require.Equal(t, icachePendingWait, r.state)
	assert.False(t, m.lastRspValid)

	// Responder must report not-ready while a request is outstanding.
	m.reqValid = false
	r.PreTick(m)
	assert.False(t, m.lastReady)

	// Cycle 2: countdown from latency=2 to 1.
	r.PostTick(m)
	require.Equal(t, icachePendingWait, r.state)

	// Cycle 3: countdown reaches 0, transitions to respondNow.
	r.PreTick(m)
	r.PostTick(m)
	require.Equal(t, icacheRespondNow, r.state)

	// Cycle 4: respondNow asserts the response for exactly one cycle.
	r.PreTick(m)
	r.PostTick(m)
	require.Equal(t, icacheLatchedIdle, r.state)
	assert.True(t, m.lastRspValid)
	assert.Equal(t, uint64(0x1000), m.lastRspAddr) // line-aligned
	assert.Equal(t, byte(0xAB), m.lastRspData[0])

	// Cycle 5: latchedIdle deasserts and returns to idle.
	r.PreTick(m)
	assert.True(t, m.lastReady)
	r.PostTick(m)
	assert.False(t, m.lastRspValid)
	assert.Equal(t, icacheIdle, r.state)
}

func TestICacheResponderLineAlignment(t *testing.T) {
	src := fixedLineSource{}
	r := NewICacheResponder(src, 1)
	m := &scriptedICacheModel{reqValid: true, reqAddr: 0x1037}

	r.PreTick(m)
	r.PostTick(m)
	assert.Equal(t, uint64(0x1000), r.latchedAddr)
}

func TestICacheResponderDefaultLatency(t *testing.T) {
	r := NewICacheResponder(fixedLineSource{}, 0)
	assert.Equal(t, uint64(constants.ICacheLatencyCycles), r.latency)
}
