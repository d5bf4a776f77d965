package rtl

import "github.com/LinxISA/LinxCore/internal/constants"

// icacheState is the four-state I$-L2 miss state machine (§9): idle,
// pendingWait (latency countdown in progress), respondNow (one-cycle
// response assertion), latchedIdle (response just retired, ready to accept
// a new request next cycle).
type icacheState int

const (
	icacheIdle icacheState = iota
	icachePendingWait
	icacheRespondNow
	icacheLatchedIdle
)

// InstructionSource serves 64-byte, line-aligned instruction cache lines.
// Backed by the snapshot's mapped memory in production; a flat byte slice
// in tests.
type InstructionSource interface {
	ReadLine(lineAddr uint64) [constants.ICacheLineBytes]byte
}

// ICacheResponder models the external L2 responder that answers the DUT's
// instruction-cache refill requests with a fixed latency and at most one
// outstanding line, per the RTL black-box contract (§6.4, §4.C).
type ICacheResponder struct {
	src     InstructionSource
	latency uint64

	state        icacheState
	latchedAddr  uint64
	countdown    uint64
}

// NewICacheResponder constructs a responder over src with the given fixed
// refill latency in cycles.
func NewICacheResponder(src InstructionSource, latency uint64) *ICacheResponder {
	if latency == 0 {
		latency = constants.ICacheLatencyCycles
	}
	return &ICacheResponder{src: src, latency: latency, state: icacheIdle}
}

// PreTick and PostTick together drive one cycle of the responder around the
// model's own tick (the RTL evaluates the handshake mid-cycle, so both
// sampling points are used). PreTick, called immediately before the caller
// invokes model.Tick(), drives ic_l2_req_ready from the responder state;
// PostTick, called immediately after, samples the request port, latches a
// new request, and asserts the response port for exactly one cycle on the
// latency deadline. Both sampling points are bracketed by store
// and full fences since the RTL and the responder observe the same
// volatile handshake signals across what is, for a cgo-backed Model, a
// genuine memory boundary.
func (r *ICacheResponder) PreTick(model Model) {
	sfence()
	ready := r.state == icacheIdle || r.state == icacheLatchedIdle
	model.SetICacheReqReady(ready)
	mfence()
}

func (r *ICacheResponder) PostTick(model Model) {
	sfence()
	defer mfence()

	switch r.state {
	case icacheIdle:
		if model.ICacheReqValid() {
			r.latchedAddr = model.ICacheReqAddr() &^ uint64(constants.ICacheLineBytes-1)
			r.countdown = r.latency
			r.state = icachePendingWait
		}
		model.SetICacheRsp(false, 0, [constants.ICacheLineBytes]byte{}, false)

	case icachePendingWait:
		if r.countdown > 0 {
			r.countdown--
		}
		if r.countdown == 0 {
			r.state = icacheRespondNow
		}
		model.SetICacheRsp(false, 0, [constants.ICacheLineBytes]byte{}, false)

	case icacheRespondNow:
		line := r.src.ReadLine(r.latchedAddr)
		model.SetICacheRsp(true, r.latchedAddr, line, false)
		r.state = icacheLatchedIdle

	case icacheLatchedIdle:
		model.SetICacheRsp(false, 0, [constants.ICacheLineBytes]byte{}, false)
		r.state = icacheIdle
		if model.ICacheReqValid() {
			r.latchedAddr = model.ICacheReqAddr() &^ uint64(constants.ICacheLineBytes-1)
			r.countdown = r.latency
			r.state = icachePendingWait
		}
	}
}
