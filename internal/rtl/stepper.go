package rtl

import (
	"github.com/LinxISA/LinxCore/internal/commit"
	"github.com/LinxISA/LinxCore/internal/constants"
	"github.com/LinxISA/LinxCore/internal/interfaces"
	"github.com/LinxISA/LinxCore/internal/snapshot"
)

// Outcome classifies what NextCommit produced.
type Outcome int

const (
	OutcomeCommit Outcome = iota
	OutcomeHalt
	OutcomeDeadlock
	OutcomeMaxCycles
)

// DeadlockDebug is the diagnostic snapshot attached to an OutcomeDeadlock
// result (§4.C).
type DeadlockDebug struct {
	Cycle    uint64
	ArchPC   uint64
	FetchPC  uint64
	ROBCount uint32
	ROBHead  ROBHead
}

// Config bundles the stepper's budget-based termination thresholds.
type Config struct {
	DeadlockCycles uint64
	MaxDutCycles   uint64
	ICacheLatency  uint64
}

// DefaultConfig returns the literal defaults named in the runner options.
func DefaultConfig() Config {
	return Config{
		DeadlockCycles: constants.DefaultDeadlockCycle,
		MaxDutCycles:   constants.DefaultMaxDutCycles,
		ICacheLatency:  constants.ICacheLatencyCycles,
	}
}

// snapshotInstructionSource adapts a loaded snapshot image into the
// InstructionSource the I$-L2 responder reads from.
type snapshotInstructionSource struct {
	img *snapshot.Image
}

func (s *snapshotInstructionSource) ReadLine(lineAddr uint64) [constants.ICacheLineBytes]byte {
	var out [constants.ICacheLineBytes]byte
	for i := 0; i < constants.ICacheLineBytes; i++ {
		hostOff := s.img.Mapper.Map(lineAddr + uint64(i))
		b, err := s.img.Mem.PeekAt(hostOff, 1)
		if err == nil && len(b) == 1 {
			out[i] = b[0]
		}
	}
	return out
}

// Stepper drives a Model one cycle at a time, models the I$-L2 refill
// responder, and extracts commit records into an ordered retire queue
// (§4.C).
type Stepper struct {
	model    Model
	icache   *ICacheResponder
	cfg      Config
	observer interfaces.Observer

	stallCycles uint64
	queue       []*commit.Record
}

// NewStepper constructs a Stepper over model, serving I$-L2 refills from
// the given loaded snapshot, with the given termination budgets.
func NewStepper(model Model, img *snapshot.Image, cfg Config, observer interfaces.Observer) *Stepper {
	if observer == nil {
		observer = interfaces.NoOpObserver{}
	}
	src := &snapshotInstructionSource{img: img}
	return &Stepper{
		model:    model,
		icache:   NewICacheResponder(src, cfg.ICacheLatency),
		cfg:      cfg,
		observer: observer,
	}
}

// Init resets the model with the given boot inputs.
func (s *Stepper) Init(bootPC, bootSP, bootRA uint64) {
	s.model.Reset(bootPC, bootSP, bootRA)
}

// PendingCommits returns (without removing) the commits currently buffered
// in the retire queue.
func (s *Stepper) PendingCommits() []*commit.Record {
	out := make([]*commit.Record, len(s.queue))
	copy(out, s.queue)
	return out
}

// PeekMem peeks size bytes of data memory at a guest address.
func (s *Stepper) PeekMem(addr uint64, size int) []byte {
	return s.model.PeekDMem(addr, size)
}

// PeekIMem peeks size bytes of instruction memory at a guest address.
func (s *Stepper) PeekIMem(addr uint64, size int) []byte {
	return s.model.PeekIMem(addr, size)
}

// tick advances the model by one cycle, sampling the I$-L2 handshake both
// before and after, and extracts any lane commits into the retire queue.
func (s *Stepper) tick() {
	s.icache.PreTick(s.model)
	s.model.Tick()
	s.icache.PostTick(s.model)

	lanes := s.model.Lanes()
	if !ValidateLaneROBOrder(lanes) {
		s.observer.ObserveMismatch("rob_order")
	}

	cycle := s.model.Cycles()
	fired := false
	var fireMask uint8
	var pcs [constants.LaneCount]uint64
	for i := 0; i < constants.LaneCount; i++ {
		l := lanes[i]
		pcs[i] = l.PC
		if !l.Fire {
			continue
		}
		fired = true
		fireMask |= 1 << uint(i)
		s.queue = append(s.queue, laneToRecord(l, cycle))
		if l.MemValid && l.MemIsStore {
			s.observer.ObserveStore(cycle, l.MemAddr, l.MemSize, l.MemWData)
		}
	}

	if fired {
		s.stallCycles = 0
		s.observer.ObserveDispatch(cycle, fireMask, pcs)
	} else {
		s.stallCycles++
	}
	s.observer.ObserveCycle(cycle)
}

func laneToRecord(l LaneSignals, cycle uint64) *commit.Record {
	return &commit.Record{
		PC:   l.PC,
		Len:  constants.NormalizeLen(l.Len),
		Insn: l.InsnRaw,

		WBValid: l.WBValid,
		WBRd:    l.WBRd,
		WBData:  l.WBData,

		MemValid:   l.MemValid,
		MemIsStore: l.MemIsStore,
		MemAddr:    l.MemAddr,
		MemWData:   l.MemWData,
		MemRData:   l.MemRData,
		MemSize:    l.MemSize,

		TrapValid: l.TrapValid,
		TrapCause: l.TrapCause,
		TrapArg0:  l.TrapArg0,

		NextPC: l.NextPC,

		Cycle:     cycle,
		ROBIndex:  l.ROB,
		UopUID:    l.UopUID,
		ParentUID: l.ParentUID,
		BlockUID:  l.BlockUID,
		BlockBID:  l.BlockBID,
		IsBStart:  l.IsBStart,
		IsBStop:   l.IsBStop,
	}
}

// NextCommit drains the retire queue, stepping the model as needed, until a
// commit is available or a terminal condition (Halt, Deadlock, MaxCycles)
// is reached.
func (s *Stepper) NextCommit() (*commit.Record, Outcome, *DeadlockDebug) {
	for {
		if len(s.queue) > 0 {
			rec := s.queue[0]
			s.queue = s.queue[1:]
			return rec, OutcomeCommit, nil
		}

		if s.model.Halted() || s.model.MMIOExitValid() {
			return nil, OutcomeHalt, nil
		}

		if s.stallCycles >= s.cfg.DeadlockCycles {
			s.observer.ObserveDeadlock(s.model.Cycles())
			head := s.model.ROBHead()
			return nil, OutcomeDeadlock, &DeadlockDebug{
				Cycle:    s.model.Cycles(),
				FetchPC:  head.PC,
				ROBCount: s.model.ROBCount(),
				ROBHead:  head,
			}
		}

		if s.model.Cycles() >= s.cfg.MaxDutCycles {
			return nil, OutcomeMaxCycles, nil
		}

		s.tick()
	}
}
