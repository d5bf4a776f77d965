// Package orchestrator drives the per-connection lockstep session state
// machine: reading REF records off the wire, pulling matching DUT commits
// out of the stepper, comparing them, and acking or failing the session
// (§4.G).
package orchestrator

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/LinxISA/LinxCore/internal/commit"
	"github.com/LinxISA/LinxCore/internal/diagnostics"
	"github.com/LinxISA/LinxCore/internal/framing"
	"github.com/LinxISA/LinxCore/internal/logging"
	"github.com/LinxISA/LinxCore/internal/lxerr"
	"github.com/LinxISA/LinxCore/internal/rtl"
	"github.com/LinxISA/LinxCore/internal/snapshot"
)

// State names the session's position in the lockstep state machine.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinishing
	StateFaulted
	StateImplicitEnd
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinishing:
		return "finishing"
	case StateFaulted:
		return "faulted"
	case StateImplicitEnd:
		return "implicit_end"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Options bundles the session-level knobs surfaced on the CLI (§6.3).
type Options struct {
	MemoryDepth               uint64
	AcceptMaxCommitsAsSuccess bool
	// ForceMismatch synthesizes a mismatch on the first otherwise-matching
	// commit pair, exercising the report path without a genuinely broken
	// DUT (diagnostic-only; never set in normal operation).
	ForceMismatch bool
	DisasmTool    string
	DisasmSpec    string
}

// DefaultOptions returns the runner's literal defaults.
func DefaultOptions() Options {
	return Options{MemoryDepth: 1 << 24}
}

// ModelFactory constructs a fresh RTL model for one session. Supplied by the
// caller (the root Run entry point) so the orchestrator stays free of any
// concrete Model implementation.
type ModelFactory func() (rtl.Model, error)

// Result is the terminal outcome of one session.
type Result struct {
	ExitCategory lxerr.ExitCategory
	Reason       string
	Report       *diagnostics.MismatchReport
}

// Session drives one accepted connection's lockstep protocol from start to
// finish.
type Session struct {
	conn    *framing.Conn
	newMdl  ModelFactory
	stepCfg rtl.Config
	diag    *diagnostics.Diagnostics
	log     *logging.Logger
	opts    Options

	state             State
	expectedSeq       uint64
	activeTerminatePC *uint64
	stepper           *rtl.Stepper

	forcedMismatchDone bool
}

// nextSessionID numbers sessions for log correlation, the way this
// lineage numbers queues and devices (e.g. queue/runner.go's queueID).
var nextSessionID atomic.Uint64

// NewSession constructs a Session over an accepted connection.
func NewSession(conn *framing.Conn, newModel ModelFactory, stepCfg rtl.Config, log *logging.Logger, opts Options) *Session {
	if log == nil {
		log = logging.Default()
	}
	id := nextSessionID.Add(1)
	log = log.WithSession(fmt.Sprintf("%d", id))
	return &Session{
		conn:    conn,
		newMdl:  newModel,
		stepCfg: stepCfg,
		diag:    diagnostics.New(),
		log:     log,
		opts:    opts,
		state:   StateIdle,
	}
}

// Diagnostics returns the session's diagnostics component, for callers that
// want to inspect it after Run returns (e.g. to render a mismatch report).
func (s *Session) Diagnostics() *diagnostics.Diagnostics { return s.diag }

// Run drives the session to completion: reading the start record, looping
// over commit/ack exchanges, and reconciling the end-of-window. It returns
// once the connection reaches a terminal state.
func (s *Session) Run() (*Result, error) {
	for {
		msg, err := s.conn.Next()
		if err == io.EOF {
			return s.handleImplicitEnd()
		}
		if err != nil {
			s.state = StateFaulted
			return nil, lxerr.WrapError("orchestrator.Run", lxerr.KindTransportError, err)
		}

		switch msg.Kind {
		case framing.KindStart:
			if s.state != StateIdle {
				s.state = StateFaulted
				return nil, lxerr.NewError("orchestrator.Run", lxerr.KindProtocolError, "start received outside idle state")
			}
			res, err := s.handleStart(msg.Start)
			if err != nil {
				s.state = StateFaulted
				return nil, err
			}
			if res != nil {
				s.state = StateDone
				return res, nil
			}
			s.state = StateRunning

		case framing.KindCommit:
			if s.state != StateRunning {
				s.state = StateFaulted
				return nil, lxerr.NewError("orchestrator.Run", lxerr.KindProtocolError, "commit received outside running state")
			}
			res, err := s.handleCommit(msg.Commit)
			if err != nil {
				s.state = StateFaulted
				return nil, err
			}
			if res != nil {
				s.state = StateDone
				return res, nil
			}

		case framing.KindEnd:
			if s.state != StateRunning {
				s.state = StateFaulted
				return nil, lxerr.NewError("orchestrator.Run", lxerr.KindProtocolError, "end received outside running state")
			}
			s.state = StateFinishing
			res, err := s.handleEnd(msg.End)
			if err != nil {
				s.state = StateFaulted
				return nil, err
			}
			s.state = StateDone
			return res, nil
		}
	}
}

// handleStart applies a start record. A non-nil Result signals the session
// terminated immediately (the boot_pc/trigger_pc mismatch check below); a
// non-nil error signals a hard fault.
func (s *Session) handleStart(start *framing.StartMsg) (*Result, error) {
	if start.BootPC != start.TriggerPC {
		if err := s.conn.WriteAckMismatch(0, "trigger_pc_boot_pc", start.TriggerPC, start.BootPC); err != nil && !framing.IsBrokenPipe(err) {
			return nil, err
		}
		return &Result{ExitCategory: lxerr.ExitMismatch, Reason: "trigger_pc_boot_pc"}, nil
	}

	img, err := snapshot.Load(start.SnapshotPath, s.opts.MemoryDepth)
	if err != nil {
		return nil, err
	}

	model, err := s.newMdl()
	if err != nil {
		return nil, lxerr.WrapError("orchestrator.handleStart", lxerr.KindSnapshotError, err)
	}

	s.stepper = rtl.NewStepper(model, img, s.stepCfg, s.diag)
	s.stepper.Init(start.BootPC, start.BootSP, start.BootRA)
	s.expectedSeq = start.SeqBase
	s.activeTerminatePC = start.TerminatePC
	return nil, nil
}

// nextDutNonMetadata drains the stepper until a non-metadata commit
// surfaces, or a terminal stepper outcome is reached.
func (s *Session) nextDutNonMetadata() (*commit.Record, rtl.Outcome, *rtl.DeadlockDebug) {
	for {
		rec, outcome, debug := s.stepper.NextCommit()
		if outcome != rtl.OutcomeCommit {
			return nil, outcome, debug
		}
		if commit.IsMetadata(rec) {
			continue
		}
		return rec, rtl.OutcomeCommit, nil
	}
}

// handleCommit processes one REF commit record. A non-nil Result signals the
// session terminated (successfully or otherwise) from within this call; a
// non-nil error signals a hard fault.
func (s *Session) handleCommit(ref *commit.Record) (*Result, error) {
	if ref.Seq != s.expectedSeq {
		return nil, lxerr.NewError("orchestrator.handleCommit", lxerr.KindProtocolError,
			fmt.Sprintf("seq out of order: expected %d got %d", s.expectedSeq, ref.Seq))
	}
	s.expectedSeq++

	if commit.IsMetadata(ref) {
		if err := s.conn.WriteAckOk(ref.Seq); err != nil && !framing.IsBrokenPipe(err) {
			return nil, err
		}
		return nil, nil
	}

	dut, outcome, debug := s.nextDutNonMetadata()
	switch outcome {
	case rtl.OutcomeHalt:
		return s.faultResult(lxerr.KindDutTerminatedEarly, "dut halted before matching ref commit")
	case rtl.OutcomeDeadlock:
		return s.faultResult(lxerr.KindDutDeadlock, fmt.Sprintf("dut deadlocked at cycle %d (fetch_pc=%#x, rob_count=%d, rob_head_pc=%#x, rob_head_op=%#x)",
			debug.Cycle, debug.FetchPC, debug.ROBCount, debug.ROBHead.PC, debug.ROBHead.Op))
	case rtl.OutcomeMaxCycles:
		return s.faultResult(lxerr.KindDutMaxCycles, "dut exceeded max_dut_cycles before matching ref commit")
	}

	dut.Seq = ref.Seq

	mismatch := commit.Compare(ref, dut)
	if mismatch == nil && s.opts.ForceMismatch && !s.forcedMismatchDone {
		s.forcedMismatchDone = true
		mismatch = &commit.Mismatch{Field: "forced", Ref: ref.PC, Dut: dut.PC}
	}

	if mismatch != nil {
		if err := s.conn.WriteAckMismatch(ref.Seq, mismatch.Field, mismatch.Ref, mismatch.Dut); err != nil && !framing.IsBrokenPipe(err) {
			return nil, err
		}
		report := diagnostics.BuildMismatchReport(s.diag, mismatch.Field, mismatch.Ref, mismatch.Dut, ref, dut, s.stepper)
		return &Result{
			ExitCategory: lxerr.ExitMismatch,
			Reason:       "compare_mismatch",
			Report:       report,
		}, nil
	}

	if err := s.conn.WriteAckOk(ref.Seq); err != nil && !framing.IsBrokenPipe(err) {
		return nil, err
	}
	s.diag.RecordMatched(ref, dut)
	return nil, nil
}

func (s *Session) faultResult(kind lxerr.Kind, msg string) (*Result, error) {
	return nil, lxerr.NewError("orchestrator.handleCommit", kind, msg)
}

// handleEnd drains any DUT-buffered commits remaining once the REF declares
// its stream done, applying the terminate-PC tail exception for strict end
// reasons (§4.G).
func (s *Session) handleEnd(end *framing.EndMsg) (*Result, error) {
	strict := framing.IsStrictEnd(end.Reason)
	tailTolerated := false

	for _, rec := range s.stepper.PendingCommits() {
		if commit.IsMetadata(rec) {
			continue
		}

		if !strict {
			s.log.WithCycle(rec.Cycle).Warnf("trailing non-metadata dut commit after %s end: pc=%#x", end.Reason, rec.PC)
			continue
		}

		last := s.diag.LastMatched()
		if !tailTolerated && !rec.TrapValid && s.activeTerminatePC != nil && last != nil &&
			last.Ref.PC == *s.activeTerminatePC && rec.Cycle == last.Dut.Cycle {
			tailTolerated = true
			continue
		}

		return nil, lxerr.NewError("orchestrator.handleEnd", lxerr.KindExtraDutCommits,
			fmt.Sprintf("unmatched trailing dut commit at pc=%#x after %s end", rec.PC, end.Reason))
	}

	if !strict && !(s.opts.AcceptMaxCommitsAsSuccess && end.Reason == "max_commits") {
		return &Result{ExitCategory: lxerr.ExitOtherEnd, Reason: end.Reason}, nil
	}

	return &Result{ExitCategory: lxerr.ExitSuccess, Reason: end.Reason}, nil
}

// handleImplicitEnd handles the REF closing its socket mid-session: any
// already-buffered non-metadata DUT commit is unmatched extra work, anything
// else is treated as an implicit guest_exit (§4.G).
func (s *Session) handleImplicitEnd() (*Result, error) {
	if s.state != StateRunning {
		if s.state == StateIdle {
			return nil, lxerr.NewError("orchestrator.Run", lxerr.KindTransportError, "connection closed before start")
		}
		return &Result{ExitCategory: lxerr.ExitSuccess, Reason: "closed"}, nil
	}
	s.state = StateImplicitEnd

	for _, rec := range s.stepper.PendingCommits() {
		if !commit.IsMetadata(rec) {
			return nil, lxerr.NewError("orchestrator.handleImplicitEnd", lxerr.KindExtraDutCommits,
				fmt.Sprintf("dut has unmatched pending commit at pc=%#x after socket close", rec.PC))
		}
	}

	return &Result{ExitCategory: lxerr.ExitSuccess, Reason: "implicit_guest_exit"}, nil
}
