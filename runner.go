package linxcore

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/LinxISA/LinxCore/internal/framing"
	"github.com/LinxISA/LinxCore/internal/logging"
	"github.com/LinxISA/LinxCore/internal/lxerr"
	"github.com/LinxISA/LinxCore/internal/orchestrator"
	"github.com/LinxISA/LinxCore/internal/rtl"
)

// ModelFactory constructs a fresh RTL Model for one accepted session. The
// CLI supplies DutModelFactory (which reports that no compiled model is
// linked) or, in -stub mode, StubModelFactory; tests and testsupport supply
// rtl.StubModel.
type ModelFactory = orchestrator.ModelFactory

// Runner listens for a single REF connection at a time and drives each one
// to completion through the session orchestrator (§4.G, §5).
type Runner struct {
	cfg      Config
	newModel ModelFactory
	log      *logging.Logger
}

// NewRunner constructs a Runner bound to cfg, using newModel to build the
// RTL black box for each accepted session.
func NewRunner(cfg Config, newModel ModelFactory, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Default()
	}
	return &Runner{cfg: cfg, newModel: newModel, log: log}
}

// Listen opens the runner's listening socket, preparing it for Accept. The
// socket path is removed first if it already exists (a stale socket from a
// prior crashed run), mirroring this lineage's device-lifecycle cleanup
// ordering (§5).
func (r *Runner) Listen() (net.Listener, error) {
	_ = os.Remove(r.cfg.SocketPath)
	ln, err := net.Listen("unix", r.cfg.SocketPath)
	if err != nil {
		return nil, lxerr.WrapError("linxcore.Listen", lxerr.KindTransportError, err)
	}
	return ln, nil
}

// Serve accepts exactly one REF connection from ln, runs it to completion,
// and returns the terminal Result. Serve ignores SIGPIPE for its duration
// (§5) so a REF crash during ack write cannot kill the runner, and, when
// CPUAffinity is set, pins the calling goroutine's OS thread for
// cycle-timing determinism while the session drives the DUT.
//
// ctx is honored only as an early-teardown signal for the caller (e.g. a
// CLI's SIGINT/SIGTERM handler, or a test's deadline): the core loop itself
// terminates on protocol/session outcomes, not on context cancellation.
func (r *Runner) Serve(ctx context.Context, ln net.Listener) (*orchestrator.Result, error) {
	signal.Ignore(syscall.SIGPIPE)

	if r.cfg.CPUAffinity != nil {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := pinCPU(*r.cfg.CPUAffinity); err != nil {
			r.log.Warnf("cpu affinity pin failed: %v", err)
		}
	}

	acceptDone := make(chan struct{})
	var conn net.Conn
	var acceptErr error
	go func() {
		conn, acceptErr = ln.Accept()
		close(acceptDone)
	}()

	select {
	case <-ctx.Done():
		ln.Close()
		<-acceptDone
		return nil, lxerr.WrapError("linxcore.Serve", lxerr.KindTransportError, ctx.Err())
	case <-acceptDone:
	}
	if acceptErr != nil {
		return nil, lxerr.WrapError("linxcore.Serve", lxerr.KindTransportError, acceptErr)
	}
	defer conn.Close()

	frame := framing.NewConn(conn).WithStartDefaults(framing.StartDefaults{
		BootSP: r.cfg.BootSP,
		BootRA: r.cfg.BootRA,
	})

	sess := orchestrator.NewSession(frame, r.newModel, r.cfg.stepperConfig(), r.log, r.cfg.orchestratorOptions())

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stopWatch:
		}
	}()

	res, err := sess.Run()
	if err != nil {
		var le *lxerr.Error
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, lxerr.WrapError("linxcore.Serve", lxerr.KindTransportError, err)
	}
	return res, nil
}

// ListenAndServe is the convenience entry point combining Listen and Serve
// for one connection, closing the listener on every exit path.
func (r *Runner) ListenAndServe(ctx context.Context) (*orchestrator.Result, error) {
	ln, err := r.Listen()
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	return r.Serve(ctx, ln)
}

// StubModelFactory returns a ModelFactory producing a fresh rtl.StubModel
// sized to cfg.MemoryDepth, for running the server without a compiled RTL
// artifact (tests, examples, and the CLI's `-stub` mode).
func StubModelFactory(cfg Config) ModelFactory {
	return func() (rtl.Model, error) {
		depth := int(cfg.MemoryDepth)
		return rtl.NewStubModel(nil, depth, depth), nil
	}
}

// DutModelFactory returns a ModelFactory for the production RTL black box
// (§6.4). This module treats the DUT itself as an external collaborator
// (§1): no compiled artifact ships with it, so this factory reports that
// plainly rather than fabricate one. A caller linking against a real
// compiled RTL model supplies its own rtl.Model implementation to NewRunner
// directly instead of going through this factory.
func DutModelFactory() ModelFactory {
	return func() (rtl.Model, error) {
		return nil, lxerr.NewError("linxcore.DutModelFactory", lxerr.KindProtocolError,
			"no compiled DUT model is linked into this binary; pass -stub, or build with a ModelFactory backed by a real rtl.Model")
	}
}
