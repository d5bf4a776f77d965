package framing

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/LinxISA/LinxCore/internal/commit"
	"github.com/LinxISA/LinxCore/internal/lxerr"
)

// Message is one decoded REF→runner record (§4.F).
type Message struct {
	Kind   Kind
	Start  *StartMsg
	Commit *commit.Record
	End    *EndMsg
}

// Reader scans newline-delimited wire lines from r and decodes them into
// typed Messages.
type Reader struct {
	scanner       *bufio.Scanner
	startDefaults StartDefaults
}

// NewReader constructs a Reader over r, applying the runner's literal
// boot-register defaults to any start record that omits them.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r), startDefaults: DefaultStartDefaults()}
}

// WithStartDefaults overrides the boot-register defaults applied to start
// records decoded by this Reader (§6.3 CLI boot SP/RA override).
func (r *Reader) WithStartDefaults(d StartDefaults) *Reader {
	r.startDefaults = d
	return r
}

// Next reads and decodes the next message. It returns io.EOF once the
// underlying stream is exhausted; any other read failure is wrapped as a
// TransportError and any decode failure as a ProtocolError (§7).
func (r *Reader) Next() (*Message, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, lxerr.WrapError("framing.Read", lxerr.KindTransportError, err)
		}
		return nil, io.EOF
	}

	line := strings.TrimSpace(r.scanner.Text())
	if line == "" {
		return r.Next()
	}

	fields, err := ParseLine(line)
	if err != nil {
		return nil, err
	}
	typ, ok := fields.Type()
	if !ok {
		return nil, lxerr.NewError("framing.Read", lxerr.KindProtocolError, "message missing type field")
	}

	switch Kind(typ) {
	case KindStart:
		start, err := DecodeStart(fields, r.startDefaults)
		if err != nil {
			return nil, err
		}
		return &Message{Kind: KindStart, Start: start}, nil
	case KindCommit:
		rec, err := DecodeCommit(fields)
		if err != nil {
			return nil, err
		}
		return &Message{Kind: KindCommit, Commit: rec}, nil
	case KindEnd:
		end, err := DecodeEnd(fields)
		if err != nil {
			return nil, err
		}
		return &Message{Kind: KindEnd, End: end}, nil
	default:
		return nil, lxerr.NewError("framing.Read", lxerr.KindProtocolError, "unknown message type: "+typ)
	}
}

// Writer writes runner→REF ack lines to w.
type Writer struct {
	w *bufio.Writer
}

// NewWriter constructs a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteAckOk writes an ack_ok line for seq.
func (w *Writer) WriteAckOk(seq uint64) error {
	return w.writeLine(EncodeAckOk(seq))
}

// WriteAckMismatch writes an ack_mismatch line.
func (w *Writer) WriteAckMismatch(seq uint64, field string, refVal, dutVal uint64) error {
	return w.writeLine(EncodeAckMismatch(seq, field, refVal, dutVal))
}

func (w *Writer) writeLine(line string) error {
	if _, err := w.w.WriteString(line + "\n"); err != nil {
		return wrapWriteErr(err)
	}
	if err := w.w.Flush(); err != nil {
		return wrapWriteErr(err)
	}
	return nil
}

// wrapWriteErr classifies a broken-pipe write failure as a TransportError
// the caller is expected to silently ignore (§5 resource discipline, §7
// propagation policy: "writes may be silently ignored for broken pipe").
func wrapWriteErr(err error) error {
	return lxerr.WrapError("framing.Write", lxerr.KindTransportError, err)
}

// IsBrokenPipe reports whether err represents a broken-pipe write failure.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, net.ErrClosed)
}

// Conn bundles a Reader and Writer over one accepted stream connection,
// along with the connection itself for lifecycle management (§5 resource
// discipline).
type Conn struct {
	net.Conn
	*Reader
	*Writer
}

// NewConn wraps an accepted net.Conn with a Reader and Writer.
func NewConn(c net.Conn) *Conn {
	return &Conn{Conn: c, Reader: NewReader(c), Writer: NewWriter(c)}
}

// WithStartDefaults overrides the boot-register defaults applied to start
// records this Conn decodes.
func (c *Conn) WithStartDefaults(d StartDefaults) *Conn {
	c.Reader.WithStartDefaults(d)
	return c
}
