// Package account defines the identity model for composite accounts:
// the account identifier with its origin trace, the controller/proxy
// address pair, and the governance and module descriptors carried
// through the provisioning protocol.
package account

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TraceSeparator joins the hops of a remote origin path in the
// canonical identifier text, e.g. "ethereum>osmosis-7".
const TraceSeparator = ">"

const localTraceLabel = "local"

const (
	minHopLength = 2
	maxHopLength = 32
	maxHops      = 8
)

// ErrInvalidTrace reports a remote origin path that fails verification.
var ErrInvalidTrace = errors.New("invalid origin trace")

// Trace records where an account originated. A local trace has an empty
// path; a remote trace carries the ordered hop path from the origin
// system to this one.
type Trace struct {
	path []string
}

// LocalTrace returns the trace of a locally created account.
func LocalTrace() Trace {
	return Trace{}
}

// RemoteTrace returns the trace of an account created through the
// remote-origin gateway, with the given hop path.
func RemoteTrace(path ...string) Trace {
	return Trace{path: append([]string(nil), path...)}
}

// IsLocal reports whether the trace denotes local origin.
func (t Trace) IsLocal() bool {
	return len(t.path) == 0
}

// Path returns a copy of the remote hop path, nil for local traces.
func (t Trace) Path() []string {
	if t.IsLocal() {
		return nil
	}
	return append([]string(nil), t.path...)
}

func (t Trace) String() string {
	if t.IsLocal() {
		return localTraceLabel
	}
	return strings.Join(t.path, TraceSeparator)
}

// Verify checks that a remote path is well formed: between 1 and 8
// hops, each hop 2..32 characters of lowercase letters, digits and
// dashes, starting and ending alphanumeric. Local traces always verify.
func (t Trace) Verify() error {
	if t.IsLocal() {
		return nil
	}
	if len(t.path) > maxHops {
		return fmt.Errorf("%w: path has %d hops, maximum is %d", ErrInvalidTrace, len(t.path), maxHops)
	}
	for _, hop := range t.path {
		if err := verifyHop(hop); err != nil {
			return err
		}
	}
	return nil
}

func verifyHop(hop string) error {
	if len(hop) < minHopLength || len(hop) > maxHopLength {
		return fmt.Errorf("%w: hop %q must be %d-%d characters", ErrInvalidTrace, hop, minHopLength, maxHopLength)
	}
	for i, r := range hop {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' && i != 0 && i != len(hop)-1:
		default:
			return fmt.Errorf("%w: hop %q contains invalid character %q", ErrInvalidTrace, hop, r)
		}
	}
	return nil
}

// Equal reports whether two traces denote the same origin.
func (t Trace) Equal(other Trace) bool {
	if len(t.path) != len(other.path) {
		return false
	}
	for i := range t.path {
		if t.path[i] != other.path[i] {
			return false
		}
	}
	return true
}

// MarshalText encodes the trace in its canonical string form.
func (t Trace) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the canonical string form.
func (t *Trace) UnmarshalText(b []byte) error {
	parsed, err := ParseTrace(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTrace parses "local" or a ">"-joined hop path. The result is not
// verified; call Verify where well-formedness matters.
func ParseTrace(s string) (Trace, error) {
	if s == "" {
		return Trace{}, fmt.Errorf("%w: empty trace", ErrInvalidTrace)
	}
	if s == localTraceLabel {
		return LocalTrace(), nil
	}
	return RemoteTrace(strings.Split(s, TraceSeparator)...), nil
}

// ID identifies one account: a sequence number scoped by the origin
// trace. No two accounts share the same (sequence, trace) pair.
type ID struct {
	Sequence uint32
	Trace    Trace
}

// NewLocalID returns a local identifier with the given sequence.
func NewLocalID(sequence uint32) ID {
	return ID{Sequence: sequence, Trace: LocalTrace()}
}

// String renders the canonical identifier text "<trace>-<sequence>",
// e.g. "local-5" or "ethereum>osmosis-7".
func (id ID) String() string {
	return id.Trace.String() + "-" + strconv.FormatUint(uint64(id.Sequence), 10)
}

// Equal reports whether two identifiers name the same account.
func (id ID) Equal(other ID) bool {
	return id.Sequence == other.Sequence && id.Trace.Equal(other.Trace)
}

// IsLocal reports whether the account originated locally.
func (id ID) IsLocal() bool {
	return id.Trace.IsLocal()
}

// MarshalText encodes the identifier in its canonical string form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical string form.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses the canonical identifier text produced by ID.String.
func ParseID(s string) (ID, error) {
	sep := strings.LastIndex(s, "-")
	if sep <= 0 || sep == len(s)-1 {
		return ID{}, fmt.Errorf("malformed account id %q, want <trace>-<sequence>", s)
	}
	trace, err := ParseTrace(s[:sep])
	if err != nil {
		return ID{}, fmt.Errorf("malformed account id %q: %w", s, err)
	}
	seq, err := strconv.ParseUint(s[sep+1:], 10, 32)
	if err != nil {
		return ID{}, fmt.Errorf("malformed account id %q: bad sequence: %w", s, err)
	}
	return ID{Sequence: uint32(seq), Trace: trace}, nil
}

// Base is the address pair that constitutes one account. Immutable once
// both sub-entities exist.
type Base struct {
	Controller string `json:"controller"`
	Proxy      string `json:"proxy"`
}
