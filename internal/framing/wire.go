// Package framing implements the REF⇄runner wire protocol (§4.F, §6.2): a
// single stream connection carrying newline-delimited, flat key/value
// records. The on-wire shape reads like minimal JSON, but the line scanner
// and key/value extraction below are hand-rolled — this is a deliberately
// minimal, dependency-free wire format, not a document format, so no
// general-purpose JSON library is involved.
package framing

import (
	"strconv"
	"strings"

	"github.com/LinxISA/LinxCore/internal/lxerr"
)

// Fields is the parsed key/value set of one wire line, values still in
// their raw (quote-trimmed) string form.
type Fields map[string]string

// ParseLine tokenizes one line on top-level commas (quote-aware, so a
// quoted value may itself contain a comma), splits each token on its first
// colon, and trims surrounding whitespace and quotes from both key and
// value. An optional enclosing pair of braces is tolerated and stripped.
func ParseLine(line string) (Fields, error) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "{")
	line = strings.TrimSuffix(line, "}")
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, lxerr.NewError("framing.ParseLine", lxerr.KindProtocolError, "empty line")
	}

	fields := make(Fields)
	for _, tok := range splitTopLevelCommas(line) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		idx := strings.IndexByte(tok, ':')
		if idx < 0 {
			return nil, lxerr.NewError("framing.ParseLine", lxerr.KindProtocolError, "malformed token (no colon): "+tok)
		}
		key := trimQuotes(strings.TrimSpace(tok[:idx]))
		val := trimQuotes(strings.TrimSpace(tok[idx+1:]))
		fields[key] = val
	}
	return fields, nil
}

// splitTopLevelCommas splits s on commas that are not inside a quoted
// value.
func splitTopLevelCommas(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// Type returns the record's "type" field.
func (f Fields) Type() (string, bool) {
	v, ok := f["type"]
	return v, ok
}

// String returns the raw string value for key.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// Uint64 parses the value for key as an unsigned integer, accepting either
// decimal or a 0x/0X-prefixed hex literal (§6.2).
func (f Fields) Uint64(key string) (uint64, error) {
	v, ok := f[key]
	if !ok {
		return 0, lxerr.NewError("framing.Uint64", lxerr.KindProtocolError, "missing required field: "+key)
	}
	n, err := parseUint(v)
	if err != nil {
		return 0, lxerr.NewError("framing.Uint64", lxerr.KindProtocolError, "field "+key+": "+err.Error())
	}
	return n, nil
}

// OptUint64 returns the parsed value for key, or def if the key is absent
// or unparsable.
func (f Fields) OptUint64(key string, def uint64) uint64 {
	v, ok := f[key]
	if !ok || v == "" {
		return def
	}
	n, err := parseUint(v)
	if err != nil {
		return def
	}
	return n
}

// NillableUint64 returns a pointer to the parsed value for key, or nil if
// the key is absent — used for fields whose presence is itself meaningful
// (e.g. terminate_pc, §3 session state).
func (f Fields) NillableUint64(key string) (*uint64, error) {
	v, ok := f[key]
	if !ok {
		return nil, nil
	}
	n, err := parseUint(v)
	if err != nil {
		return nil, lxerr.NewError("framing.NillableUint64", lxerr.KindProtocolError, "field "+key+": "+err.Error())
	}
	return &n, nil
}

// Bool interprets the value for key as a boolean: "1"/"true" is true,
// anything else (including absence) is false.
func (f Fields) Bool(key string) bool {
	switch f[key] {
	case "1", "true", "True", "TRUE":
		return true
	default:
		return false
	}
}

func parseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
