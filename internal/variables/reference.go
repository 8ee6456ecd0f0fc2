// Package variables implements the `${...}` reference grammar used inside
// layout documents (spec §4.2, component B): plain references, dotted
// subkey access, array indexing, and `:default` fallbacks, resolved against
// a layout's `variables` map with lazy chain resolution and cycle
// detection. New code: the teacher has no analogous interpreter, so this is
// grounded directly in spec §4.2 and the reference resolution semantics
// described by original_source's variable test fixtures.
package variables

import "strings"

// accessorKind distinguishes a dotted-subkey step from an array-index step.
type accessorKind int

const (
	accessSubkey accessorKind = iota
	accessIndex
)

type accessor struct {
	kind   accessorKind
	subkey string
	index  int
}

// reference is one parsed `${...}` token found inside a raw string.
type reference struct {
	start, end int // byte offsets into the source string, end exclusive
	name       string
	accessors  []accessor
	hasDefault bool
	defaultVal string
	raw        string // the full "${...}" text, for error messages
}

// path renders the reference's variable path for error messages, e.g.
// "host.port" or "items[0]".
func (r reference) path() string {
	var sb strings.Builder
	sb.WriteString(r.name)
	for _, a := range r.accessors {
		switch a.kind {
		case accessSubkey:
			sb.WriteByte('.')
			sb.WriteString(a.subkey)
		case accessIndex:
			sb.WriteByte('[')
			sb.WriteString(itoa(a.index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// parseReferences scans raw for every top-level `${...}` token. Braces
// nest for matching purposes (so a stray `{` inside a default value
// doesn't truncate the token early), but the grammar itself never produces
// nested `${` references inside a default.
func parseReferences(raw string) []reference {
	var refs []reference
	i := 0
	for i < len(raw) {
		start := strings.Index(raw[i:], "${")
		if start < 0 {
			break
		}
		start += i
		depth := 1
		j := start + 2
		for j < len(raw) && depth > 0 {
			switch raw[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				break
			}
			j++
		}
		if depth != 0 {
			// unterminated reference; stop scanning
			break
		}
		body := raw[start+2 : j]
		ref := parseReferenceBody(body)
		ref.start, ref.end = start, j+1
		ref.raw = raw[start : j+1]
		refs = append(refs, ref)
		i = j + 1
	}
	return refs
}

// parseReferenceBody parses the content between `${` and the matching `}`:
// name, then any number of `.subkey` / `[index]` accessors, then an
// optional `:default` whose text runs verbatim to the end (defaults are
// not themselves re-parsed for nested references).
func parseReferenceBody(body string) reference {
	var ref reference
	i := 0
	nameEnd := i
	for nameEnd < len(body) {
		c := body[nameEnd]
		if c == '.' || c == '[' || c == ':' {
			break
		}
		nameEnd++
	}
	ref.name = body[i:nameEnd]
	i = nameEnd

	for i < len(body) {
		switch body[i] {
		case '.':
			i++
			start := i
			for i < len(body) && body[i] != '.' && body[i] != '[' && body[i] != ':' {
				i++
			}
			ref.accessors = append(ref.accessors, accessor{kind: accessSubkey, subkey: body[start:i]})
		case '[':
			i++
			start := i
			for i < len(body) && body[i] != ']' {
				i++
			}
			idx := atoi(body[start:i])
			if i < len(body) {
				i++ // consume ']'
			}
			ref.accessors = append(ref.accessors, accessor{kind: accessIndex, index: idx})
		case ':':
			ref.hasDefault = true
			ref.defaultVal = body[i+1:]
			i = len(body)
		default:
			// stray character; stop parsing further accessors
			i = len(body)
		}
	}
	return ref
}

func atoi(s string) int {
	n := 0
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

// isWholeReference reports whether refs contains exactly one reference
// spanning the entirety of raw, the case in which type is preserved rather
// than stringified (spec §4.2 "Type preservation").
func isWholeReference(raw string, refs []reference) (reference, bool) {
	if len(refs) == 1 && refs[0].start == 0 && refs[0].end == len(raw) {
		return refs[0], true
	}
	return reference{}, false
}
