package keymap

import "strings"

// findNamedBlock locates the first top-level `name { ... };` block and
// returns its body, brace-depth aware so nested child nodes (e.g. an
// input-listener's processor subnodes) never truncate the match early.
func findNamedBlock(source, name string) (string, bool) {
	i := 0
	for {
		idx := strings.Index(source[i:], name)
		if idx < 0 {
			return "", false
		}
		start := i + idx
		if !wordBoundary(source, start, start+len(name)) {
			i = start + len(name)
			continue
		}
		j := start + len(name)
		for j < len(source) && (source[j] == ' ' || source[j] == '\t' || source[j] == '\n') {
			j++
		}
		if j >= len(source) || source[j] != '{' {
			i = start + len(name)
			continue
		}
		body, end, ok := scanBraces(source, j)
		if !ok {
			return "", false
		}
		_ = end
		return body, true
	}
}

// wordBoundary reports whether source[start:end] is not glued to an
// identifier character on either side.
func wordBoundary(source string, start, end int) bool {
	if start > 0 && isIdentChar(source[start-1]) {
		return false
	}
	if end < len(source) && isIdentChar(source[end]) {
		return false
	}
	return true
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scanBraces expects source[open] == '{' and returns the content between
// the matching pair, tracking nesting depth, plus the index just past the
// closing brace.
func scanBraces(source string, open int) (string, int, bool) {
	depth := 0
	for k := open; k < len(source); k++ {
		switch source[k] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source[open+1 : k], k + 1, true
			}
		}
	}
	return "", 0, false
}

// topLevelNodes splits body into (label, innerBody) pairs for each
// `ident { ... };` child found at the top nesting level of body, depth
// aware so a node's own nested subnodes are kept intact in its inner body.
func topLevelNodes(body string) []childNode {
	var nodes []childNode
	i := 0
	for i < len(body) {
		for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == ';') {
			i++
		}
		if i >= len(body) {
			break
		}
		nameStart := i
		for i < len(body) && isIdentChar(body[i]) {
			i++
		}
		if i == nameStart {
			// Skip one character we don't understand (e.g. a label colon
			// already consumed, or stray punctuation) and keep scanning.
			i++
			continue
		}
		label := body[nameStart:i]
		for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == ':') {
			i++
		}
		// Skip a second "name: name {" label token, keeping the first.
		if i < len(body) && isIdentChar(body[i]) {
			j := i
			for j < len(body) && isIdentChar(body[j]) {
				j++
			}
			k := j
			for k < len(body) && (body[k] == ' ' || body[k] == '\t' || body[k] == '\n') {
				k++
			}
			if k < len(body) && body[k] == '{' {
				i = k
			}
		}
		for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n') {
			i++
		}
		if i >= len(body) || body[i] != '{' {
			continue
		}
		inner, end, ok := scanBraces(body, i)
		if !ok {
			break
		}
		nodes = append(nodes, childNode{label: label, body: inner})
		i = end
	}
	return nodes
}

type childNode struct {
	label string
	body  string
}
