package progress

import "regexp"

// Middleware processes one line of container output, returning the line
// (optionally annotated) and whether it should continue to be shown to
// the caller. A middleware may have side effects (e.g. updating a
// Coordinator) independent of its return value (spec §4.9).
type Middleware interface {
	Process(line string) (out string, keep bool)
}

// MiddlewareFunc adapts a plain function to Middleware.
type MiddlewareFunc func(line string) (string, bool)

// Process implements Middleware.
func (f MiddlewareFunc) Process(line string) (string, bool) { return f(line) }

// Chain runs an ordered list of middlewares over each line, short-
// circuiting as soon as one of them drops the line.
type Chain struct {
	middlewares []Middleware
}

// NewChain builds a Chain. The compilation-progress middleware
// (CoordinatorMiddleware) is expected to be included by the caller; it
// is not implicitly added here so that tests can exercise a Chain
// without a live Coordinator.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Process runs line through every middleware in order.
func (c *Chain) Process(line string) (string, bool) {
	keep := true
	for _, m := range c.middlewares {
		if !keep {
			break
		}
		line, keep = m.Process(line)
	}
	return line, keep
}

// CoordinatorMiddleware feeds every line to a Coordinator and always
// keeps it unchanged; it is the "always present" middleware spec §4.9
// describes.
type CoordinatorMiddleware struct {
	Coordinator *Coordinator
}

// Process implements Middleware.
func (m CoordinatorMiddleware) Process(line string) (string, bool) {
	m.Coordinator.ProcessLine(line)
	return line, true
}

// defaultNoisePatterns drops lines that carry no useful signal for an
// interactive progress display.
var defaultNoisePatterns = []string{
	`^Pulling from `,
	`^Digest: sha256:`,
	`^Status: (Image is up to date|Downloaded newer image)`,
}

// LogFilterMiddleware drops lines matching any of its noise patterns.
type LogFilterMiddleware struct {
	patterns []*regexp.Regexp
}

// NewLogFilterMiddleware compiles the given patterns, falling back to
// defaultNoisePatterns when none are supplied.
func NewLogFilterMiddleware(patterns ...string) (*LogFilterMiddleware, error) {
	if len(patterns) == 0 {
		patterns = defaultNoisePatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &LogFilterMiddleware{patterns: compiled}, nil
}

// Process implements Middleware.
func (m *LogFilterMiddleware) Process(line string) (string, bool) {
	for _, re := range m.patterns {
		if re.MatchString(line) {
			return line, false
		}
	}
	return line, true
}
