package report

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxMessageLen = 1024

// Sanitizer rewrites a report message before it leaves the process.
type Sanitizer interface {
	Name() string
	Sanitize(string) string
}

// Chain applies registered sanitizers in order.
type Chain struct {
	sanitizers []Sanitizer
}

// NewChain returns a chain with the default sanitizers: bearer-token
// redaction, newline collapsing, and truncation.
func NewChain() *Chain {
	c := &Chain{}
	c.Register(RedactBearer{})
	c.Register(CollapseLines{})
	c.Register(Truncate{Max: maxMessageLen})
	return c
}

func (c *Chain) Register(s Sanitizer) {
	c.sanitizers = append(c.sanitizers, s)
}

func (c *Chain) Apply(msg string) string {
	for _, s := range c.sanitizers {
		msg = s.Sanitize(msg)
	}
	return msg
}

var bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`)

// RedactBearer removes bearer tokens that leak into error text, e.g. from
// a dumped request.
type RedactBearer struct{}

func (RedactBearer) Name() string { return "redact_bearer" }
func (RedactBearer) Sanitize(msg string) string {
	return bearerPattern.ReplaceAllString(msg, "Bearer [redacted]")
}

// CollapseLines keeps one event per line in the report log.
type CollapseLines struct{}

func (CollapseLines) Name() string { return "collapse_lines" }
func (CollapseLines) Sanitize(msg string) string {
	msg = strings.ReplaceAll(msg, "\r", " ")
	return strings.ReplaceAll(msg, "\n", " ")
}

// Truncate bounds the message length.
type Truncate struct {
	Max int
}

func (Truncate) Name() string { return "truncate" }
func (t Truncate) Sanitize(msg string) string {
	if t.Max <= 0 || len(msg) <= t.Max {
		return msg
	}
	// back off to a rune boundary so the cut never emits a partial
	// UTF-8 sequence
	cut := t.Max
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}
