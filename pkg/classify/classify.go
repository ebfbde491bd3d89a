package classify

import (
	"bufio"
	"fmt"
	"io"
	"iter"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxChunkSize bounds a single chunk read from the downloader.
const DefaultMaxChunkSize = 1 * 1024 * 1024 // 1MB

// Classifier applies an ordered rule set to chunks of output.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules        []Rule
	maxChunkSize int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMaxChunkSize sets the largest chunk the scanner accepts.
// Values <= 0 keep the default.
func WithMaxChunkSize(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxChunkSize = n
		}
	}
}

// New creates a classifier for rules, tried in slice order.
func New(rules []Rule, opts ...Option) *Classifier {
	c := &Classifier{
		rules:        rules,
		maxChunkSize: DefaultMaxChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default returns a classifier for DefaultRules.
func Default(opts ...Option) *Classifier {
	return New(DefaultRules(), opts...)
}

// Classify returns the event of the first rule matching chunk.
// It reports false when no rule matches.
func (c *Classifier) Classify(chunk string) (Event, bool) {
	for _, rule := range c.rules {
		groups := rule.Pattern.FindStringSubmatch(chunk)
		if groups == nil {
			continue
		}
		return rule.Extract(groups), true
	}
	return nil, false
}

// Events lazily classifies r chunk by chunk. Only matching chunks are
// yielded, in arrival order. A read failure is yielded once as a non-nil
// error and ends the sequence. The sequence is single-pass.
func (c *Classifier) Events(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		decoded := transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
		scanner := bufio.NewScanner(decoded)
		buf := make([]byte, 0, min(c.maxChunkSize, 4096))
		scanner.Buffer(buf, c.maxChunkSize)
		scanner.Split(ScanChunks)

		for scanner.Scan() {
			chunk := scanner.Text()
			if chunk == "" {
				continue
			}
			ev, ok := c.Classify(chunk)
			if !ok {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("reading output: %w", err))
		}
	}
}

// Transform feeds every event classified from r into sink and returns the
// number of events emitted. It stops at the first read or sink error.
func (c *Classifier) Transform(r io.Reader, sink Sink) (int, error) {
	var n int
	for ev, err := range c.Events(r) {
		if err != nil {
			return n, err
		}
		if err := sink.Emit(ev); err != nil {
			return n, fmt.Errorf("emitting %s event: %w", ev.EventType(), err)
		}
		n++
	}
	return n, nil
}
