package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/dkoosis/dlpstream/pkg/classify"
)

// replay decodes one JSON event per line from r and emits each to sink.
// Lines that do not decode to a known event are counted and skipped.
func replay(r io.Reader, sink classify.Sink, maxLine int) (malformed int, err error) {
	if maxLine <= 0 {
		maxLine = classify.DefaultMaxChunkSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(maxLine, 64*1024)), maxLine)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, perr := classify.ParseEvent(line)
		if perr != nil {
			malformed++
			continue
		}
		if err := sink.Emit(ev); err != nil {
			return malformed, fmt.Errorf("writing %s event: %w", ev.EventType(), err)
		}
	}
	if err := scanner.Err(); err != nil {
		return malformed, fmt.Errorf("reading events: %w", err)
	}
	return malformed, nil
}
