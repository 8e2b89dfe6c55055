package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"substweet/internal/captions"
	"substweet/internal/publisher"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// progressPrinter writes one line per caption before work starts and one
// result line after the publish attempt.
type progressPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

func newProgressPrinter(out io.Writer, color bool) *progressPrinter {
	return &progressPrinter{out: out, color: color}
}

func (p *progressPrinter) CaptionStarted(rec captions.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%d: %s - %s]\n", rec.ID, rec.Start, rec.End)
	for _, line := range strings.Split(rec.Body(), "\n") {
		fmt.Fprintf(p.out, "\t%s\n", line)
	}
}

func (p *progressPrinter) CaptionPosted(rec captions.Record, result publisher.Result) {
	p.result(ansiGreen, fmt.Sprintf("[%d: %s]", rec.ID, result.URL))
}

func (p *progressPrinter) CaptionFailed(rec captions.Record, err error) {
	p.result(ansiRed, fmt.Sprintf("[%d: Twitter error: %v]", rec.ID, err))
}

func (p *progressPrinter) result(color, line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.color {
		line = color + line + ansiReset
	}
	fmt.Fprintln(p.out, line)
}
