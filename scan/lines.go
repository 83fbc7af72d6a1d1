// File: scan/lines.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Line splitting over an ordered chunk stream. A record spanning a read
// boundary is carried until its terminator arrives in a later chunk; the
// trailing unterminated record is flushed at end of stream.

package scan

import (
	"bytes"

	"github.com/momentics/hioload-fio/api"
	"github.com/momentics/hioload-fio/reader"
)

// LineFunc receives one line without its terminator. line points into a
// transient buffer; copy to retain.
type LineFunc func(line []byte, lineNumber int64) error

// Lines splits an offset-ordered chunk stream into lines. Wrap it in
// Ordered before handing it to a scheduler. CR before LF is stripped;
// empty lines are skipped.
type Lines struct {
	fn      LineFunc
	carry   []byte
	lines   int64
	bytes   int64
	pending bool
}

// NewLines creates a line-splitting sink.
func NewLines(fn LineFunc) *Lines {
	return &Lines{fn: fn}
}

func (l *Lines) OnChunk(p []byte, _ int64, _ int64) error {
	l.bytes += int64(len(p))
	for len(p) > 0 {
		nl := bytes.IndexByte(p, '\n')
		if nl < 0 {
			l.carry = append(l.carry, p...)
			l.pending = len(l.carry) > 0
			return nil
		}
		line := p[:nl]
		if len(l.carry) > 0 {
			l.carry = append(l.carry, line...)
			line = l.carry
		}
		if err := l.emit(line); err != nil {
			return err
		}
		l.carry = l.carry[:0]
		l.pending = false
		p = p[nl+1:]
	}
	return nil
}

// Flush delivers the trailing unterminated line, if any.
func (l *Lines) Flush() error {
	if !l.pending {
		return nil
	}
	l.pending = false
	err := l.emit(l.carry)
	l.carry = l.carry[:0]
	return err
}

// Lines returns how many lines were delivered.
func (l *Lines) Lines() int64 { return l.lines }

// Bytes returns how many bytes passed through.
func (l *Lines) Bytes() int64 { return l.bytes }

func (l *Lines) emit(line []byte) error {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	if len(line) == 0 {
		return nil
	}
	l.lines++
	return l.fn(line, l.lines)
}

// ConsumeLines streams path through a single-drain session and calls fn
// for every line. Returns the line and byte totals.
func ConsumeLines(path string, cfg reader.Config, fn LineFunc) (lines int64, bytes int64, err error) {
	r, err := reader.Open(path, cfg)
	if err != nil {
		return 0, 0, err
	}
	ls := NewLines(fn)
	if err := r.Stream(NewOrdered(ls)); err != nil {
		return ls.Lines(), ls.Bytes(), err
	}
	if err := ls.Flush(); err != nil {
		return ls.Lines(), ls.Bytes(), api.NewError(api.ErrCodeSink, "trailing record", err)
	}
	return ls.Lines(), ls.Bytes(), nil
}
