package backend

import (
	"bufio"
	"io"
)

// lineReader only yields complete newline-terminated lines. A trailing
// partial line is held back and returned once its newline arrives, which
// lets an observation file that is still being appended to be decoded
// without ever seeing half an object.
type lineReader struct {
	r       *bufio.Reader
	partial []byte
	ready   []byte
}

var _ io.Reader = (*lineReader)(nil)

func NewLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r: bufio.NewReader(r),
	}
}

func (l *lineReader) Read(b []byte) (int, error) {
	if len(l.ready) == 0 {
		data, err := l.r.ReadBytes('\n')
		l.partial = append(l.partial, data...)
		if err != nil {
			return 0, err
		}
		l.ready, l.partial = l.partial, nil
	}
	n := copy(b, l.ready)
	l.ready = l.ready[n:]
	return n, nil
}
