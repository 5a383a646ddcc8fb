// Package peek implements a buffered reader that supports non-consuming
// peeks, the stream-resynchronization primitive the frame codec uses to
// scan for a MAVLink start-of-frame byte without losing already-buffered
// data.
package peek

import (
	"errors"
	"io"
)

const defaultChunkSize = 1024

// Reader wraps an io.Reader with a growable internal buffer. Peeking does
// not consume; Consume advances the read cursor. EOF is sticky: the call
// that first runs out of data returns the source's error (io.EOF for a
// source at end of stream), and after that every call that needs more
// than is buffered fails with io.ErrUnexpectedEOF.
type Reader struct {
	buffer []byte
	cursor int
	chunk  int
	r      io.Reader
	err    error
	eof    bool
}

// New wraps r with the default preferred chunk size.
func New(r io.Reader) *Reader {
	return WithChunkSize(r, defaultChunkSize)
}

// WithChunkSize wraps r with a preferred (hint-only) read chunk size.
func WithChunkSize(r io.Reader, chunkSize int) *Reader {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Reader{r: r, chunk: chunkSize}
}

// Peek returns up to amount buffered bytes without consuming them. Until
// end of stream has been reported it fails only when nothing is buffered
// and the source returns an error; a source that returns zero bytes with
// no error yields an empty result. Once EOF has been reported it fails
// with io.ErrUnexpectedEOF whenever fewer than amount bytes are buffered.
func (p *Reader) Peek(amount int) ([]byte, error) {
	return p.fetch(amount, false, false)
}

// PeekExact returns exactly amount buffered bytes without consuming them,
// failing with io.ErrUnexpectedEOF if fewer are available.
func (p *Reader) PeekExact(amount int) ([]byte, error) {
	return p.fetch(amount, true, false)
}

// Consume advances the cursor by at most min(amount, buffered) bytes and
// returns the number actually consumed.
func (p *Reader) Consume(amount int) int {
	buffered := len(p.buffer) - p.cursor
	if amount > buffered {
		amount = buffered
	}
	p.cursor += amount
	return amount
}

// ReadExact is PeekExact followed by Consume of the same amount.
func (p *Reader) ReadExact(amount int) ([]byte, error) {
	return p.fetch(amount, true, true)
}

func (p *Reader) fetch(amount int, exact, consume bool) ([]byte, error) {
	previousLen := len(p.buffer)
	buffered := previousLen - p.cursor

	if buffered < amount {
		if p.eof {
			return nil, io.ErrUnexpectedEOF
		}
		if p.err != nil {
			err := p.err
			p.err = nil
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				p.eof = true
			}
			return nil, err
		}

		needed := amount - buffered
		chunkSize := p.chunk
		if needed > chunkSize {
			chunkSize = needed
		}
		tmp := make([]byte, chunkSize)

		var read int
		for read < needed {
			n, err := p.r.Read(tmp[read:])
			if n > 0 {
				read += n
			}
			if err != nil {
				p.err = err
				break
			}
			if n == 0 {
				break
			}
		}

		if read > 0 {
			if cap(p.buffer)-previousLen < read {
				remaining := p.buffer[p.cursor:previousLen]
				copy(p.buffer, remaining)
				p.buffer = p.buffer[:buffered]
				p.cursor = 0
			}
			p.buffer = append(p.buffer, tmp[:read]...)
			buffered += read
		}

		if buffered == 0 && p.err != nil {
			err := p.err
			p.err = nil
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				p.eof = true
			}
			return nil, err
		}
	}

	if exact && buffered < amount {
		return nil, io.ErrUnexpectedEOF
	}

	resultLen := amount
	if buffered < resultLen {
		resultLen = buffered
	}
	result := p.buffer[p.cursor : p.cursor+resultLen]
	if consume {
		p.cursor += resultLen
	}
	return result, nil
}
