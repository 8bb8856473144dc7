// Package hijack implements the assuan-hijack wire tap used to record a
// live Assuan session for debugging: it sits between a client and a real
// server, copying bytes through unmodified while logging each line to a
// file with a role prefix (grounded on original_source's assuan-hijack
// crate).
package hijack

import (
	"bytes"
	"io"
)

// Capture wraps an io.Reader, tee-ing every byte read to Output with a
// Prepend prefix on each newline-terminated line. The framing deliberately
// writes a literal two-character "\n" marker before the real newline, the
// same quirk original_source's Capture::more_data has (SPEC_FULL.md §5).
type Capture struct {
	Source  io.Reader
	Output  io.Writer
	Prepend []byte

	buffer []byte
}

// NewCapture returns a Capture reading from source and logging to output
// with the given line prefix.
func NewCapture(source io.Reader, output io.Writer, prepend []byte) *Capture {
	return &Capture{
		Source:  source,
		Output:  output,
		Prepend: prepend,
		buffer:  make([]byte, 0, 1000),
	}
}

// Read implements io.Reader, passing bytes through from Source unmodified
// while recording completed lines to Output.
func (c *Capture) Read(p []byte) (int, error) {
	n, err := c.Source.Read(p)
	if n > 0 {
		if logErr := c.moreData(p[:n]); logErr != nil {
			return n, logErr
		}
	}
	return n, err
}

func (c *Capture) moreData(data []byte) error {
	c.buffer = append(c.buffer, data...)

	for {
		pos := bytes.IndexByte(c.buffer, '\n')
		if pos < 0 {
			break
		}
		if _, err := c.Output.Write(c.Prepend); err != nil {
			return err
		}
		if _, err := c.Output.Write(c.buffer[:pos]); err != nil {
			return err
		}
		if _, err := c.Output.Write([]byte("\\n\n")); err != nil {
			return err
		}
		if f, ok := c.Output.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		} else if f, ok := c.Output.(interface{ Sync() error }); ok {
			_ = f.Sync()
		}

		rest := c.buffer[pos+1:]
		c.buffer = append(c.buffer[:0], rest...)
	}
	return nil
}
