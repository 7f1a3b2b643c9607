package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// ErrorPrinter writes engine error bodies to stderr so a failed write can be
// diagnosed. Bodies are colored red when the writer is a terminal.
type ErrorPrinter struct {
	err   io.Writer
	color bool
}

func NewErrorPrinter(err io.Writer) *ErrorPrinter {
	color := false
	if f, ok := err.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &ErrorPrinter{err: err, color: color}
}

func (p *ErrorPrinter) PrintBody(body []byte) error {
	if len(body) == 0 {
		return nil
	}

	out := body
	if p.color && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out[:len(out):len(out)], '\n')
	}

	if p.color {
		out = append(append([]byte(ansiRed), bytes.TrimRight(out, "\n")...), []byte(ansiReset+"\n")...)
	}
	_, err := p.err.Write(out)
	return err
}
