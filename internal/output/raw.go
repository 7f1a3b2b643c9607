package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

type rawRenderer struct {
	file string
}

func (r *rawRenderer) Name() string { return "raw" }
func (r *rawRenderer) Kind() Kind   { return KindRaw }

func (r *rawRenderer) BindFlags(fs *pflag.FlagSet) {
	if fs.Lookup("output-file") == nil {
		fs.StringVar(&r.file, "output-file", "", "write the unmodified response body to this file")
	}
}

// Render writes the response bytes as received when result is a
// *Document, otherwise the bytes of the plain result.
func (r *rawRenderer) Render(w io.Writer, result any, _ RenderContext) error {
	value, doc := unwrap(result)
	var (
		b   []byte
		err error
	)
	if doc != nil && doc.Raw != nil {
		b = doc.Raw
	} else if b, err = rawBytes(value); err != nil {
		return err
	}
	if r.file == "" {
		_, err := w.Write(b)
		return err
	}
	f, err := os.Create(r.file)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	return f.Close()
}

func rawBytes(result any) ([]byte, error) {
	switch v := result.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case json.RawMessage:
		return v, nil
	}
	return json.Marshal(result)
}
