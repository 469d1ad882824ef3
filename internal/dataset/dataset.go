// Package dataset loads the pre-computed report blob.
package dataset

import (
	"bytes"
	"io"
	"os"

	"github.com/dimchansky/utfbom"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/verte-zerg/keystone/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Marker precedes the blob inside a generated report page.
const Marker = "const chartsData ="

// ErrNoBlob is returned when a page carries no embedded blob.
var ErrNoBlob = errors.New("no chartsData blob found")

// Load reads a blob from a JSON file or from a generated HTML report.
func Load(path string) (model.ChartsData, error) {
	fs, err := os.Open(path)
	if err != nil {
		return model.ChartsData{}, errors.WithStack(err)
	}
	defer fs.Close()

	d, err := Decode(fs)
	if err != nil {
		return model.ChartsData{}, errors.Wrapf(err, "load %s", path)
	}
	return d, nil
}

// Decode reads a JSON blob or an HTML page from r. A leading BOM is skipped.
func Decode(r io.Reader) (model.ChartsData, error) {
	sr, _ := utfbom.Skip(r)
	raw, err := io.ReadAll(sr)
	if err != nil {
		return model.ChartsData{}, errors.WithStack(err)
	}
	return Parse(raw)
}

// Parse decodes raw bytes. Pages are searched for the embedded blob first.
// Bare NaN and Infinity tokens are read as null.
func Parse(raw []byte) (model.ChartsData, error) {
	var (
		obj []byte
		err error
	)
	if idx := bytes.Index(raw, []byte(Marker)); idx >= 0 {
		obj, err = scanObject(raw[idx+len(Marker):])
	} else {
		obj, err = scanObject(raw)
	}
	if err != nil {
		return model.ChartsData{}, err
	}

	var d model.ChartsData
	if err := json.Unmarshal(obj, &d); err != nil {
		return model.ChartsData{}, errors.Wrap(err, "decode chartsData")
	}
	return d, nil
}

// Extract returns the normalized JSON object embedded in a page.
func Extract(page []byte) ([]byte, error) {
	idx := bytes.Index(page, []byte(Marker))
	if idx < 0 {
		return nil, errors.WithStack(ErrNoBlob)
	}
	return scanObject(page[idx+len(Marker):])
}

// Marshal encodes a blob as JSON.
func Marshal(d model.ChartsData) ([]byte, error) {
	out, err := json.Marshal(d)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return out, nil
}

// Encode writes a blob as JSON to w.
func Encode(w io.Writer, d model.ChartsData) error {
	return errors.WithStack(json.NewEncoder(w).Encode(d))
}

// scanObject returns the first JSON object in src, copying it with bare
// NaN, Infinity and -Infinity replaced by null.
func scanObject(src []byte) ([]byte, error) {
	start := bytes.IndexByte(src, '{')
	if start < 0 {
		return nil, errors.WithStack(ErrNoBlob)
	}
	if ws := bytes.TrimSpace(src[:start]); len(ws) > 0 {
		return nil, errors.Errorf("unexpected %q before blob", truncate(ws, 20))
	}

	var out bytes.Buffer
	out.Grow(len(src) - start)
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(src); i++ {
		c := src[i]
		if inString {
			out.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				out.WriteByte(c)
				return out.Bytes(), nil
			}
		case 'N':
			if bytes.HasPrefix(src[i:], []byte("NaN")) {
				out.WriteString("null")
				i += len("NaN") - 1
				continue
			}
		case 'I':
			if bytes.HasPrefix(src[i:], []byte("Infinity")) {
				out.WriteString("null")
				i += len("Infinity") - 1
				continue
			}
		case '-':
			if bytes.HasPrefix(src[i:], []byte("-Infinity")) {
				out.WriteString("null")
				i += len("-Infinity") - 1
				continue
			}
		}
		out.WriteByte(c)
	}
	return nil, errors.New("unterminated chartsData blob")
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
