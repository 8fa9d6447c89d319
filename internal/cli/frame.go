package cli

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/triggertree/internal/ir"
)

// LoadFrame reads a memory frame from a YAML or JSON file; "-" reads
// stdin. Keys are NFC normalized so a frame written with decomposed
// characters still matches property paths in trigger expressions.
func LoadFrame(path string, stdin io.Reader) (ir.IRObject, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read frame")
	}
	return ParseFrame(data)
}

// ParseFrame decodes a YAML or JSON object into a frame.
func ParseFrame(data []byte) (ir.IRObject, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse frame")
	}
	if raw == nil {
		return ir.IRObject{}, nil
	}

	v, err := ir.FromGo(normalizeKeys(raw))
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, errors.Newf("frame must be an object, got %s", ir.KindOf(v))
	}
	return obj, nil
}

func normalizeKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[norm.NFC.String(k)] = normalizeKeys(elem)
		}
		return out
	case []any:
		for i, elem := range val {
			val[i] = normalizeKeys(elem)
		}
		return val
	default:
		return v
	}
}
