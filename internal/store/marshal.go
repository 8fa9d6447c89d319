package store

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/roach88/triggertree/internal/ir"
)

// marshalPayload converts an event payload to canonical JSON TEXT.
func marshalPayload(payload ir.IRObject) (string, error) {
	if payload == nil {
		payload = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal payload")
	}
	return string(data), nil
}

// unmarshalPayload parses canonical JSON TEXT. ir.IRObject.UnmarshalJSON
// keeps integers beyond 2^53 exact.
func unmarshalPayload(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, errors.Wrap(err, "unmarshal payload")
	}
	return obj, nil
}
