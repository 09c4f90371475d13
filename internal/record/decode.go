package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoData is returned by Decode for an empty body, null, {} or [].
var ErrNoData = errors.New("no data provided")

// Decode parses a JSON object or a non-empty array of objects. batch
// reports which form was given.
func Decode(data []byte) (recs []Record, batch bool, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false, ErrNoData
	}

	switch data[0] {
	case '{':
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, false, fmt.Errorf("invalid JSON: %w", err)
		}
		if len(rec) == 0 {
			return nil, false, ErrNoData
		}
		return []Record{rec}, false, nil
	case '[':
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, true, fmt.Errorf("invalid JSON: %w", err)
		}
		if len(recs) == 0 {
			return nil, true, ErrNoData
		}
		for i, rec := range recs {
			if rec == nil {
				return nil, true, fmt.Errorf("record %d is null", i)
			}
		}
		return recs, true, nil
	default:
		return nil, false, errors.New("invalid JSON: expected an object or an array of objects")
	}
}
