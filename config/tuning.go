package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	ErrMissingKey = errors.New("config: missing key")
	ErrWrongType  = errors.New("config: wrong type")
)

// Tuning holds named gameplay parameters from a JSON document. Values are
// looked up by dotted path, e.g. "racing.tragnet-k"; numeric segments index
// arrays.
type Tuning struct {
	doc any
}

// LoadTuning reads a tuning document from disk.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read tuning: %w", err)
	}
	return ParseTuning(data)
}

func ParseTuning(data []byte) (*Tuning, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: parse tuning: %w", err)
	}
	return &Tuning{doc: doc}, nil
}

// Snapshot returns the document for display with the racing section replaced
// by rt, the values the race runs with now.
func (t *Tuning) Snapshot(rt RacingTuning) map[string]any {
	out := map[string]any{racingSection: rt}
	if doc, ok := t.doc.(map[string]any); ok {
		for k, v := range doc {
			if k != racingSection {
				out[k] = v
			}
		}
	}
	return out
}

// Lookup follows path through the document.
func (t *Tuning) Lookup(path string) (any, error) {
	cur := t.doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingKey, path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("%w: %s", ErrMissingKey, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, path)
		}
	}
	return cur, nil
}

func (t *Tuning) Float(path string) (float64, error) {
	v, err := t.Lookup(path)
	if err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, want number", ErrWrongType, path, v)
	}
	return n.Float64()
}

// Int accepts integral numbers only; 4.0 is fine, 4.5 is not.
func (t *Tuning) Int(path string) (int, error) {
	f, err := t.Float(path)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s = %v, want integer", ErrWrongType, path, f)
	}
	return int(f), nil
}

func (t *Tuning) String(path string) (string, error) {
	v, err := t.Lookup(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrWrongType, path, v)
	}
	return s, nil
}

// FloatOr returns def when path is absent; a present value of the wrong type
// is still an error.
func (t *Tuning) FloatOr(path string, def float64) (float64, error) {
	v, err := t.Float(path)
	if errors.Is(err, ErrMissingKey) {
		return def, nil
	}
	return v, err
}

func (t *Tuning) IntOr(path string, def int) (int, error) {
	v, err := t.Int(path)
	if errors.Is(err, ErrMissingKey) {
		return def, nil
	}
	return v, err
}
