package omh

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/relvacode/iso8601"
)

var (
	// ErrNotFound is returned when a key path does not resolve.
	ErrNotFound = errors.New("key path not found")
	// ErrNotNumeric is returned when a key path resolves to something that
	// is not a number.
	ErrNotNumeric = errors.New("value is not numeric")
	// ErrNoTimeFrame is returned when a body has neither an instant nor an
	// interval.
	ErrNoTimeFrame = errors.New("effective_time_frame has neither date_time nor time_interval")
	// ErrIncompleteInterval is returned when an interval lacks the fields
	// needed to resolve both of its endpoints.
	ErrIncompleteInterval = errors.New("time_interval cannot be resolved")
)

// Observation is one Open mHealth data point. The whole decoded document is
// kept so that value key paths may address any part of it.
type Observation struct {
	Header Header
	Body   map[string]any
	doc    map[string]any
}

type Header struct {
	ID         string
	SourceName string
}

// NewObservation builds an Observation from an already decoded document.
func NewObservation(doc map[string]any) Observation {
	o := Observation{doc: doc}
	if body, ok := doc["body"].(map[string]any); ok {
		o.Body = body
	} else {
		o.Body = map[string]any{}
	}
	if header, ok := doc["header"].(map[string]any); ok {
		o.Header.ID, _ = header["id"].(string)
		if prov, ok := header["acquisition_provenance"].(map[string]any); ok {
			o.Header.SourceName, _ = prov["source_name"].(string)
		}
	}
	return o
}

func (o *Observation) UnmarshalJSON(b []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*o = NewObservation(doc)
	return nil
}

func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.doc)
}

// Has reports whether the body carries the named measure.
func (o Observation) Has(measure string) bool {
	_, ok := o.Body[measure]
	return ok
}

// Resolve walks a dot-delimited key path from the document root, for
// example "body.heart_rate.value".
func (o Observation) Resolve(keyPath string) (any, error) {
	return ResolvePath(o.doc, keyPath)
}

// Value resolves keyPath and converts the result to a float64.
func (o Observation) Value(keyPath string) (float64, error) {
	v, err := o.Resolve(keyPath)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("%w: %q holds %T", ErrNotNumeric, keyPath, v)
	}
}

// ResolvePath walks keyPath through nested maps. Every segment must exist.
func ResolvePath(root map[string]any, keyPath string) (any, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	expr, err := jp.ParseString(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNotFound, keyPath, err)
	}
	found := expr.Get(root)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, keyPath)
	}
	return found[0], nil
}

// TimeFrame is the parsed effective_time_frame of an observation.
type TimeFrame struct {
	DateTime *time.Time
	Interval *TimeInterval
}

type TimeInterval struct {
	Start, End *time.Time
	Duration   *Duration
}

// TimeFrame parses body.effective_time_frame.
func (o Observation) TimeFrame() (TimeFrame, error) {
	var tf TimeFrame
	raw, ok := o.Body["effective_time_frame"].(map[string]any)
	if !ok {
		return tf, ErrNoTimeFrame
	}
	if s, ok := raw["date_time"].(string); ok && s != "" {
		t, err := iso8601.ParseString(s)
		if err != nil {
			return tf, fmt.Errorf("date_time: %w", err)
		}
		tf.DateTime = &t
	}
	if iv, ok := raw["time_interval"].(map[string]any); ok {
		var interval TimeInterval
		for key, dst := range map[string]**time.Time{
			"start_date_time": &interval.Start,
			"end_date_time":   &interval.End,
		} {
			s, ok := iv[key].(string)
			if !ok || s == "" {
				continue
			}
			t, err := iso8601.ParseString(s)
			if err != nil {
				return tf, fmt.Errorf("%s: %w", key, err)
			}
			*dst = &t
		}
		if d, ok := iv["duration"].(map[string]any); ok {
			value, vok := d["value"].(float64)
			code, _ := d["unit"].(string)
			unit, err := ParseDurationUnit(code)
			if vok && err == nil {
				interval.Duration = &Duration{Value: value, Unit: unit}
			}
		}
		tf.Interval = &interval
	}
	if tf.DateTime == nil && tf.Interval == nil {
		return tf, ErrNoTimeFrame
	}
	return tf, nil
}

// Bounds returns the start and end of the time frame. An instant has equal
// start and end. For an interval, a missing endpoint is derived from the
// other one and the duration. When both an instant and an interval are
// present the interval wins.
func (tf TimeFrame) Bounds(loc *time.Location) (start, end time.Time, err error) {
	if tf.Interval == nil {
		if tf.DateTime == nil {
			return start, end, ErrNoTimeFrame
		}
		return *tf.DateTime, *tf.DateTime, nil
	}
	iv := tf.Interval
	switch {
	case iv.Start != nil && iv.End != nil:
		return *iv.Start, *iv.End, nil
	case iv.Duration == nil:
		return start, end, fmt.Errorf("%w: one endpoint and no duration", ErrIncompleteInterval)
	case iv.Start != nil:
		return *iv.Start, iv.Duration.AddTo(*iv.Start, 1, loc), nil
	case iv.End != nil:
		return iv.Duration.AddTo(*iv.End, -1, loc), *iv.End, nil
	default:
		return start, end, fmt.Errorf("%w: no endpoints", ErrIncompleteInterval)
	}
}

// Decode reads observations from r. The input may be a JSON array or a
// stream of JSON objects, one after another (typically one per line).
func Decode(r io.Reader) ([]Observation, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	dec := json.NewDecoder(br)
	if first == '[' {
		var out []Observation
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding observation array: %w", err)
		}
		return out, nil
	}
	var out []Observation
	for {
		var o Observation
		if err := dec.Decode(&o); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("decoding observation %d: %w", len(out), err)
		}
		out = append(out, o)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
