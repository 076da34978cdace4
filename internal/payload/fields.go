package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/specialistvlad/railmap/internal/model"
)

type object map[string]any

func decodeObject(raw []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("decode payload: not an object")
	}
	return object(m), nil
}

func (o object) lookup(aliases []string) (any, bool) {
	for _, k := range aliases {
		if v, ok := o[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (o object) str(aliases []string) string {
	v, ok := o.lookup(aliases)
	if !ok {
		return ""
	}
	return toString(v)
}

func (o object) float(aliases []string) (float64, bool) {
	v, ok := o.lookup(aliases)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func (o object) boolean(aliases []string) bool {
	v, ok := o.lookup(aliases)
	if !ok {
		return false
	}
	return toBool(v)
}

func (o object) obj(aliases []string) (object, bool) {
	v, ok := o.lookup(aliases)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return object(m), ok
}

func (o object) position(aliases []string) (*model.Position, bool) {
	v, ok := o.lookup(aliases)
	if !ok {
		return nil, false
	}
	return toPosition(v)
}

func (o object) stringList(aliases []string) []string {
	v, ok := o.lookup(aliases)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if m, ok := item.(map[string]any); ok {
			s = object(m).str(idKeys)
		} else {
			s = toString(item)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	}
	return false
}

// toPosition accepts {x,y,z} objects, [x,y,z] or [x,z] arrays and "x,y,z" strings.
func toPosition(v any) (*model.Position, bool) {
	switch t := v.(type) {
	case map[string]any:
		o := object(t)
		x, okX := o.float(xKeys)
		z, okZ := o.float(zKeys)
		if !okX || !okZ {
			return nil, false
		}
		y, _ := o.float(yKeys)
		return &model.Position{X: floor(x), Y: floor(y), Z: floor(z)}, true
	case []any:
		coords := make([]float64, 0, len(t))
		for _, item := range t {
			f, ok := toFloat(item)
			if !ok {
				return nil, false
			}
			coords = append(coords, f)
		}
		switch len(coords) {
		case 2:
			return &model.Position{X: floor(coords[0]), Z: floor(coords[1])}, true
		case 3:
			return &model.Position{X: floor(coords[0]), Y: floor(coords[1]), Z: floor(coords[2])}, true
		}
		return nil, false
	case string:
		p, err := model.ParsePositionKey(t)
		if err != nil {
			return nil, false
		}
		return &p, true
	}
	return nil, false
}

// floor snaps a finite coordinate onto the block grid, matching
// model.ParsePositionKey.
func floor(f float64) int64 {
	return int64(math.Floor(f))
}

func formatColor(v any) string {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return t.String()
		}
		return fmt.Sprintf("#%06X", n&0xFFFFFF)
	case float64:
		return fmt.Sprintf("#%06X", int64(t)&0xFFFFFF)
	}
	return toString(v)
}
