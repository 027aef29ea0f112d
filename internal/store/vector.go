package store

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector maps a float32 slice onto the pgvector wire format
// ("[v1,v2,...]") for both writes and reads.
type Vector []float32

var _ driver.Valuer = Vector(nil)

func (v Vector) Value() (driver.Value, error) {
	return v.String(), nil
}

func (v Vector) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func (v *Vector) Scan(src interface{}) error {
	var s string
	switch val := src.(type) {
	case []byte:
		s = string(val)
	case string:
		s = val
	case nil:
		*v = nil
		return nil
	default:
		return fmt.Errorf("unsupported vector source type %T", src)
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		*v = Vector{}
		return nil
	}

	parts := strings.Split(s, ",")
	out := make(Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("parse vector element %d: %v", i, err)
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}
