package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// LooseID is a row id read from a request body. Clients send it either as a
// JSON number or as a numeric string; an empty string reads as zero, which
// the services treat as not supplied.
type LooseID int64

func (id *LooseID) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("invalid id %s", raw)
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*id = 0
			return nil
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*id = LooseID(n)
	return nil
}

// Int64 returns the id as *int64, nil when id is nil.
func (id *LooseID) Int64() *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}
