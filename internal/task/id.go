package task

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// LocalIDPrefix marks ids synthesized on the client when the remote service is unreachable.
const LocalIDPrefix = "local-"

// ID identifies a task. Server-assigned ids are numeric; local ids are prefixed
// with LocalIDPrefix. On the wire numeric ids are JSON numbers, others strings.
type ID string

// NewLocalID returns a unique, time-ordered id for a task created offline.
func NewLocalID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return ID(LocalIDPrefix + u.String())
}

// IDFromInt converts a numeric database id.
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

func (id ID) String() string { return string(id) }

// IsLocal reports whether the id was synthesized by the client.
func (id ID) IsLocal() bool {
	return len(id) >= len(LocalIDPrefix) && string(id[:len(LocalIDPrefix)]) == LocalIDPrefix
}

// Int returns the numeric value of a server-assigned id.
func (id ID) Int() (int64, bool) {
	if !isNumeric(string(id)) {
		return 0, false
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (id ID) MarshalJSON() ([]byte, error) {
	if isNumeric(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid task id %s: %w", data, err)
	}
	// Whole-valued floats (e.g. 1.7e12 from a JavaScript client) keep their integer form.
	if i, err := n.Int64(); err == nil {
		*id = IDFromInt(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("invalid task id %s: %w", data, err)
	}
	*id = ID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
