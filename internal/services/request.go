package services

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is a request-body identifier given either as a JSON number or as a
// numeric string. null and "" decode to 0.
type ID uint

func (id *ID) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	if len(raw) == 0 || string(raw) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = ID(n)
	return nil
}
