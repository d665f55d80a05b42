package handler

import (
	"bytes"
	"encoding/json"
)

// AmountField accepts a money amount as a JSON string or a bare JSON number.
// The raw text is parsed by service.ParseAmount.
type AmountField string

func (a *AmountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AmountField(s)
		return nil
	}
	*a = AmountField(b)
	return nil
}
