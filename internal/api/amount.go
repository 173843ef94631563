package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// amountField accepts a money amount as a JSON string ("5.00") or a JSON
// number (5.00). Numbers keep their literal text so no float rounding
// happens before the ledger parses them.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if len(b) > 0 && b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		if err != nil {
			return err
		}

		*a = amountField(s)
		return nil
	}

	var n json.Number
	err := json.Unmarshal(b, &n)
	if err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}

	*a = amountField(n.String())
	return nil
}
