package cowin

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Pincode is the center's postal code. The upstream API has returned it both
// as a JSON number and as a string across versions, so it accepts either and
// normalizes to a string.
type Pincode string

// UnmarshalJSON accepts a JSON string or number.
func (p *Pincode) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Pincode(s)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pincode is neither string nor number: %w", err)
	}
	*p = Pincode(strconv.FormatInt(n, 10))
	return nil
}

func (p Pincode) String() string { return string(p) }
