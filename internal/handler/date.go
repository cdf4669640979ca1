package handler

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// dateLayouts are the string forms accepted for a meal date, tried in order.
// Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// maxDateMillis bounds a meal date to ±100,000,000 days around the epoch,
// the range a JavaScript Date can represent.
const maxDateMillis = 8_640_000_000_000_000

// mealDate is the "date" field of a meal request. It accepts either a JSON
// number of epoch milliseconds or a string in one of dateLayouts.
type mealDate time.Time

func (d *mealDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return invalidDate()
		}
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return d.setMillis(t.UnixMilli())
			}
		}
		return invalidDate()
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return invalidDate()
	}
	if ms, err := n.Int64(); err == nil {
		return d.setMillis(ms)
	}

	// Whole numbers written as floats (1.6e12, 1609488000000.0) are fine;
	// fractions and values past the int64 range are not.
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxDateMillis {
		return invalidDate()
	}
	return d.setMillis(int64(f))
}

func (d *mealDate) setMillis(ms int64) error {
	if ms < -maxDateMillis || ms > maxDateMillis {
		return invalidDate()
	}
	*d = mealDate(time.UnixMilli(ms))
	return nil
}

func invalidDate() error {
	return &fieldError{
		field: "date",
		msg:   "date must be epoch milliseconds or an RFC 3339 / YYYY-MM-DD string",
	}
}
