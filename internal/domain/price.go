package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate returns the date of y-m-d in UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

const localTimestampLayout = "2006-01-02T15:04:05"

var dateLayouts = []string{DateLayout, time.RFC3339, localTimestampLayout}

// ParseDate accepts a plain date, an RFC 3339 timestamp or a zone-less
// timestamp and keeps only the date part. Offsets are not applied.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PriceRecord is one observed unit price at one place and date
type PriceRecord struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Unit         string  `json:"unit"`
	Date         Date    `json:"date"`
	Municipality string  `json:"municipality"`
	UnitPrice    float64 `json:"unit_price"`
	Synthetic    bool    `json:"is_synthetic"`
}

// PriceRecordID derives a record id when the registry does not supply one
func PriceRecordID(productID string, date Date, municipality string) string {
	return productID + "_" + date.String() + "_" + municipality
}

// PricePeriod is the time filter of a price query. Nil fields are absent.
type PricePeriod struct {
	Year      *int       `json:"year,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}
