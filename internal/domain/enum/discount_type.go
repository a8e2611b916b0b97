package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// DiscountType represents how an offer's discount value is interpreted
type DiscountType int

const (
	DiscountTypePercentage  DiscountType = 0
	DiscountTypeFixedAmount DiscountType = 1
)

func (t DiscountType) String() string {
	names := [...]string{"Percentage", "FixedAmount"}
	if int(t) < 0 || int(t) >= len(names) {
		return "Percentage"
	}
	return names[t]
}

// IsValid reports whether the value is a known discount type
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixedAmount
}

func (t DiscountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DiscountType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = DiscountType(i)
		return nil
	}
	switch str {
	case "Percentage":
		*t = DiscountTypePercentage
	case "FixedAmount":
		*t = DiscountTypeFixedAmount
	}
	return nil
}

func (t DiscountType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *DiscountType) Scan(value interface{}) error {
	if value == nil {
		*t = DiscountTypePercentage
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = DiscountType(v)
	case int:
		*t = DiscountType(v)
	}
	return nil
}
