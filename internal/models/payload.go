package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PayloadMap stores a notification data bag as a jsonb column.
type PayloadMap map[string]string

// Value implements driver.Valuer.
func (p PayloadMap) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PayloadMap) Scan(src interface{}) error {
	if src == nil {
		*p = PayloadMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported payload type %T", src)
	}
	return json.Unmarshal(raw, p)
}
