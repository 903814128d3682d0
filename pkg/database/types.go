package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList stores an ordered []string as a JSON text column so the same
// model works on postgres, mysql and sqlite.
type StringList []string

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList: unsupported scan type %T", value)
	}

	if len(raw) == 0 || string(raw) == "null" {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}

// Value implements driver.Valuer. Empty lists are stored as NULL.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (StringList) GormDataType() string {
	return "text"
}
