package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Помощники для JSONB-колонок (append-only логи заказов, рейтинг райтера).

func jsonbValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb value: %w", err)
	}
	return b, nil
}

func jsonbScan(src, dst interface{}) error {
	if src == nil {
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, dst)
}
