package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// IDSet is a custom type for storing a set of account ids as a JSON array
type IDSet []string

// Value implements driver.Valuer interface for database storage
func (s IDSet) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface for database retrieval
func (s *IDSet) Scan(value interface{}) error {
	if value == nil {
		*s = IDSet{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into IDSet", value)
	}
}

// GormDataType returns the data type for GORM
func (IDSet) GormDataType() string {
	return "json"
}

// MarshalJSON implements json.Marshaler interface
func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// UnmarshalJSON implements json.Unmarshaler interface
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var slice []string
	if err := json.Unmarshal(data, &slice); err != nil {
		return err
	}
	*s = IDSet(slice)
	return nil
}

// Contains reports whether id is a member of the set
func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns the set with id inserted; inserting an existing member is a no-op
func (s IDSet) Add(id string) IDSet {
	if s.Contains(id) {
		return s
	}
	return append(s, id)
}

// Remove returns the set with id removed; removing a missing member is a no-op
func (s IDSet) Remove(id string) IDSet {
	for i, v := range s {
		if v == id {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return s
}
