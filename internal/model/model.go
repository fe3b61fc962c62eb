package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Contact is the data structure for a person that we know.
// All fields with the exception of the Id field are optional.
type Contact struct {
	Id      string   `json:"id"                bson:"_id"               db:"id"`
	Name    *string  `json:"name,omitempty"    bson:"name,omitempty"    db:"name"`
	Surname *string  `json:"surname,omitempty" bson:"surname,omitempty" db:"surname"`
	Age     *float64 `json:"age,omitempty"     bson:"age,omitempty"     db:"age"`
	Role    *string  `json:"role,omitempty"    bson:"role,omitempty"    db:"role"`
}

// ContactInput carries the fields of a create or update request. A nil field
// was not supplied by the caller.
//
// Decoding from JSON coerces scalar values: numbers and booleans become text
// for name, surname and role, and numeric strings and booleans become numbers
// for age. Unknown keys are ignored.
type ContactInput struct {
	Name    *string  `json:"name"`
	Surname *string  `json:"surname"`
	Age     *float64 `json:"age"`
	Role    *string  `json:"role"`
}

// UnmarshalJSON decodes a request body with scalar coercion. Objects and
// arrays in a field and age strings that are not numbers are rejected.
func (in *ContactInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var decoded ContactInput
	var err error
	if decoded.Name, err = coerceText("name", raw["name"]); err != nil {
		return err
	}
	if decoded.Surname, err = coerceText("surname", raw["surname"]); err != nil {
		return err
	}
	if decoded.Role, err = coerceText("role", raw["role"]); err != nil {
		return err
	}
	if decoded.Age, err = coerceNumber("age", raw["age"]); err != nil {
		return err
	}
	*in = decoded
	return nil
}

// coerceText turns a JSON scalar into text. Absent and null values yield nil.
func coerceText(field string, value json.RawMessage) (*string, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || string(value) == "null" {
		return nil, nil
	}
	var text string
	switch value[0] {
	case '"':
		if err := json.Unmarshal(value, &text); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
	case 't', 'f':
		text = string(value)
	case '{', '[':
		return nil, fmt.Errorf("field %s: cannot cast %s to text", field, value)
	default:
		f, err := strconv.ParseFloat(string(value), 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		text = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return &text, nil
}

// coerceNumber turns a JSON scalar into a number. Absent and null values and
// empty strings yield nil.
func coerceNumber(field string, value json.RawMessage) (*float64, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || string(value) == "null" {
		return nil, nil
	}
	var text string
	switch value[0] {
	case '"':
		if err := json.Unmarshal(value, &text); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	case 't':
		text = "1"
	case 'f':
		text = "0"
	case '{', '[':
		return nil, fmt.Errorf("field %s: cannot cast %s to number", field, value)
	default:
		text = string(value)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("field %s: cannot cast %q to number", field, text)
	}
	return &f, nil
}

// Empty reports whether no field was supplied.
func (in ContactInput) Empty() bool {
	return in.Name == nil && in.Surname == nil && in.Age == nil && in.Role == nil
}

// Apply copies every supplied field onto the contact. Fields that were not
// supplied keep their previous values.
func (in ContactInput) Apply(contact *Contact) {
	if in.Name != nil {
		contact.Name = in.Name
	}
	if in.Surname != nil {
		contact.Surname = in.Surname
	}
	if in.Age != nil {
		contact.Age = in.Age
	}
	if in.Role != nil {
		contact.Role = in.Role
	}
}

// SearchFilter holds the criteria of a contact search. Empty strings and a
// nil Age do not restrict the result.
//
// Name and Surname match case-insensitively anywhere in the field. Role and
// Age must match exactly. All criteria have to hold at the same time.
type SearchFilter struct {
	Name    string
	Surname string
	Role    string
	Age     *float64
}

// Empty reports whether the filter has no criteria at all.
func (f SearchFilter) Empty() bool {
	return f.Name == "" && f.Surname == "" && f.Role == "" && f.Age == nil
}

// Matches reports whether the contact satisfies all criteria of the filter.
func (f SearchFilter) Matches(contact Contact) bool {
	if f.Name != "" && !containsFold(contact.Name, f.Name) {
		return false
	}
	if f.Surname != "" && !containsFold(contact.Surname, f.Surname) {
		return false
	}
	if f.Role != "" && (contact.Role == nil || *contact.Role != f.Role) {
		return false
	}
	if f.Age != nil && (contact.Age == nil || *contact.Age != *f.Age) {
		return false
	}
	return true
}

// containsFold reports whether substr is within field, ignoring case. A
// missing field never matches.
func containsFold(field *string, substr string) bool {
	if field == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*field), strings.ToLower(substr))
}
