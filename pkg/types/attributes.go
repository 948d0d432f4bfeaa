package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Attributes is a character's attribute bag: dotted keys such as "abilities.str"
// or "attacks.name.3" mapped to values. Keys keep insertion order so that a
// computed bag serializes in the order the sheet produced it.
type Attributes struct {
	keys   []string
	values map[string]Value
}

// NewAttributes creates a new empty attribute bag.
func NewAttributes() Attributes {
	return Attributes{
		keys:   make([]string, 0),
		values: make(map[string]Value),
	}
}

// AttributesFromMap creates an attribute bag from a Go map (keys sorted
// alphabetically for determinism).
func AttributesFromMap(m map[string]interface{}) Attributes {
	a := NewAttributes()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.Set(k, FromGo(m[k]))
	}
	return a
}

// Get retrieves a value by key. Returns the value and whether it exists.
func (a Attributes) Get(key string) (Value, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Has reports whether key is present, even when its value is null.
func (a Attributes) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

// Set adds or updates a key-value pair, preserving insertion order.
func (a *Attributes) Set(key string, val Value) {
	if a.values == nil {
		a.values = make(map[string]Value)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = val
}

// Delete removes a key from the bag.
func (a *Attributes) Delete(key string) {
	if _, exists := a.values[key]; !exists {
		return
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (a Attributes) Keys() []string {
	result := make([]string, len(a.keys))
	copy(result, a.keys)
	return result
}

// Len returns the number of entries.
func (a Attributes) Len() int {
	return len(a.keys)
}

// Clone creates a deep copy of the bag.
func (a Attributes) Clone() Attributes {
	c := NewAttributes()
	for _, k := range a.keys {
		c.Set(k, a.values[k].Clone())
	}
	return c
}

// ToMap converts the bag to a plain Go map.
func (a Attributes) ToMap() map[string]interface{} {
	result := make(map[string]interface{}, len(a.keys))
	for _, k := range a.keys {
		result[k] = a.values[k].Interface()
	}
	return result
}

// MarshalJSON writes the bag as a JSON object in insertion order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range a.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')
		valBytes, err := a.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON reads a JSON object, keeping the document's key order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = NewAttributes()
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("attributes must be a JSON object")
	}

	result := NewAttributes()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("attribute key must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		result.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = result
	return nil
}
