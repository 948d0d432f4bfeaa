package sheet

import (
	"math"
	"sort"

	"github.com/lemonberrylabs/webrpg-engine/pkg/ruleset"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// Context is the working attribute set of one computation pass. It starts as
// a copy of the caller's attributes and every computed formula is written
// back immediately, so cells later in schema order see earlier results.
//
// A Context belongs to a single pass and is not safe for concurrent use.
type Context struct {
	attrs  types.Attributes
	rowids map[string][]int64
}

// NewContext creates a context over a copy of attrs. The caller's map is
// never modified.
func NewContext(attrs types.Attributes) *Context {
	return &Context{
		attrs:  attrs.Clone(),
		rowids: make(map[string][]int64),
	}
}

// Get returns the current value of key.
func (c *Context) Get(key string) (types.Value, bool) {
	return c.attrs.Get(key)
}

// Set writes key, replacing any stored value.
func (c *Context) Set(key string, v types.Value) {
	c.attrs.Set(key, v)
}

// Attributes returns the live attribute set. Formulas read from it directly.
func (c *Context) Attributes() types.Attributes {
	return c.attrs
}

// RowIDs returns the multirow instance ids of table: the stored ids in
// ascending order followed by max+1 as a fresh instance. Without stored ids
// the sequence is [0]. The result is computed once per table and pass and
// is also written back under the table's rowids key.
func (c *Context) RowIDs(table string) []int64 {
	if ids, ok := c.rowids[table]; ok {
		return ids
	}

	key := ruleset.RowIDsKey(table)
	var ids []int64
	if v, ok := c.attrs.Get(key); ok {
		ids = storedIDs(v)
	}

	if len(ids) == 0 {
		ids = []int64{0}
	} else if last := ids[len(ids)-1]; last < math.MaxInt64 {
		ids = append(ids, last+1)
	}

	list := make([]types.Value, len(ids))
	for i, id := range ids {
		list[i] = types.NewInt(id)
	}
	c.attrs.Set(key, types.NewList(list))
	c.rowids[table] = ids
	return ids
}

// storedIDs reads a persisted id list. Duplicates, non-numeric entries and
// numbers outside the int64 range are skipped.
func storedIDs(v types.Value) []int64 {
	if v.Type() != types.TypeList {
		return nil
	}
	seen := make(map[int64]bool)
	var ids []int64
	for _, item := range v.AsList() {
		id, ok := rowID(item)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func rowID(v types.Value) (int64, bool) {
	if v.Type() == types.TypeInt {
		return v.AsInt(), true
	}
	f, ok := v.AsNumber()
	if !ok || !types.InInt64Range(f) {
		return 0, false
	}
	return int64(f), true
}
