// Package ruleset defines the schema types of a character-sheet rule set.
// A rule set is an ordered list of tables; each table holds rows and each row
// holds columns. The order of tables, rows and columns is the order in which
// formulas are computed.
package ruleset

import (
	"strconv"
	"strings"
)

// RowIDPlaceholder is replaced by the instance id in multirow column ids,
// formulas and action text.
const RowIDPlaceholder = "%(rowid)s"

// RuleSet is a parsed rule-set document.
type RuleSet struct {
	// ID identifies the rule set, e.g. "dnd5e".
	ID string `json:"id"`

	// Title is the human-readable name.
	Title string `json:"title,omitempty"`

	// TitleAttribute names the attribute holding a character's title.
	TitleAttribute string `json:"title_attribute,omitempty"`

	// Tables in computation order.
	Tables []*Table `json:"tables"`
}

// Table is a group of rows sharing a header.
type Table struct {
	ID      string         `json:"id"`
	Title   string         `json:"title,omitempty"`
	Columns []ColumnHeader `json:"columns,omitempty"`
	Rows    []*Row         `json:"rows"`
}

// ColumnHeader is a display-only header cell of a table.
type ColumnHeader struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// Row is a schema row. A multirow row repeats once per stored instance id
// plus one fresh instance.
type Row struct {
	ID       string    `json:"id,omitempty"`
	Title    string    `json:"title,omitempty"`
	Multirow bool      `json:"multirow,omitempty"`
	Columns  []*Column `json:"columns"`
	Action   *Action   `json:"action,omitempty"`
}

// Column is a schema cell.
type Column struct {
	// ID is relative to the table; the attribute key is "<table>.<id>".
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	DataType string   `json:"data_type"`
	Editable bool     `json:"editable"`
	Options  []string `json:"options,omitempty"`

	// Formula is computed when HasFormula is set. An empty formula is valid
	// and computes to no value.
	Formula    string `json:"formula,omitempty"`
	HasFormula bool   `json:"-"`

	Action *Action `json:"action,omitempty"`
}

// Action is a templated chat command attached to a row or column.
type Action struct {
	// Title defaults to the owning row or column title when empty.
	Title  string `json:"title,omitempty"`
	Target string `json:"target,omitempty"`

	// Content is substituted against the attributes. With Calculate set each
	// $...$ span is replaced by its calculated value instead.
	Content   string `json:"content,omitempty"`
	Calculate bool   `json:"calculate,omitempty"`
}

// Table returns the table with the given id, or nil.
func (rs *RuleSet) Table(id string) *Table {
	for _, t := range rs.Tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// RowIDsKey returns the attribute key holding the instance ids of the
// multirow rows of table.
func RowIDsKey(table string) string {
	return table + ".__rowids"
}

// Key returns the attribute key of column c in table for the given multirow
// instance. A nil rowid means the row is not repeated. Column ids also accept
// the positional "%s" form of the placeholder; ids with neither form get the
// instance id appended.
func (c *Column) Key(table string, rowid *int64) string {
	key := table + "." + c.ID
	if rowid == nil {
		return key
	}
	switch {
	case strings.Contains(key, RowIDPlaceholder):
		return ExpandRowID(key, rowid)
	case strings.Contains(key, "%s"):
		return strings.ReplaceAll(key, "%s", strconv.FormatInt(*rowid, 10))
	}
	return key + "." + strconv.FormatInt(*rowid, 10)
}

// ExpandRowID replaces RowIDPlaceholder in s with the instance id. Other text,
// a literal "%s" included, is left alone. A nil rowid leaves s unchanged.
func ExpandRowID(s string, rowid *int64) string {
	if rowid == nil {
		return s
	}
	return strings.ReplaceAll(s, RowIDPlaceholder, strconv.FormatInt(*rowid, 10))
}
