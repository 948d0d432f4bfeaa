// Package sheet computes character sheets from a rule set and a character's
// stored attributes.
package sheet

import (
	"github.com/lemonberrylabs/webrpg-engine/pkg/ruleset"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// DefaultActionTarget is the target of actions that do not name one.
const DefaultActionTarget = "setChatMessage"

// UnnamedTitle is the title of a character without a title attribute.
const UnnamedTitle = "Unnamed"

// Sheet is a computed character sheet.
type Sheet struct {
	RuleSet string  `json:"rule_set"`
	Title   string  `json:"title"`
	Tables  []Table `json:"tables"`
}

// Table is a computed table. Multirow schema rows are expanded into one Row
// per instance.
type Table struct {
	ID      string                 `json:"id"`
	Title   string                 `json:"title,omitempty"`
	Columns []ruleset.ColumnHeader `json:"columns,omitempty"`
	Rows    []Row                  `json:"rows"`
}

// Row is a computed row. Multirow is the instance id of a repeated row and
// nil otherwise.
type Row struct {
	Title    string  `json:"title,omitempty"`
	Multirow *int64  `json:"multirow,omitempty"`
	Columns  []Cell  `json:"columns"`
	Action   *Action `json:"action,omitempty"`
}

// Cell is a computed column. ID is the full attribute key.
type Cell struct {
	ID       string      `json:"id"`
	DataType string      `json:"data_type"`
	Editable bool        `json:"editable"`
	Options  []string    `json:"options,omitempty"`
	Value    types.Value `json:"value"`
	Action   *Action     `json:"action,omitempty"`
}

// Action is a computed action ready to be sent to its target.
type Action struct {
	Title   string `json:"title"`
	Target  string `json:"target"`
	Content string `json:"content"`
}

// Cell returns the cell with the given attribute key, or nil.
func (s *Sheet) Cell(id string) *Cell {
	for ti := range s.Tables {
		for ri := range s.Tables[ti].Rows {
			row := &s.Tables[ti].Rows[ri]
			for ci := range row.Columns {
				if row.Columns[ci].ID == id {
					return &row.Columns[ci]
				}
			}
		}
	}
	return nil
}

// Title returns a character's title: the value of the rule set's title
// attribute, or UnnamedTitle.
func Title(rs *ruleset.RuleSet, attrs types.Attributes) string {
	if rs == nil || rs.TitleAttribute == "" {
		return UnnamedTitle
	}
	v, ok := attrs.Get(rs.TitleAttribute)
	if !ok || v.IsNull() {
		return UnnamedTitle
	}
	if v.Type() == types.TypeString {
		return v.AsString()
	}
	return v.MinimalString()
}
