package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxSourceSize is the maximum rule-set document size in bytes (512 KB).
const MaxSourceSize = 512 * 1024

// DefaultDataType is used for columns that do not declare a data type.
const DefaultDataType = "text"

// ParseError represents an error encountered while parsing a rule set.
type ParseError struct {
	Message  string
	Location string // e.g., "column 'str' in table 'abilities'"
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Parse parses a YAML or JSON rule-set document. Keys the engine does not
// use are ignored.
//
// Top-level keys: "id", "name" (display title), "title" (the attribute that
// holds a character's title) and "stats" (the list of tables; "tables" is
// accepted as well).
func Parse(source []byte) (*RuleSet, error) {
	if len(source) > MaxSourceSize {
		return nil, &ParseError{Message: fmt.Sprintf("rule set size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(source, &raw); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if raw.Kind != yaml.DocumentNode || len(raw.Content) == 0 {
		return nil, &ParseError{Message: "empty rule set"}
	}

	root := raw.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "rule set must be a mapping"}
	}

	rs := &RuleSet{}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]

		switch key {
		case "id":
			rs.ID = val.Value
		case "name":
			rs.Title = val.Value
		case "title":
			rs.TitleAttribute = val.Value
		case "stats", "tables":
			tables, err := parseTables(val)
			if err != nil {
				return nil, err
			}
			for _, t := range tables {
				if seen[t.ID] {
					return nil, &ParseError{
						Message:  "duplicate table id",
						Location: fmt.Sprintf("table '%s'", t.ID),
					}
				}
				seen[t.ID] = true
			}
			rs.Tables = append(rs.Tables, tables...)
		}
	}

	return rs, nil
}

// LoadFile reads and parses a rule-set file. A document without an id takes
// the file name without its extension.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule set %s: %w", path, err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if rs.ID == "" {
		rs.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return rs, nil
}

func parseTables(node *yaml.Node) ([]*Table, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{Message: "stats must be a list of tables"}
	}

	tables := make([]*Table, 0, len(node.Content))
	for idx, item := range node.Content {
		t, err := parseTable(item, idx)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func parseTable(node *yaml.Node, idx int) (*Table, error) {
	loc := fmt.Sprintf("table #%d", idx)
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "table must be a mapping", Location: loc}
	}

	t := &Table{}
	var rowsNode, headerNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch key {
		case "id":
			t.ID = val.Value
		case "title":
			t.Title = val.Value
		case "columns":
			headerNode = val
		case "rows":
			rowsNode = val
		}
	}

	if t.ID == "" {
		return nil, &ParseError{Message: "table must have an 'id'", Location: loc}
	}
	loc = fmt.Sprintf("table '%s'", t.ID)

	if headerNode != nil {
		headers, err := parseHeaders(headerNode, loc)
		if err != nil {
			return nil, err
		}
		t.Columns = headers
	}

	if rowsNode == nil {
		return t, nil
	}
	if rowsNode.Kind != yaml.SequenceNode {
		return nil, &ParseError{Message: "rows must be a list", Location: loc}
	}
	for ridx, item := range rowsNode.Content {
		row, err := parseRow(item, fmt.Sprintf("row #%d in %s", ridx, loc))
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// parseHeaders accepts plain titles or {id, title} mappings.
func parseHeaders(node *yaml.Node, loc string) ([]ColumnHeader, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{Message: "columns must be a list", Location: loc}
	}

	headers := make([]ColumnHeader, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			headers = append(headers, ColumnHeader{Title: item.Value})
		case yaml.MappingNode:
			var h ColumnHeader
			for i := 0; i+1 < len(item.Content); i += 2 {
				switch item.Content[i].Value {
				case "id":
					h.ID = item.Content[i+1].Value
				case "title":
					h.Title = item.Content[i+1].Value
				}
			}
			headers = append(headers, h)
		default:
			return nil, &ParseError{Message: "column header must be a string or mapping", Location: loc}
		}
	}
	return headers, nil
}

func parseRow(node *yaml.Node, loc string) (*Row, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "row must be a mapping", Location: loc}
	}

	row := &Row{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch key {
		case "id":
			row.ID = val.Value
		case "title":
			row.Title = val.Value
		case "multirow":
			b, err := boolFromNode(val, loc)
			if err != nil {
				return nil, err
			}
			row.Multirow = b
		case "columns":
			if val.Kind != yaml.SequenceNode {
				return nil, &ParseError{Message: "columns must be a list", Location: loc}
			}
			for _, item := range val.Content {
				col, err := parseColumn(item, loc)
				if err != nil {
					return nil, err
				}
				row.Columns = append(row.Columns, col)
			}
		case "action":
			action, err := parseAction(val, loc)
			if err != nil {
				return nil, err
			}
			row.Action = action
		}
	}

	return row, nil
}

func parseColumn(node *yaml.Node, rowLoc string) (*Column, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "column must be a mapping", Location: rowLoc}
	}

	col := &Column{DataType: DefaultDataType}
	var optionsNode, actionNode, editableNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch key {
		case "id":
			col.ID = val.Value
		case "title":
			col.Title = val.Value
		case "data_type":
			if val.Value != "" {
				col.DataType = val.Value
			}
		case "editable":
			editableNode = val
		case "options":
			optionsNode = val
		case "formula":
			if val.Kind != yaml.ScalarNode {
				return nil, &ParseError{Message: "formula must be a string", Location: rowLoc}
			}
			col.Formula = val.Value
			col.HasFormula = true
		case "action":
			actionNode = val
		}
	}

	if col.ID == "" {
		return nil, &ParseError{Message: "column must have an 'id'", Location: rowLoc}
	}
	loc := fmt.Sprintf("column '%s' in %s", col.ID, rowLoc)

	if editableNode != nil {
		b, err := boolFromNode(editableNode, loc)
		if err != nil {
			return nil, err
		}
		col.Editable = b
	}
	if optionsNode != nil {
		opts, err := parseOptions(optionsNode, loc)
		if err != nil {
			return nil, err
		}
		col.Options = opts
	}
	if actionNode != nil {
		action, err := parseAction(actionNode, loc)
		if err != nil {
			return nil, err
		}
		col.Action = action
	}

	return col, nil
}

// parseOptions accepts scalar choices or {value, title} mappings.
func parseOptions(node *yaml.Node, loc string) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{Message: "options must be a list", Location: loc}
	}

	opts := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			opts = append(opts, item.Value)
		case yaml.MappingNode:
			for i := 0; i+1 < len(item.Content); i += 2 {
				if item.Content[i].Value == "value" {
					opts = append(opts, item.Content[i+1].Value)
				}
			}
		default:
			return nil, &ParseError{Message: "option must be a string or mapping", Location: loc}
		}
	}
	return opts, nil
}

func parseAction(node *yaml.Node, loc string) (*Action, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "action must be a mapping", Location: loc}
	}

	a := &Action{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch key {
		case "title":
			a.Title = val.Value
		case "target":
			a.Target = val.Value
		case "content":
			a.Content = val.Value
		case "calculate":
			b, err := boolFromNode(val, loc)
			if err != nil {
				return nil, err
			}
			a.Calculate = b
		}
	}
	return a, nil
}

func boolFromNode(node *yaml.Node, loc string) (bool, error) {
	if node.Kind != yaml.ScalarNode {
		return false, &ParseError{Message: "expected a boolean", Location: loc}
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return false, &ParseError{Message: fmt.Sprintf("expected a boolean, got %q", node.Value), Location: loc}
	}
	return b, nil
}
