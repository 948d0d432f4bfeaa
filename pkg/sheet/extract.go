package sheet

import (
	"github.com/lemonberrylabs/webrpg-engine/pkg/ruleset"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// Extract collects the attributes a caller stores for an edited sheet: the
// value of every editable cell that is not empty, and for each table the ids
// of the multirow instances holding at least one such value. Computed cells
// are not stored; they are recomputed on the next pass.
//
// A multirow instance left blank is dropped, so the fresh instance offered
// by Compute only persists once something is entered into it.
func Extract(s *Sheet) types.Attributes {
	attrs := types.NewAttributes()
	if s == nil {
		return attrs
	}

	for _, table := range s.Tables {
		var rowids []types.Value
		for _, row := range table.Rows {
			hasValue := false
			for _, cell := range row.Columns {
				if !cell.Editable || isEmpty(cell.Value) {
					continue
				}
				attrs.Set(cell.ID, cell.Value)
				hasValue = true
			}
			if row.Multirow != nil && hasValue {
				rowids = append(rowids, types.NewInt(*row.Multirow))
			}
		}
		if len(rowids) > 0 {
			attrs.Set(ruleset.RowIDsKey(table.ID), types.NewList(rowids))
		}
	}
	return attrs
}

func isEmpty(v types.Value) bool {
	switch v.Type() {
	case types.TypeNull:
		return true
	case types.TypeString:
		return v.AsString() == ""
	}
	return false
}
