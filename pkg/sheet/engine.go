package sheet

import (
	"errors"
	"io"
	"log"

	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
	"github.com/lemonberrylabs/webrpg-engine/pkg/formula"
	"github.com/lemonberrylabs/webrpg-engine/pkg/ruleset"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// Engine computes sheets. An Engine holds no per-pass state; each Compute
// call works on its own Context.
type Engine struct {
	logger     *log.Logger
	actionDice dice.Source
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for formula failures. Failures are discarded by
// default.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithActionDice rolls dice inside the $...$ spans of calculated actions,
// drawing from src. Cell formulas never roll dice.
func WithActionDice(src dice.Source) Option {
	return func(e *Engine) {
		e.actionDice = src
	}
}

// NewEngine creates a sheet engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute builds the sheet of rs for a character with the stored attrs.
//
// Tables, rows and columns are visited in schema order. Each formula result
// is written to the working context before the next cell is computed. A
// formula that fails to calculate gives the cell a null value and the pass
// continues. attrs itself is never modified.
func (e *Engine) Compute(rs *ruleset.RuleSet, attrs types.Attributes) (*Sheet, error) {
	if rs == nil {
		return nil, errors.New("sheet: nil rule set")
	}

	ctx := NewContext(attrs)
	out := &Sheet{
		RuleSet: rs.ID,
		Tables:  make([]Table, 0, len(rs.Tables)),
	}

	for _, st := range rs.Tables {
		table := Table{
			ID:      st.ID,
			Title:   st.Title,
			Columns: st.Columns,
			Rows:    []Row{},
		}
		for _, sr := range st.Rows {
			if !sr.Multirow {
				table.Rows = append(table.Rows, e.computeRow(ctx, st, sr, nil))
				continue
			}
			for _, id := range ctx.RowIDs(st.ID) {
				id := id
				table.Rows = append(table.Rows, e.computeRow(ctx, st, sr, &id))
			}
		}
		out.Tables = append(out.Tables, table)
	}

	out.Title = Title(rs, ctx.Attributes())
	return out, nil
}

func (e *Engine) computeRow(ctx *Context, st *ruleset.Table, sr *ruleset.Row, rowid *int64) Row {
	row := Row{
		Title:    sr.Title,
		Multirow: rowid,
		Columns:  make([]Cell, 0, len(sr.Columns)),
	}

	for _, sc := range sr.Columns {
		key := sc.Key(st.ID, rowid)
		cell := Cell{
			ID:       key,
			DataType: sc.DataType,
			Editable: sc.Editable,
			Options:  sc.Options,
		}

		if sc.HasFormula {
			cell.Value = e.computeFormula(ctx, key, ruleset.ExpandRowID(sc.Formula, rowid))
		} else if v, ok := ctx.Get(key); ok {
			cell.Value = v
		} else {
			cell.Value = types.NewString("")
		}
		row.Columns = append(row.Columns, cell)
	}

	// Column actions see every value of the instance.
	for i, sc := range sr.Columns {
		if sc.Action != nil {
			row.Columns[i].Action = e.computeAction(ctx, sc.Action, sc.Title, rowid)
		}
	}

	if sr.Action != nil {
		row.Action = e.computeAction(ctx, sr.Action, sr.Title, rowid)
	}

	return row
}

func (e *Engine) computeFormula(ctx *Context, key, text string) types.Value {
	v, err := formula.Evaluate(text, ctx.Attributes())
	if err != nil {
		e.logger.Printf("Warning: formula for %s failed: %v", key, err)
		v = types.Null
	}
	ctx.Set(key, v)
	return v
}

func (e *Engine) computeAction(ctx *Context, sa *ruleset.Action, defaultTitle string, rowid *int64) *Action {
	a := &Action{
		Title:  defaultTitle,
		Target: DefaultActionTarget,
	}
	if sa.Title != "" {
		a.Title = formula.Interpolate(ruleset.ExpandRowID(sa.Title, rowid), ctx.Attributes())
	}
	if sa.Target != "" {
		a.Target = sa.Target
	}
	if sa.Content != "" {
		content := ruleset.ExpandRowID(sa.Content, rowid)
		if sa.Calculate {
			a.Content = formula.CalculateSpans(content, ctx.Attributes(), e.actionDice)
		} else {
			a.Content = formula.Interpolate(content, ctx.Attributes())
		}
	}
	return a
}
