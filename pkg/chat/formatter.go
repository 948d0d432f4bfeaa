package chat

import (
	"math"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
	"github.com/lemonberrylabs/webrpg-engine/pkg/formula"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// Formatter rolls the dice found in chat messages.
//
// A Formatter draws from a single dice.Source and is not safe for
// concurrent use unless the source is.
type Formatter struct {
	src dice.Source
}

// NewFormatter creates a formatter drawing from src.
func NewFormatter(src dice.Source) *Formatter {
	return &Formatter{src: src}
}

// Format scans message for the dice expressions of mode and returns the
// message as segments with every expression rolled. An expression that
// cannot be evaluated is kept as plain text. Links are recognised in every
// mode; an unknown mode rolls nothing.
func (f *Formatter) Format(message string, mode Mode) []Segment {
	var segments []Segment
	for _, sp := range Scan(message, mode) {
		switch sp.Kind {
		case SegmentLink:
			segments = append(segments, Segment{Kind: SegmentLink, Text: sp.Text})
		case SegmentRoll:
			if seg, ok := f.roll(sp.Text); ok {
				segments = append(segments, seg)
			} else {
				segments = appendText(segments, sp.Text)
			}
		case SegmentPool:
			if seg, ok := f.pool(sp.Text); ok {
				segments = append(segments, seg)
			} else {
				segments = appendText(segments, sp.Text)
			}
		case SegmentPercentile:
			n := dice.Roll(f.src, 100)
			segments = append(segments, Segment{
				Kind:       SegmentPercentile,
				Text:       "d100 = " + strconv.Itoa(n),
				Percentile: n,
			})
		default:
			segments = appendText(segments, sp.Text)
		}
	}
	return segments
}

// roll evaluates an additive expression. The text is "expr" when rolling
// changed nothing, "expr = total" when the rolled form is just the total and
// "expr = rolled = total" otherwise. Unchanged expressions are reported as
// not rolled.
func (f *Formatter) roll(expr string) (Segment, bool) {
	rolled, err := formula.Roll(expr, f.src)
	if err != nil {
		return Segment{}, false
	}
	joined := formula.Join(rolled.Tokens)
	if joined == strings.TrimSpace(expr) {
		return Segment{}, false
	}

	total, ok := roundTotal(rolled.Total)
	if !ok {
		return Segment{}, false
	}
	totalText := strconv.FormatInt(total, 10)

	text := expr + " = " + totalText
	if joined != totalText {
		text = expr + " = " + joined + " = " + totalText
	}
	return Segment{
		Kind: SegmentRoll,
		Text: text,
		Roll: &RollResult{Expr: expr, Rolled: joined, Total: total},
	}, true
}

// roundTotal rounds a rolled total half to even. Totals outside the int64
// range are reported as not representable.
func roundTotal(v types.Value) (int64, bool) {
	if v.Type() == types.TypeInt {
		return v.AsInt(), true
	}
	n, ok := v.AsNumber()
	if !ok {
		return 0, false
	}
	rounded := math.RoundToEven(n)
	if !types.InInt64Range(rounded) {
		return 0, false
	}
	return int64(rounded), true
}

// pool rolls a narrative pool expression. Pools of more than dice.MaxCount
// dice are not rolled.
func (f *Formatter) pool(expr string) (Segment, bool) {
	var terms []poolTerm
	total := 0
	for _, m := range poolTermRegexp.FindAllStringSubmatch(expr, -1) {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			return Segment{}, false
		}
		total += count
		if total > dice.MaxCount {
			return Segment{}, false
		}
		terms = append(terms, poolTerm{count: count, letter: strings.ToLower(m[2])[0]})
	}
	if len(terms) == 0 {
		return Segment{}, false
	}

	res := rollPool(expr, terms, f.src)
	return Segment{
		Kind: SegmentPool,
		Text: expr + " = " + res.Outcome.Summary(),
		Pool: res,
	}, true
}
