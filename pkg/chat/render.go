package chat

import (
	"html"
	"strings"
)

var symbolTitles = map[Symbol]string{
	Success:   "Success",
	Advantage: "Advantage",
	Triumph:   "Triumph",
	Failure:   "Failure",
	Threat:    "Threat",
	Despair:   "Despair",
	Lightside: "Lightside",
	Darkside:  "Darkside",
}

// RenderHTML renders segments as HTML. User text is escaped. Narrative dice
// render as empty spans with "eote eote-<name>" classes for a stylesheet to
// draw: the dice rolled, their faces, then the net result.
func RenderHTML(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case SegmentLink:
			u := html.EscapeString(seg.Text)
			sb.WriteString(`<a href="` + u + `" target="_blank" rel="noopener noreferrer">` + u + `</a>`)
		case SegmentRoll, SegmentPercentile:
			sb.WriteString(`<span class="dice-roll">` + html.EscapeString(seg.Text) + `</span>`)
		case SegmentPool:
			if seg.Pool == nil {
				sb.WriteString(html.EscapeString(seg.Text))
				continue
			}
			renderPool(&sb, seg.Pool)
		default:
			sb.WriteString(html.EscapeString(seg.Text))
		}
	}
	return sb.String()
}

func renderPool(sb *strings.Builder, p *PoolResult) {
	dice := make([]string, 0, len(p.Dice))
	faces := make([]string, 0, len(p.Dice))
	for _, d := range p.Dice {
		spec, f := faceOf(d)
		dice = append(dice, symbolSpan(string(d.Type), spec.title))
		if f.class != "" {
			faces = append(faces, symbolSpan(f.class, f.title))
		}
	}

	sb.WriteString(strings.Join(dice, " "))
	sb.WriteString(" = ")
	sb.WriteString(strings.Join(faces, " "))
	sb.WriteString(" = ")
	for _, s := range p.Outcome.Symbols() {
		sb.WriteString(symbolSpan(string(s), symbolTitles[s]))
	}
}

func symbolSpan(class, title string) string {
	return `<span class="eote eote-` + html.EscapeString(class) + `" title="` + html.EscapeString(title) + `"></span>`
}
