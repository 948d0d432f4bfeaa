package chat

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	linkRegexp       = regexp.MustCompile(`https?://[^\s<>"']+`)
	calcRegexp       = regexp.MustCompile(`(?:\(?[0-9]*[dD][0-9]+|\(?[0-9]+)(?:[0-9]*[dD][0-9]+|[0-9]+|[+\-*/()]|\s+)*`)
	poolRegexp       = regexp.MustCompile(`(?i)(?:[0-9]+[bapsdcf]\s*)+`)
	poolTermRegexp   = regexp.MustCompile(`(?i)([0-9]+)([bapsdcf])`)
	percentileRegexp = regexp.MustCompile(`d100`)
)

// Span is a lexed piece of a message. Kind tells the formatter how to treat
// Text; a span of kind SegmentRoll has not been rolled yet.
type Span struct {
	Kind SegmentKind
	Text string
}

type rule struct {
	kind SegmentKind
	re   *regexp.Regexp
}

// rules returns the span rules of mode in priority order. Links come first
// so dice notation inside a URL is never rolled.
func rules(mode Mode) []rule {
	rs := []rule{{SegmentLink, linkRegexp}}
	switch mode {
	case ModeAdditive:
		rs = append(rs, rule{SegmentRoll, calcRegexp})
	case ModeNarrative:
		rs = append(rs, rule{SegmentPool, poolRegexp}, rule{SegmentPercentile, percentileRegexp})
	}
	return rs
}

// Scan splits message into spans in one forward pass. At each position the
// rule whose next match starts first wins; on a tie the earlier rule wins.
// Trailing whitespace of a dice span and trailing punctuation of a link are
// given back to the surrounding text. Adjacent text is merged.
func Scan(message string, mode Mode) []Span {
	rs := rules(mode)
	next := make([][]int, len(rs))
	var spans []Span

	pos := 0
	for pos < len(message) {
		best := -1
		for i, r := range rs {
			if next[i] != nil && next[i][0] < pos {
				next[i] = nil
			}
			if next[i] == nil {
				next[i] = findFrom(r.re, message, pos)
			}
			if next[i] == nil {
				continue
			}
			if best == -1 || next[i][0] < next[best][0] {
				best = i
			}
		}
		if best == -1 {
			break
		}

		start, end := next[best][0], next[best][1]
		text := message[start:end]
		if rs[best].kind == SegmentLink {
			text = strings.TrimRight(text, ".,;:!?")
		} else {
			text = strings.TrimRightFunc(text, unicode.IsSpace)
		}
		end = start + len(text)

		spans = appendSpan(spans, Span{Kind: SegmentText, Text: message[pos:start]})
		spans = append(spans, Span{Kind: rs[best].kind, Text: text})
		next[best] = nil
		pos = end
	}

	return appendSpan(spans, Span{Kind: SegmentText, Text: message[pos:]})
}

// findFrom returns the absolute location of the first non-empty match of re
// at or after pos.
func findFrom(re *regexp.Regexp, s string, pos int) []int {
	loc := re.FindStringIndex(s[pos:])
	if loc == nil || loc[0] == loc[1] {
		return nil
	}
	return []int{pos + loc[0], pos + loc[1]}
}

func appendSpan(spans []Span, sp Span) []Span {
	if sp.Kind != SegmentText {
		return append(spans, sp)
	}
	if sp.Text == "" {
		return spans
	}
	if n := len(spans); n > 0 && spans[n-1].Kind == SegmentText {
		spans[n-1].Text += sp.Text
		return spans
	}
	return append(spans, sp)
}
