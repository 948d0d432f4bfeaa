// Package chat formats chat messages, replacing dice expressions with their
// rolled outcomes. A formatted message is a list of typed segments so that a
// renderer can style dice without parsing text again.
package chat

import (
	"fmt"
	"strings"
)

// Mode selects the dice scheme of a session.
type Mode string

const (
	// ModeAdditive rolls arithmetic dice expressions such as "2d6 + 3".
	ModeAdditive Mode = "additive"
	// ModeNarrative rolls symbolic dice pools such as "2a 1p 2d", and d100.
	ModeNarrative Mode = "narrative-pool"
)

// ParseMode returns the mode named by s. The legacy names "d20" and "eote"
// are accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "additive", "d20":
		return ModeAdditive, nil
	case "narrative-pool", "narrative", "eote":
		return ModeNarrative, nil
	}
	return "", fmt.Errorf("unknown dice mode %q", s)
}

// SegmentKind identifies the content of a Segment.
type SegmentKind string

const (
	SegmentText       SegmentKind = "text"
	SegmentLink       SegmentKind = "link"
	SegmentRoll       SegmentKind = "roll"
	SegmentPool       SegmentKind = "pool"
	SegmentPercentile SegmentKind = "percentile"
)

// Segment is one piece of a formatted message. Text is always set: the
// literal text, the link URL, or the plain rendering of a roll.
type Segment struct {
	Kind SegmentKind `json:"kind"`
	Text string      `json:"text"`

	Roll       *RollResult `json:"roll,omitempty"`
	Pool       *PoolResult `json:"pool,omitempty"`
	Percentile int         `json:"percentile,omitempty"`
}

// RollResult is an evaluated additive dice expression.
type RollResult struct {
	// Expr is the expression as written.
	Expr string `json:"expr"`
	// Rolled is the expression with every die replaced by its draw.
	Rolled string `json:"rolled"`
	// Total is the result rounded half to even.
	Total int64 `json:"total"`
}

// PoolResult is a rolled narrative dice pool.
type PoolResult struct {
	// Expr is the pool as written, e.g. "2a 1p".
	Expr    string    `json:"expr"`
	Dice    []PoolDie `json:"dice"`
	Outcome Outcome   `json:"outcome"`
}

// PlainText renders segments without markup.
func PlainText(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// appendText adds text to segments, merging it into a trailing text segment.
func appendText(segments []Segment, text string) []Segment {
	if text == "" {
		return segments
	}
	if n := len(segments); n > 0 && segments[n-1].Kind == SegmentText {
		segments[n-1].Text += text
		return segments
	}
	return append(segments, Segment{Kind: SegmentText, Text: text})
}
