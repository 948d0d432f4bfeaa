package chat

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"additive", ModeAdditive, false},
		{"d20", ModeAdditive, false},
		{"narrative-pool", ModeNarrative, false},
		{"EOTE", ModeNarrative, false},
		{" narrative ", ModeNarrative, false},
		{"gurps", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("mode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		message string
		mode    Mode
		want    []Span
	}{
		{
			"additive expression",
			"I hit for 2d6+3 damage",
			ModeAdditive,
			[]Span{{SegmentText, "I hit for "}, {SegmentRoll, "2d6+3"}, {SegmentText, " damage"}},
		},
		{
			"link wins over dice",
			"see https://x.io/1d6. ok",
			ModeAdditive,
			[]Span{{SegmentText, "see "}, {SegmentLink, "https://x.io/1d6"}, {SegmentText, ". ok"}},
		},
		{
			"pool and percentile",
			"roll 2a 1p and d100",
			ModeNarrative,
			[]Span{{SegmentText, "roll "}, {SegmentPool, "2a 1p"}, {SegmentText, " and "}, {SegmentPercentile, "d100"}},
		},
		{
			"earliest match first",
			"d100 then 1d",
			ModeNarrative,
			[]Span{{SegmentPercentile, "d100"}, {SegmentText, " then "}, {SegmentPool, "1d"}},
		},
		{
			"uppercase percentile is text",
			"D100",
			ModeNarrative,
			[]Span{{SegmentText, "D100"}},
		},
		{
			"unknown mode",
			"2d6 at http://a.b",
			Mode("other"),
			[]Span{{SegmentText, "2d6 at "}, {SegmentLink, "http://a.b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.message, tt.mode)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Scan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatAdditive(t *testing.T) {
	tests := []struct {
		name    string
		message string
		faces   []int
		want    string
	}{
		{"sum with modifier", "Attack 2d6+3!", []int{4, 5}, "Attack 2d6+3 = ( 4 + 5 ) + 3 = 12!"},
		{"single die", "d20", []int{17}, "d20 = 17"},
		{"plain number untouched", "I have 3 apples", []int{1}, "I have 3 apples"},
		{"normalized arithmetic untouched", "7 / 2", []int{1}, "7 / 2"},
		{"rounds half to even", "5/2", []int{1}, "5/2 = 5 / 2 = 2"},
		{"rounds up", "7/2", []int{1}, "7/2 = 7 / 2 = 4"},
		{"unbalanced stays text", "(2d6", []int{3, 3}, "(2d6"},
		{"division by zero stays text", "1/0", []int{1}, "1/0"},
		{"negative", "-1 + d4", []int{2}, "-1 + d4 = 1 + 2 = 3"},
		{"overflowing total stays text", "d4 + 9223372036854775807", []int{2}, "d4 + 9223372036854775807"},
		{"huge product stays text", "d6 * 9999999999 * 9999999999", []int{3}, "d6 * 9999999999 * 9999999999"},
		{"largest total", "d4 + 9223372036854775806", []int{1}, "d4 + 9223372036854775806 = 1 + 9223372036854775806 = 9223372036854775807"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(dice.Sequence(tt.faces...))
			got := PlainText(f.Format(tt.message, ModeAdditive))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAdditiveSegments(t *testing.T) {
	f := NewFormatter(dice.Sequence(4, 5))
	got := f.Format("Attack 2d6+3!", ModeAdditive)

	want := []Segment{
		{Kind: SegmentText, Text: "Attack "},
		{
			Kind: SegmentRoll,
			Text: "2d6+3 = ( 4 + 5 ) + 3 = 12",
			Roll: &RollResult{Expr: "2d6+3", Rolled: "( 4 + 5 ) + 3", Total: 12},
		},
		{Kind: SegmentText, Text: "!"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatNarrative(t *testing.T) {
	tests := []struct {
		name    string
		message string
		faces   []int
		want    string
	}{
		{"triumph", "1p", []int{12}, "1p = 1 success, 1 triumph"},
		{"difficulty", "2d", []int{3, 8}, "2d = 3 failure, 1 threat"},
		{"despair", "1c", []int{12}, "1c = 1 failure, 1 despair"},
		{"cancelling", "1a 1s", []int{2, 3}, "1a 1s = no effect"},
		{"force", "2f", []int{7, 10}, "2f = 2 darkside, 2 lightside"},
		{"blank boost", "1b", []int{1}, "1b = no effect"},
		{"percentile", "d100", []int{57}, "d100 = 57"},
		{"text around", "go 1B!", []int{5}, "go 1B = 2 advantage!"},
		{"huge pool stays text", "5000b", []int{1}, "5000b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(dice.Sequence(tt.faces...))
			got := PlainText(f.Format(tt.message, ModeNarrative))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPoolCountersProperties(t *testing.T) {
	f := NewFormatter(dice.NewSeeded(2024))
	for i := 0; i < 300; i++ {
		segs := f.Format("5p 5c 3a 3d 2b 2s 2f", ModeNarrative)
		if len(segs) != 1 || segs[0].Pool == nil {
			t.Fatalf("segments = %+v", segs)
		}
		p := segs[0].Pool
		if len(p.Dice) != 22 {
			t.Fatalf("rolled %d dice, want 22", len(p.Dice))
		}

		o := p.Outcome
		for name, n := range map[string]int{
			"success": o.Success, "advantage": o.Advantage, "triumph": o.Triumph,
			"failure": o.Failure, "threat": o.Threat, "despair": o.Despair,
			"lightside": o.Lightside, "darkside": o.Darkside,
		} {
			if n < 0 {
				t.Fatalf("%s counter negative: %d", name, n)
			}
		}

		triumphs, despairs := 0, 0
		for _, d := range p.Dice {
			if d.Face < 1 || d.Face > d.Type.Sides() {
				t.Fatalf("%s face %d out of range", d.Type, d.Face)
			}
			if d.Type == Proficiency && d.Face == 12 {
				triumphs++
			}
			if d.Type == Challenge && d.Face == 12 {
				despairs++
			}
		}
		if o.Triumph != triumphs {
			t.Fatalf("triumph = %d, max-face proficiency rolls = %d", o.Triumph, triumphs)
		}
		if o.Despair != despairs {
			t.Fatalf("despair = %d, max-face challenge rolls = %d", o.Despair, despairs)
		}

		symbols := o.Symbols()
		count := func(s Symbol) int {
			n := 0
			for _, x := range symbols {
				if x == s {
					n++
				}
			}
			return n
		}
		if count(Triumph) != o.Triumph || count(Despair) != o.Despair {
			t.Fatalf("rendered triumph/despair %d/%d, counters %d/%d", count(Triumph), count(Despair), o.Triumph, o.Despair)
		}
		if count(Success) > 0 && count(Failure) > 0 {
			t.Fatal("net result shows both success and failure")
		}
	}
}

func TestRenderHTML(t *testing.T) {
	f := NewFormatter(dice.Sequence(7))
	segs := f.Format("<b>hi</b> 1a http://x.io/?a=1&b=2", ModeNarrative)
	got := RenderHTML(segs)

	wantParts := []string{
		"&lt;b&gt;hi&lt;/b&gt; ",
		`<span class="eote eote-ability" title="Ability Die"></span> = ` +
			`<span class="eote eote-success-advantage" title="Success &amp; Advantage"></span> = ` +
			`<span class="eote eote-success" title="Success"></span>` +
			`<span class="eote eote-advantage" title="Advantage"></span>`,
		`<a href="http://x.io/?a=1&amp;b=2" target="_blank" rel="noopener noreferrer">http://x.io/?a=1&amp;b=2</a>`,
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("rendered HTML missing %q\ngot: %s", part, got)
		}
	}
	if strings.Contains(got, "<b>") {
		t.Errorf("user markup not escaped: %s", got)
	}
}

func TestRenderHTMLRoll(t *testing.T) {
	f := NewFormatter(dice.Sequence(3))
	got := RenderHTML(f.Format("d6 <3", ModeAdditive))
	want := `<span class="dice-roll">d6 = 3</span> &lt;3`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
