package chat

import (
	"strconv"
	"strings"

	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
)

// Symbol is a narrative dice outcome.
type Symbol string

const (
	Success   Symbol = "success"
	Advantage Symbol = "advantage"
	Triumph   Symbol = "triumph"
	Failure   Symbol = "failure"
	Threat    Symbol = "threat"
	Despair   Symbol = "despair"
	Lightside Symbol = "lightside"
	Darkside  Symbol = "darkside"
)

// DieType is a narrative die.
type DieType string

const (
	Boost       DieType = "boost"
	Ability     DieType = "ability"
	Proficiency DieType = "proficiency"
	Setback     DieType = "setback"
	Difficulty  DieType = "difficulty"
	Challenge   DieType = "challenge"
	Force       DieType = "force"
)

// face is one side of a narrative die. Blank faces have no class and no
// symbols.
type face struct {
	class   string
	title   string
	symbols []Symbol
}

type dieSpec struct {
	typ   DieType
	title string
	faces []face // index is face-1
}

var (
	blank       = face{}
	fSuccess    = face{"success", "Success", []Symbol{Success}}
	fSuccess2   = face{"success-double", "Double Success", []Symbol{Success, Success}}
	fAdvantage  = face{"advantage", "Advantage", []Symbol{Advantage}}
	fAdvantage2 = face{"advantage-double", "Double Advantage", []Symbol{Advantage, Advantage}}
	fSuccessAdv = face{"success-advantage", "Success & Advantage", []Symbol{Success, Advantage}}
	fTriumph    = face{"triumph", "Triumph", []Symbol{Triumph, Success}}
	fFailure    = face{"failure", "Failure", []Symbol{Failure}}
	fFailure2   = face{"failure-double", "Double Failure", []Symbol{Failure, Failure}}
	fThreat     = face{"threat", "Threat", []Symbol{Threat}}
	fThreat2    = face{"threat-double", "Double Threat", []Symbol{Threat, Threat}}
	fFailThreat = face{"failure-threat", "Failure & Threat", []Symbol{Failure, Threat}}
	fDespair    = face{"despair", "Despair", []Symbol{Despair, Failure}}
	fDarkside   = face{"darkside", "Darkside", []Symbol{Darkside}}
	fDarkside2  = face{"darkside-double", "Double Darkside", []Symbol{Darkside, Darkside}}
	fLightside  = face{"lightside", "Lightside", []Symbol{Lightside}}
	fLightside2 = face{"lightside-double", "Double Lightside", []Symbol{Lightside, Lightside}}
)

var poolDieSpecs = map[byte]dieSpec{
	'b': {Boost, "Boost Die", []face{blank, blank, fSuccess, fSuccessAdv, fAdvantage2, fAdvantage}},
	'a': {Ability, "Ability Die", []face{blank, fSuccess, fSuccess, fSuccess2, fAdvantage, fAdvantage, fSuccessAdv, fAdvantage2}},
	'p': {Proficiency, "Proficiency Die", []face{
		blank, fSuccess, fSuccess, fSuccess2, fSuccess2, fAdvantage,
		fSuccessAdv, fSuccessAdv, fSuccessAdv, fAdvantage2, fAdvantage2, fTriumph,
	}},
	's': {Setback, "Setback Die", []face{blank, blank, fFailure, fFailure, fThreat, fThreat}},
	'd': {Difficulty, "Difficulty Die", []face{blank, fFailure, fFailure2, fThreat, fThreat, fThreat, fThreat2, fFailThreat}},
	'c': {Challenge, "Challenge Die", []face{
		blank, fFailure, fFailure, fFailure2, fFailure2, fThreat,
		fThreat, fFailThreat, fFailThreat, fThreat2, fThreat2, fDespair,
	}},
	'f': {Force, "Force Die", []face{
		fDarkside, fDarkside, fDarkside, fDarkside, fDarkside, fDarkside,
		fDarkside2, fLightside, fLightside, fLightside2, fLightside2, fLightside2,
	}},
}

// PoolDie is one rolled narrative die.
type PoolDie struct {
	Type DieType `json:"type"`
	// Face is the rolled side, 1-based.
	Face    int      `json:"face"`
	Symbols []Symbol `json:"symbols,omitempty"`
}

// Sides returns the number of faces of a die type, or 0 for an unknown type.
func (t DieType) Sides() int {
	for _, spec := range poolDieSpecs {
		if spec.typ == t {
			return len(spec.faces)
		}
	}
	return 0
}

// Outcome holds the symbol counters of a pool before cancellation.
type Outcome struct {
	Success   int `json:"success"`
	Advantage int `json:"advantage"`
	Triumph   int `json:"triumph"`
	Failure   int `json:"failure"`
	Threat    int `json:"threat"`
	Despair   int `json:"despair"`
	Lightside int `json:"lightside"`
	Darkside  int `json:"darkside"`
}

func (o *Outcome) add(s Symbol) {
	switch s {
	case Success:
		o.Success++
	case Advantage:
		o.Advantage++
	case Triumph:
		o.Triumph++
	case Failure:
		o.Failure++
	case Threat:
		o.Threat++
	case Despair:
		o.Despair++
	case Lightside:
		o.Lightside++
	case Darkside:
		o.Darkside++
	}
}

// NetSuccess is successes minus failures.
func (o Outcome) NetSuccess() int { return o.Success - o.Failure }

// NetAdvantage is advantages minus threats.
func (o Outcome) NetAdvantage() int { return o.Advantage - o.Threat }

// Symbols returns the net result as a symbol list: net successes or
// failures, net advantages or threats, then triumphs, despairs, dark side
// and light side points.
func (o Outcome) Symbols() []Symbol {
	var out []Symbol
	repeat := func(s Symbol, n int) {
		for i := 0; i < n; i++ {
			out = append(out, s)
		}
	}

	if n := o.NetSuccess(); n > 0 {
		repeat(Success, n)
	} else if n < 0 {
		repeat(Failure, -n)
	}
	if n := o.NetAdvantage(); n > 0 {
		repeat(Advantage, n)
	} else if n < 0 {
		repeat(Threat, -n)
	}
	repeat(Triumph, o.Triumph)
	repeat(Despair, o.Despair)
	repeat(Darkside, o.Darkside)
	repeat(Lightside, o.Lightside)
	return out
}

// Summary renders the net result as text, e.g. "2 success, 1 threat".
func (o Outcome) Summary() string {
	symbols := o.Symbols()
	if len(symbols) == 0 {
		return "no effect"
	}
	var parts []string
	for i := 0; i < len(symbols); {
		j := i
		for j < len(symbols) && symbols[j] == symbols[i] {
			j++
		}
		parts = append(parts, strconv.Itoa(j-i)+" "+string(symbols[i]))
		i = j
	}
	return strings.Join(parts, ", ")
}

// poolTerm is one "<count><letter>" term of a pool expression.
type poolTerm struct {
	count  int
	letter byte
}

// rollPool rolls every die of terms from src.
func rollPool(expr string, terms []poolTerm, src dice.Source) *PoolResult {
	res := &PoolResult{Expr: expr}
	for _, term := range terms {
		spec := poolDieSpecs[term.letter]
		for i := 0; i < term.count; i++ {
			n := dice.Roll(src, len(spec.faces))
			f := spec.faces[n-1]
			res.Dice = append(res.Dice, PoolDie{Type: spec.typ, Face: n, Symbols: f.symbols})
			for _, s := range f.symbols {
				res.Outcome.add(s)
			}
		}
	}
	return res
}

// faceOf returns the face spec of a rolled die.
func faceOf(d PoolDie) (dieSpec, face) {
	for _, spec := range poolDieSpecs {
		if spec.typ == d.Type && d.Face >= 1 && d.Face <= len(spec.faces) {
			return spec, spec.faces[d.Face-1]
		}
	}
	return dieSpec{}, blank
}
