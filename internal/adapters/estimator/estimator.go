package estimator

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"wa-nutrition-bot/internal/domain"
)

// quantity prefix: an optional number (digits or a small Portuguese word)
// with an optional unit, optionally joined to the food token by "de".
const qtyPattern = `(?:(\d+(?:[.,]\d+)?|uma?|dois|duas|tres|quatro|cinco|seis|sete|oito|nove|dez|meia|meio)\s*(?:(g|gr|gramas?|kg|quilos?|ml|l|litros?|un|unid\w*|fatias?)\b)?\s*(?:de\s+)?)?`

type compiledFood struct {
	food
	re *regexp.Regexp
}

// Table is the table-driven calorie estimator. It is pure: identical input
// always produces an identical estimate.
type Table struct {
	foods []compiledFood
}

var _ domain.Estimator = (*Table)(nil)

// NewTable builds the estimator over the built-in food table.
func NewTable() *Table {
	foods := make([]compiledFood, 0, len(defaultTable))
	for _, f := range defaultTable {
		re := regexp.MustCompile(`\b` + qtyPattern + `(` + f.pattern + `)\b`)
		foods = append(foods, compiledFood{food: f, re: re})
	}
	return &Table{foods: foods}
}

// Estimate matches every known food against the text at most once and sums
// the scaled calories. An empty result means nothing was recognized.
func (t *Table) Estimate(text string) domain.Estimate {
	norm := normalizeText(text)
	type positioned struct {
		entry domain.FoodEntry
		pos   int
	}
	var found []positioned
	var consumed [][2]int
	for _, f := range t.foods {
		matches := f.re.FindAllStringSubmatchIndex(norm, -1)
		for _, m := range matches {
			tokenStart, tokenEnd := m[6], m[7]
			if overlaps(consumed, tokenStart, tokenEnd) {
				continue
			}
			consumed = append(consumed, [2]int{tokenStart, tokenEnd})

			number := submatch(norm, m, 1)
			unit := submatch(norm, m, 2)
			entry := f.entryFor(parseNumber(number), unitClass(unit))
			found = append(found, positioned{entry: entry, pos: tokenStart})
			break
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	var est domain.Estimate
	for _, p := range found {
		est.Entries = append(est.Entries, p.entry)
		est.Total += p.entry.Kcal
	}
	est.Total = round1(est.Total)
	return est
}

type qtyUnit int

const (
	unitNone qtyUnit = iota
	unitCount
	unitGrams
	unitKilos
	unitMilliliters
	unitLiters
)

// entryFor scales the base calories by the stated quantity. When the stated
// unit does not fit the food's basis, the number multiplies the default
// portion instead of being silently reinterpreted.
func (f food) entryFor(number float64, unit qtyUnit) domain.FoodEntry {
	switch f.basis {
	case perUnit:
		count := f.defaultQty
		if number > 0 {
			count = number
		}
		return domain.FoodEntry{Label: f.label, Quantity: count, Unit: domain.UnitPiece, Kcal: round1(f.baseKcal * count)}
	case per100ml:
		ml := f.defaultQty
		switch {
		case number > 0 && unit == unitMilliliters:
			ml = number
		case number > 0 && unit == unitLiters:
			ml = number * 1000
		case number > 0:
			ml = number * f.defaultQty
		}
		return domain.FoodEntry{Label: f.label, Quantity: ml, Unit: domain.UnitMilliliter, Kcal: round1(f.baseKcal * ml / 100)}
	default:
		grams := f.defaultQty
		switch {
		case number > 0 && unit == unitGrams:
			grams = number
		case number > 0 && unit == unitKilos:
			grams = number * 1000
		case number > 0:
			grams = number * f.defaultQty
		}
		return domain.FoodEntry{Label: f.label, Quantity: grams, Unit: domain.UnitGram, Kcal: round1(f.baseKcal * grams / 100)}
	}
}

var numberWords = map[string]float64{
	"um": 1, "uma": 1, "dois": 2, "duas": 2, "tres": 3, "quatro": 4,
	"cinco": 5, "seis": 6, "sete": 7, "oito": 8, "nove": 9, "dez": 10,
	"meia": 0.5, "meio": 0.5,
}

func parseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	if v, ok := numberWords[s]; ok {
		return v
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

func unitClass(s string) qtyUnit {
	switch {
	case s == "":
		return unitNone
	case s == "kg" || strings.HasPrefix(s, "quilo"):
		return unitKilos
	case s == "g" || s == "gr" || strings.HasPrefix(s, "grama"):
		return unitGrams
	case s == "ml":
		return unitMilliliters
	case s == "l" || strings.HasPrefix(s, "litro"):
		return unitLiters
	default:
		return unitCount
	}
}

func submatch(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return s[m[2*group]:m[2*group+1]]
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, sp := range spans {
		if start < sp[1] && end > sp[0] {
			return true
		}
	}
	return false
}

var accentFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a',
	'é': 'e', 'ê': 'e',
	'í': 'i',
	'ó': 'o', 'ô': 'o', 'õ': 'o',
	'ú': 'u', 'ü': 'u',
	'ç': 'c',
}

func normalizeText(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if folded, ok := accentFold[r]; ok {
			return folded
		}
		return r
	}, s)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
