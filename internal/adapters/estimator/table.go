package estimator

type basis int

const (
	perUnit basis = iota
	per100g
	per100ml
)

// food is one row of the static lookup table. Patterns are written against
// lowercase, accent-folded text. defaultQty is the documented portion assumed
// when the message states no quantity: items for perUnit rows, grams for
// per100g rows, milliliters for per100ml rows.
type food struct {
	label      string
	pattern    string
	basis      basis
	baseKcal   float64
	defaultQty float64
}

// Compound labels come before the plain word they contain so that span
// masking attributes the longer phrase first.
var defaultTable = []food{
	{"suco de laranja", `sucos?(?:\s+de\s+laranja)?`, per100ml, 45, 250},
	{"pão francês", `p(?:ao|aes)\s+frances(?:es)?`, perUnit, 140, 1},
	{"pão de forma", `p(?:ao|aes)\s+de\s+forma`, perUnit, 75, 2},
	{"ovo", `ovos?`, perUnit, 70, 1},
	{"tapioca", `tapiocas?`, perUnit, 150, 1},
	{"banana", `bananas?`, perUnit, 90, 1},
	{"maçã", `macas?`, perUnit, 80, 1},
	{"laranja", `laranjas?`, perUnit, 60, 1},
	{"arroz", `arroz`, per100g, 130, 100},
	{"feijão", `feij(?:ao|oes)`, per100g, 76, 100},
	{"frango", `frangos?`, per100g, 165, 100},
	{"carne", `carnes?`, per100g, 250, 100},
	{"peixe", `peixes?`, per100g, 130, 100},
	{"batata", `batatas?`, per100g, 85, 100},
	{"macarrão", `macarr(?:ao|oes)`, per100g, 160, 100},
	{"queijo", `queijos?`, per100g, 330, 30},
	{"salada", `saladas?`, per100g, 20, 50},
	{"leite", `leites?`, per100ml, 60, 200},
	{"refrigerante", `refrigerantes?|refri`, per100ml, 42, 350},
	{"café", `cafes?`, per100ml, 2, 50},
}
