package estimator

import (
	"reflect"
	"testing"

	"wa-nutrition-bot/internal/domain"
)

func TestEstimateCountedFoods(t *testing.T) {
	est := NewTable().Estimate("2 ovos e 1 pão francês")
	if len(est.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(est.Entries), est.Entries)
	}
	first := est.Entries[0]
	if first.Label != "ovo" || first.Quantity != 2 || first.Unit != domain.UnitPiece || first.Kcal != 140 {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	second := est.Entries[1]
	if second.Label != "pão francês" || second.Quantity != 1 || second.Kcal != 140 {
		t.Fatalf("unexpected second entry: %+v", second)
	}
	if est.Total != 280 {
		t.Fatalf("expected total 280, got %v", est.Total)
	}
}

func TestEstimateUnknownFood(t *testing.T) {
	est := NewTable().Estimate("comi uma pizza")
	if len(est.Entries) != 0 {
		t.Fatalf("expected no entries, got %+v", est.Entries)
	}
	if est.Total != 0 {
		t.Fatalf("expected total 0, got %v", est.Total)
	}
}

func TestEstimateWeightScaling(t *testing.T) {
	est := NewTable().Estimate("200 g de arroz")
	if len(est.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %+v", est.Entries)
	}
	entry := est.Entries[0]
	if entry.Label != "arroz" || entry.Quantity != 200 || entry.Unit != domain.UnitGram {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Kcal != 260 {
		t.Fatalf("expected 260 kcal, got %v", entry.Kcal)
	}
}

func TestEstimateVolumeScaling(t *testing.T) {
	est := NewTable().Estimate("150 ml de leite")
	if len(est.Entries) != 1 || est.Entries[0].Kcal != 90 {
		t.Fatalf("expected 90 kcal for 150 ml of milk, got %+v", est.Entries)
	}
	if est.Entries[0].Unit != domain.UnitMilliliter {
		t.Fatalf("expected milliliter unit, got %q", est.Entries[0].Unit)
	}
}

func TestEstimateDefaultPortion(t *testing.T) {
	est := NewTable().Estimate("almocei arroz com feijão")
	if len(est.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", est.Entries)
	}
	if est.Entries[0].Quantity != 100 || est.Entries[0].Kcal != 130 {
		t.Fatalf("expected the documented default portion for arroz, got %+v", est.Entries[0])
	}
	if est.Total != 206 {
		t.Fatalf("expected total 206, got %v", est.Total)
	}
}

func TestEstimateNumberWords(t *testing.T) {
	est := NewTable().Estimate("duas bananas")
	if len(est.Entries) != 1 || est.Entries[0].Quantity != 2 || est.Entries[0].Kcal != 180 {
		t.Fatalf("expected 2 bananas at 180 kcal, got %+v", est.Entries)
	}
}

func TestEstimateNoDoubleCount(t *testing.T) {
	est := NewTable().Estimate("ovo, ovo e mais ovo")
	if len(est.Entries) != 1 {
		t.Fatalf("expected a single entry for repeated tokens, got %+v", est.Entries)
	}
	if est.Entries[0].Kcal != 70 {
		t.Fatalf("expected the default single egg, got %+v", est.Entries[0])
	}
}

func TestEstimateCompoundLabelMasksInnerWord(t *testing.T) {
	est := NewTable().Estimate("bebi suco de laranja")
	if len(est.Entries) != 1 {
		t.Fatalf("expected only the compound label, got %+v", est.Entries)
	}
	if est.Entries[0].Label != "suco de laranja" {
		t.Fatalf("expected suco de laranja, got %q", est.Entries[0].Label)
	}
	if est.Entries[0].Kcal != 112.5 {
		t.Fatalf("expected 112.5 kcal for the default glass, got %v", est.Entries[0].Kcal)
	}
}

func TestEstimateAccentsAndCase(t *testing.T) {
	withAccents := NewTable().Estimate("2 PÃES FRANCESES")
	if len(withAccents.Entries) != 1 || withAccents.Entries[0].Kcal != 280 {
		t.Fatalf("expected plural accented form to match, got %+v", withAccents.Entries)
	}
}

func TestEstimateDeterministic(t *testing.T) {
	table := NewTable()
	text := "2 ovos, 100 g de arroz e 1 banana"
	first := table.Estimate(text)
	second := table.Estimate(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
	if len(first.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %+v", first.Entries)
	}
}
