package strategy

import "macro_trader/internal/models"

// ActiveLevels: индексы уровней с положительным порогом.
func ActiveLevels(tps [models.SplitLevels]float64) []int {
	var out []int
	for i, v := range tps {
		if v > 0 {
			out = append(out, i)
		}
	}
	return out
}

// SplitSizes: доли позиции на n активных уровней.
func SplitSizes(n int) []float64 {
	switch n {
	case 1:
		return []float64{100}
	case 2:
		return []float64{50, 50}
	case 3:
		return []float64{33.33, 33.33, 33.34}
	}
	return nil
}
