package helper

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var notNumberRe = regexp.MustCompile(`[^0-9.\-]`)

// ParseNumber: число из текста страницы: "1,234.56 USDT" -> 1234.56.
func ParseNumber(text string) (float64, error) {
	clean := notNumberRe.ReplaceAllString(strings.TrimSpace(text), "")
	if clean == "" || clean == "-" || clean == "." {
		return 0, fmt.Errorf("helper.ParseNumber: no number in %q", text)
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("helper.ParseNumber: %q: %w", text, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("helper.ParseNumber: %q is not finite", text)
	}
	return v, nil
}
