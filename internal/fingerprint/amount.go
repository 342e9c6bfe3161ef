package fingerprint

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"macro_trader/internal/dom"
)

var plainDecimalRe = regexp.MustCompile(`^\d*\.?\d*$`)

var (
	// если встретилось — точно не поле количества
	AmountExcludeWords = []string{
		"leverage", "price", "stop", "limit", "percent", "%",
		"레버리지", "가격", "손절", "익절", "sl", "tp",
	}
	AmountWords = []string{
		"amount", "quantity", "qty", "size", "volume",
		"수량", "금액", "거래량", "trade", "order",
	}
)

const (
	maxPresumedAmount = 1000
	minLeverage       = 1
	maxLeverage       = 125
)

// IsPlainDecimal: "12", "0.25", ".5"; пустая строка не считается.
func IsPlainDecimal(v string) bool {
	return v != "" && plainDecimalRe.MatchString(v)
}

// FieldContext: id + class + name + placeholder в нижнем регистре.
func FieldContext(el dom.Element) string {
	return strings.ToLower(strings.Join([]string{
		el.ID(), el.ClassName(), el.Attr("name"), el.Attr("placeholder"),
	}, " "))
}

// IsAmountField: похоже ли поле с таким значением на поле размера ордера.
func IsAmountField(el dom.Element, value string) bool {
	return ClassifyAmount(FieldContext(el), value)
}

// ClassifyAmount: эвристика по контексту поля и значению.
func ClassifyAmount(context, value string) bool {
	if !IsPlainDecimal(value) {
		return false
	}
	if containsAny(context, AmountExcludeWords) {
		return false
	}
	if containsAny(context, AmountWords) {
		return true
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(n) {
		return false
	}
	if n > 0 && n < maxPresumedAmount && strings.Contains(value, ".") {
		return true
	}
	// целое 1..125 — это плечо
	if n == math.Trunc(n) && n >= minLeverage && n <= maxLeverage {
		return false
	}
	return false
}
