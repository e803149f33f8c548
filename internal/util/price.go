package util

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	rePriceStrip  = regexp.MustCompile(`[^0-9.\-]`)
	reAnyDigit    = regexp.MustCompile(`[0-9]`)
	unitPattern   = regexp.MustCompile(`(?i)\b(pcs|pc|ea|each|set|sets|pair|pairs|roll|rolls|box|boxes|lot|lots|sqm|m2|lm|m|kg)\b\.?`)
	numberPattern = regexp.MustCompile(`(?:^|[^0-9.,])(\d{1,3}(?:[\s.,]\d{3})+|\d+(?:[.,]\d+)?)`)
)

// ParsePrice extracts a decimal amount from a raw price cell. Currency
// symbols, thousand separators and surrounding text are stripped; only
// digits, dots and a minus sign survive. A cell with no digit at all
// yields nil, which is distinct from a zero price.
func ParsePrice(input string) *decimal.Decimal {
	cleaned := rePriceStrip.ReplaceAllString(input, "")
	if !reAnyDigit.MatchString(cleaned) {
		return nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &d
}

type ParsedQty struct {
	Qty  *float64
	Unit *string
}

// ParseQty pulls a quantity and an optional unit out of free text such as
// "12 pcs" or "1,200". The last number on the line wins.
func ParseQty(input string) ParsedQty {
	line := strings.ReplaceAll(input, " ", " ")

	qtyToken := ""
	nm := numberPattern.FindAllStringSubmatch(line, -1)
	if len(nm) > 0 {
		qtyToken = strings.TrimSpace(nm[len(nm)-1][1])
	}

	var qtyPtr *float64
	if qtyToken != "" {
		norm := normalizeNumericToken(qtyToken)
		if parsed, err := strconv.ParseFloat(norm, 64); err == nil {
			qtyPtr = FloatPtr(parsed)
		}
	}

	var unitPtr *string
	if um := unitPattern.FindStringSubmatch(line); len(um) > 1 {
		u := normalizeUnit(um[1])
		unitPtr = &u
	}

	return ParsedQty{Qty: qtyPtr, Unit: unitPtr}
}

func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch u {
	case "pc", "pcs", "ea", "each":
		return "pcs"
	case "set", "sets":
		return "set"
	case "pair", "pairs":
		return "pair"
	case "roll", "rolls":
		return "roll"
	case "box", "boxes":
		return "box"
	case "lot", "lots":
		return "lot"
	case "m2", "sqm":
		return "sqm"
	case "lm", "m":
		return "m"
	default:
		return u
	}
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`).MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`).MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}
