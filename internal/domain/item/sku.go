package item

import (
	"fmt"
	"strings"
)

// SKU prefixes per item kind, used when the caller does not supply a SKU
var kindPrefixes = map[Kind]string{
	KindFinishedGood: "FG",
	KindComponent:    "CP",
	KindSupply:       "SP",
	KindService:      "SV",
}

// KindPrefix returns the SKU prefix for a kind
func KindPrefix(k Kind) string {
	return kindPrefixes[k]
}

// GenerateSKU builds a SKU from a kind prefix and a monotonic counter value
func GenerateSKU(k Kind, sequence int64) string {
	return fmt.Sprintf("%s-%05d", kindPrefixes[k], sequence)
}

// MaterialSKU builds the SKU for a print material item
func MaterialSKU(materialTypeCode, colorCode string) string {
	return fmt.Sprintf("MAT-%s-%s", strings.ToUpper(materialTypeCode), strings.ToUpper(colorCode))
}

// NormalizeSKU uppercases and trims a SKU so uniqueness is case-insensitive
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
