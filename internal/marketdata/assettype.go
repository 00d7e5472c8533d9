package marketdata

import "strings"

// Instrument categories used by the application
const (
	Stock = "STOCK"
	ADR   = "ADR"
	ETF   = "ETF"
	Bond  = "BOND"
)

// assetTypes is ordered: substring matching takes the first hit
var assetTypes = []struct {
	name string
	kind string
}{
	{"COMMON STOCK", Stock},
	{"PREFERRED STOCK", Stock},
	{"STOCK", Stock},
	{"EQUITY", Stock},
	{"ADR", ADR},
	{"AMERICAN DEPOSITARY RECEIPT", ADR},
	{"ETF", ETF},
	{"EXCHANGE TRADED FUND", ETF},
	{"BOND", Bond},
}

// MapAssetType translates an Alpha Vantage AssetType into an instrument
// category. It returns "" for unknown types.
func MapAssetType(assetType string) string {
	normalized := strings.ToUpper(strings.TrimSpace(assetType))
	if normalized == "" {
		return ""
	}
	for _, t := range assetTypes {
		if t.name == normalized {
			return t.kind
		}
	}
	for _, t := range assetTypes {
		if strings.Contains(normalized, t.name) {
			return t.kind
		}
	}
	return ""
}
