package trend

import (
	"strings"
)

// proxyByIndustry maps exact (lowercased) industry names to a proxy
// ETF that tracks the group's aggregate price behavior.
var proxyByIndustry = map[string]string{
	"semiconductors":                     "SMH",
	"semiconductor equipment":            "SMH",
	"biotechnology":                      "IBB",
	"gold mining":                        "GDX",
	"regional banks":                     "KRE",
	"oil & gas exploration & production": "XOP",
	"oil & gas drilling":                 "XOP",
	"homebuilding":                       "XHB",
	"airlines":                           "JETS",
	"aerospace & defense":                "ITA",
	"pharmaceuticals":                    "XPH",
	"software":                           "IGV",
	"insurance":                          "KIE",
	"reits":                              "IYR",
	"steel":                              "SLX",
}

// keywordRule matches an industry name when every keyword appears in
// it. Rules are evaluated in priority order: more specific groups
// (regional banks) come before broader ones (banks).
type keywordRule struct {
	keywords   []string
	instrument string
}

func (r keywordRule) matches(name string) bool {
	for _, kw := range r.keywords {
		if !strings.Contains(name, kw) {
			return false
		}
	}
	return true
}

var keywordRules = []keywordRule{
	{keywords: []string{"semiconductor"}, instrument: "SMH"},
	{keywords: []string{"bank", "regional"}, instrument: "KRE"},
	{keywords: []string{"bank"}, instrument: "KBE"},
	{keywords: []string{"biotech"}, instrument: "IBB"},
	{keywords: []string{"gold"}, instrument: "GDX"},
	{keywords: []string{"silver"}, instrument: "SIL"},
	{keywords: []string{"oil", "gas"}, instrument: "XOP"},
	{keywords: []string{"software"}, instrument: "IGV"},
	{keywords: []string{"internet"}, instrument: "FDN"},
	{keywords: []string{"home"}, instrument: "XHB"},
	{keywords: []string{"retail"}, instrument: "XRT"},
	{keywords: []string{"pharma"}, instrument: "XPH"},
	{keywords: []string{"insurance"}, instrument: "KIE"},
	{keywords: []string{"aerospace"}, instrument: "ITA"},
	{keywords: []string{"defense"}, instrument: "ITA"},
	{keywords: []string{"airline"}, instrument: "JETS"},
	{keywords: []string{"real estate"}, instrument: "IYR"},
	{keywords: []string{"reit"}, instrument: "IYR"},
	{keywords: []string{"transport"}, instrument: "IYT"},
	{keywords: []string{"metal", "mining"}, instrument: "XME"},
	{keywords: []string{"utilit"}, instrument: "XLU"},
	{keywords: []string{"health"}, instrument: "XLV"},
}

// proxyBySector maps (lowercased) sector names to the broad sector
// SPDR, the last resort before synthesizing a basket.
var proxyBySector = map[string]string{
	"technology":             "XLK",
	"information technology": "XLK",
	"financial":              "XLF",
	"financials":             "XLF",
	"financial services":     "XLF",
	"energy":                 "XLE",
	"health care":            "XLV",
	"healthcare":             "XLV",
	"consumer staples":       "XLP",
	"consumer defensive":     "XLP",
	"consumer discretionary": "XLY",
	"consumer cyclical":      "XLY",
	"industrials":            "XLI",
	"materials":              "XLB",
	"basic materials":        "XLB",
	"utilities":              "XLU",
	"real estate":            "XLRE",
	"communication services": "XLC",
}

// ResolveProxy finds a proxy instrument for an industry: exact table
// lookup, then keyword rules in priority order, then the sector table.
// Returns ("", false) when nothing matches and a basket must be
// synthesized instead.
func ResolveProxy(industry, sector string) (string, bool) {
	ind := strings.ToLower(strings.TrimSpace(industry))
	if ind != "" {
		if instrument, ok := proxyByIndustry[ind]; ok {
			return instrument, true
		}
		for _, rule := range keywordRules {
			if rule.matches(ind) {
				return rule.instrument, true
			}
		}
	}

	sec := strings.ToLower(strings.TrimSpace(sector))
	if instrument, ok := proxyBySector[sec]; ok {
		return instrument, true
	}

	return "", false
}
