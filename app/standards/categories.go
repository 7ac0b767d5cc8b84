package standards

import (
	"regexp"
)

type categoryRule struct {
	label    string
	keywords *regexp.Regexp
}

// First matching rule wins.
var categoryRules = []categoryRule{
	{"European Radio", regexp.MustCompile(`(?i)\b(?:radio|wireless|rf|etsi)\b`)},
	{"Immunity", regexp.MustCompile(`(?i)\b(?:immunity|esd|surge|burst)\b`)},
	{"Emissions", regexp.MustCompile(`(?i)\b(?:emissions?|conducted|radiated)\b`)},
	{"Power Quality", regexp.MustCompile(`(?i)\b(?:harmonics?|flicker|voltage)\b`)},
	{"Safety", regexp.MustCompile(`(?i)\b(?:safety|medical|laser)\b`)},
	{"Automotive", regexp.MustCompile(`(?i)\b(?:automotive|vehicles?|iso 7637)\b`)},
	{"Generic Standards", regexp.MustCompile(`(?i)\b(?:generic|industrial|residential)\b`)},
	{"Information Technology", regexp.MustCompile(`(?i)\b(?:information technology|multimedia|ite)\b`)},
	{"FCC Standards", regexp.MustCompile(`(?i)\b(?:fcc|part 15|cfr)\b`)},
	{"Canada Radio", regexp.MustCompile(`(?i)\b(?:canada|rss|ices)\b`)},
	{"Australia/New Zealand", regexp.MustCompile(`(?i)(?:\baustralia\b|\bnew zealand\b|\bas/nzs\b)`)},
	{"Korean Standards", regexp.MustCompile(`(?i)\b(?:korea|korean|ks c)\b`)},
	{"Semiconductor", regexp.MustCompile(`(?i)\b(?:semiconductor|semi)\b`)},
}

var familyCategories = map[Family]string{
	FamilyEN:    "European Standards",
	FamilyETSI:  "European Radio",
	FamilyIEC:   "IEC Standards",
	FamilyCISPR: "IEC Standards",
	FamilyISO:   "ISO Standards",
	FamilyFCC:   "FCC Standards",
	FamilyANSI:  "ANSI Standards",
	FamilyASNZS: "Australia/New Zealand",
	FamilyKS:    "Korean Standards",
	FamilyRSS:   "Canada Radio",
	FamilyICES:  "Canada Radio",
	FamilySEMI:  "Semiconductor",
}

const CategoryOther = "Other"

func categorize(context string, family Family) string {
	for _, rule := range categoryRules {
		if rule.keywords.MatchString(context) {
			return rule.label
		}
	}
	if label, ok := familyCategories[family]; ok {
		return label
	}
	return CategoryOther
}
