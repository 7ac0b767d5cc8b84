package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/standards-comb/app/standards"
)

const PatternsFile = "patterns.yml"

// DefaultPatterns is used when the config directory has no patterns.yml.
func DefaultPatterns() *Patterns {
	return &Patterns{
		Normalization: standards.DefaultPolicy(),
		Extraction: Extraction{
			ContextWidth:     100,
			DescriptionWidth: 100,
		},
		Families: []standards.FamilyPattern{
			{Family: standards.FamilyETSI, Pattern: `\bETSI\s+EN\s+\d{3}\s\d{3}(?:-\d+)*`},
			{Family: standards.FamilyEN, Pattern: `\bEN\s+\d{3,5}(?:\s\d{3}\b)?(?:-\d+)*`},
			{Family: standards.FamilyIEC, Pattern: `\bIEC\s+\d+(?:-\d+)*`},
			{Family: standards.FamilyCISPR, Pattern: `\bCISPR\s+\d+`},
			{Family: standards.FamilyANSI, Pattern: `\bANSI\s+C\d+\.\d+`},
			{Family: standards.FamilyFCC, Pattern: `\bCFR\s+47,\s+FCC\s+Part\s+\d+[A-Z]?\b`},
			{Family: standards.FamilyISO, Pattern: `\bISO\s+\d+(?:-\d+)*`},
			{Family: standards.FamilyASNZS, Pattern: `\bAS/NZS\s+\d+(?:\.\d+)*`},
			{Family: standards.FamilyKS, Pattern: `\bKS\s+C\s*\d+(?:-\d+)*`},
			{Family: standards.FamilyRSS, Pattern: `\bRSS-\w+`},
			{Family: standards.FamilyICES, Pattern: `\bICES-\w+`},
			{Family: standards.FamilySEMI, Pattern: `\bSEMI\s+[A-Z]\d+`},
		},
	}
}

// LoadPatterns reads <configDir>/patterns.yml. Keys missing from the file keep
// their DefaultPatterns values.
func LoadPatterns(configDir string) (*Patterns, error) {
	patternsFile := filepath.Join(configDir, PatternsFile)

	data, err := os.ReadFile(patternsFile)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No patterns file, using defaults", "path", patternsFile)
		return DefaultPatterns(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	patterns := DefaultPatterns()
	if err := yaml.Unmarshal(data, patterns); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", patternsFile, err)
	}

	if err := validatePatterns(patterns); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", patternsFile, err)
	}

	slog.Debug("Patterns loaded", "path", patternsFile, "families", len(patterns.Families),
		"fold_organization_prefix", patterns.Normalization.FoldOrganizationPrefix,
		"version_sensitive", patterns.Normalization.VersionSensitive)

	return patterns, nil
}

func validatePatterns(patterns *Patterns) error {
	if len(patterns.Families) == 0 {
		return fmt.Errorf("at least one family is required")
	}

	nonNegativeFields := map[string]int{
		"context width":     patterns.Extraction.ContextWidth,
		"description width": patterns.Extraction.DescriptionWidth,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	seen := make(map[standards.Family]bool, len(patterns.Families))
	for i, fp := range patterns.Families {
		if !fp.Family.Valid() {
			return fmt.Errorf("unknown family at index %d: %q", i, fp.Family)
		}
		if seen[fp.Family] {
			return fmt.Errorf("duplicate family at index %d: %s", i, fp.Family)
		}
		seen[fp.Family] = true
	}

	return nil
}
