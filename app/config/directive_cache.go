package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const DirectivesDir = "directives"

var ErrDirectiveNotFound = errors.New("directive not found")

type DirectiveCache struct {
	directivesDir string
	cache         map[string]*Directive
	mu            sync.RWMutex
}

func NewDirectiveCache(configDir string) *DirectiveCache {
	return &DirectiveCache{
		directivesDir: filepath.Join(configDir, DirectivesDir),
		cache:         make(map[string]*Directive),
	}
}

func (dc *DirectiveCache) Run() error {
	if _, err := os.Stat(dc.directivesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(dc.directivesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		code := strings.TrimSuffix(filepath.Base(file), ".yml")

		directive, err := dc.LoadConfig(code)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Directive loaded", "directive", directive.Code, "enabled", directive.Settings.Enabled, "refresh_interval", directive.Settings.RefreshInterval)
	}

	return nil
}

func (dc *DirectiveCache) LoadConfig(code string) (*Directive, error) {
	configFile := dc.getConfigFilePath(code)
	directive, err := dc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	directive.Code = normalizeCode(code)

	if err := dc.validateConfig(directive); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.cache[directive.Code] = directive

	return directive, nil
}

// GetConfig looks a directive up by code, case-insensitively.
func (dc *DirectiveCache) GetConfig(code string) (*Directive, error) {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	directive, ok := dc.cache[normalizeCode(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDirectiveNotFound, code)
	}
	return directive, nil
}

func (dc *DirectiveCache) GetConfigs() map[string]*Directive {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	configsCopy := make(map[string]*Directive, len(dc.cache))
	for k, v := range dc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (dc *DirectiveCache) GetEnabledConfigs() map[string]*Directive {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	enabledConfigs := make(map[string]*Directive)
	for k, v := range dc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (dc *DirectiveCache) GetConfigCount() int {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return len(dc.cache)
}

// Codes returns the loaded directive codes in sorted order.
func (dc *DirectiveCache) Codes() []string {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	codes := make([]string, 0, len(dc.cache))
	for code := range dc.cache {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (dc *DirectiveCache) parseConfig(configFile string) (*Directive, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var directive Directive
	if err := yaml.Unmarshal(data, &directive); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if directive.Settings.RefreshInterval == 0 {
		directive.Settings.RefreshInterval = 86400
	}
	if directive.Settings.Timeout == 0 {
		directive.Settings.Timeout = 30
	}

	return &directive, nil
}

func (dc *DirectiveCache) validateConfig(directive *Directive) error {
	if directive == nil {
		return fmt.Errorf("directive is nil")
	}

	requiredFields := map[string]string{
		"directive code": directive.Code,
		"directive name": directive.Name,
		"directive URL":  directive.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"refresh interval": directive.Settings.RefreshInterval,
		"timeout":          directive.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (dc *DirectiveCache) getConfigFilePath(code string) string {
	return filepath.Join(dc.directivesDir, code+".yml")
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
