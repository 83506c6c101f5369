package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"shelver/internal/domain"
)

// RuleFile is the on-disk shape of a standalone rule file
type RuleFile struct {
	Rules []domain.Rule `yaml:"rules"`
}

// LoadRulesFile reads a YAML rule file and validates every rule
func LoadRulesFile(path string) ([]domain.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules; unknown keys are rejected
func ParseRules(data []byte) ([]domain.Rule, error) {
	var rf RuleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return nil, fmt.Errorf("%w: failed to parse rules: %v", domain.ErrInvalidRule, err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("%w: rules file defines no rules", domain.ErrInvalidRule)
	}
	for i, r := range rf.Rules {
		if _, err := r.Compile(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return rf.Rules, nil
}

// MarshalRules encodes rules in the rule file format
func MarshalRules(rules []domain.Rule) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(RuleFile{Rules: rules}); err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
