package lexer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/logconf/internal/diag"
)

// LegacyVersion is the version a facade defaults to when the first
// non-pragma token arrives and no @version pragma has established one
// yet.
const LegacyVersion uint16 = 3<<8 | 0

// DefaultMaxIncludeDepth bounds the include stack absent an override.
const DefaultMaxIncludeDepth = 16

// Config is the lexer's entire capability surface: active version,
// resource limits, keyword overrides, global substitution scope, and the
// diagnostic sink. It is built by the caller (the CLI's cobra/pflag flags,
// or a policy file merged on top of defaults) and threaded explicitly into
// NewFacade — internal/lexer holds no package-level "current configuration"
// singleton.
type Config struct {
	ActiveVersion    uint16
	MaxIncludeDepth  int
	DisabledKeywords map[string]bool
	Globals          ArgMap
	Diag             diag.Sink
}

// DefaultConfig returns a Config with the legacy version, the default
// include depth bound, and a discarding diagnostic sink.
func DefaultConfig() Config {
	return Config{
		ActiveVersion:   LegacyVersion,
		MaxIncludeDepth: DefaultMaxIncludeDepth,
		Globals:         NewArgMap(),
	}
}

// Policy is the optional YAML document a lint/dump invocation can load to
// override a subset of Config fields without a rebuild (SPEC_FULL §9).
type Policy struct {
	ActiveVersion    string   `yaml:"active_version"`
	MaxIncludeDepth  int      `yaml:"max_include_depth"`
	DisabledKeywords []string `yaml:"disabled_keywords"`
}

// LoadPolicyFile reads and parses a YAML policy document from path.
func LoadPolicyFile(path string) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return p, nil
}

// Apply merges p into cfg, returning the merged Config. Zero-valued policy
// fields leave the corresponding Config field untouched.
func (p Policy) Apply(cfg Config) (Config, error) {
	if p.ActiveVersion != "" {
		v, err := parseVersionString(p.ActiveVersion)
		if err != nil {
			return cfg, fmt.Errorf("policy active_version: %w", err)
		}
		cfg.ActiveVersion = v
	}
	if p.MaxIncludeDepth > 0 {
		cfg.MaxIncludeDepth = p.MaxIncludeDepth
	}
	if len(p.DisabledKeywords) > 0 {
		if cfg.DisabledKeywords == nil {
			cfg.DisabledKeywords = make(map[string]bool, len(p.DisabledKeywords))
		}
		for _, k := range p.DisabledKeywords {
			cfg.DisabledKeywords[normalizeKey(k)] = true
		}
	}
	return cfg, nil
}

// parseVersionString accepts "MAJOR.MINOR" and packs it the way
// required_version is stored: major<<8 | minor.
func parseVersionString(s string) (uint16, error) {
	var major, minor int
	if _, err := fmt.Sscanf(s, "%d.%d", &major, &minor); err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if major < 0 || major > 0xff || minor < 0 || minor > 0xff {
		return 0, fmt.Errorf("version %q out of range", s)
	}
	return uint16(major)<<8 | uint16(minor), nil
}
