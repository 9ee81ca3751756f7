package violations

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Level is a project's review strictness.
type Level string

const (
	// High keeps only priority 1 violations.
	High Level = "HIGH"
	// Middle keeps priorities 1 and 2.
	Middle Level = "MIDDLE"
	// Low keeps everything.
	Low Level = "LOW"
)

// Threshold is the highest priority number a level keeps.
func (l Level) Threshold() int {
	switch l {
	case High:
		return 1
	case Middle:
		return 2
	default:
		return 5
	}
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case High:
		return High, nil
	case Middle:
		return Middle, nil
	case Low:
		return Low, nil
	}
	return "", fmt.Errorf("unknown review level %q (want HIGH, MIDDLE or LOW)", s)
}

// PolicyFile is the on-disk review policy (review-policy.toml).
type PolicyFile struct {
	DefaultLevel     string           `toml:"default_level"`
	SkipRules        []string         `toml:"skip_rules"`
	SkipFileKeywords []string         `toml:"skip_file_keywords"`
	Levels           PolicyFileLevels `toml:"levels"`
}

// PolicyFileLevels lists project names per level.
type PolicyFileLevels struct {
	High   []string `toml:"high"`
	Middle []string `toml:"middle"`
	Low    []string `toml:"low"`
}

// Policy decides which violations count for a project. Build it with
// NewPolicy or LoadPolicy; it is not modified afterwards.
type Policy struct {
	defaultLevel     Level
	projects         map[string]Level
	skipRules        map[string]bool
	skipFileKeywords []string
}

// DefaultSkipFileKeywords excludes test sources from the report.
var DefaultSkipFileKeywords = []string{"test"}

// NewPolicy builds a policy. A nil skipFileKeywords uses
// DefaultSkipFileKeywords.
func NewPolicy(defaultLevel Level, projects map[string]Level, skipRules, skipFileKeywords []string) Policy {
	if defaultLevel == "" {
		defaultLevel = Low
	}
	if skipFileKeywords == nil {
		skipFileKeywords = DefaultSkipFileKeywords
	}
	p := Policy{
		defaultLevel:     defaultLevel,
		projects:         make(map[string]Level, len(projects)),
		skipRules:        make(map[string]bool, len(skipRules)),
		skipFileKeywords: make([]string, 0, len(skipFileKeywords)),
	}
	for name, l := range projects {
		p.projects[name] = l
	}
	for _, r := range skipRules {
		if r = strings.TrimSpace(r); r != "" {
			p.skipRules[r] = true
		}
	}
	for _, kw := range skipFileKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			p.skipFileKeywords = append(p.skipFileKeywords, kw)
		}
	}
	return p
}

// DefaultPolicy is LOW for every project, skipping test files only.
func DefaultPolicy() Policy {
	return NewPolicy(Low, nil, nil, nil)
}

// LoadPolicy reads a policy file. A missing file yields a policy built from
// defaultLevel and skipRules alone; rules from both sources are combined.
func LoadPolicy(path string, defaultLevel Level, skipRules []string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewPolicy(defaultLevel, nil, skipRules, nil), nil
		}
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}

	var pf PolicyFile
	if _, err := toml.Decode(string(data), &pf); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}

	level := defaultLevel
	if pf.DefaultLevel != "" {
		if level, err = ParseLevel(pf.DefaultLevel); err != nil {
			return Policy{}, fmt.Errorf("invalid policy: default_level: %w", err)
		}
	}

	projects := make(map[string]Level)
	// Later lists win, so a project listed as high and low ends up HIGH,
	// matching the order levels are checked in.
	for _, group := range []struct {
		level Level
		names []string
	}{
		{Low, pf.Levels.Low},
		{Middle, pf.Levels.Middle},
		{High, pf.Levels.High},
	} {
		for _, name := range group.names {
			if name = strings.TrimSpace(name); name != "" {
				projects[name] = group.level
			}
		}
	}

	rules := append(append([]string{}, skipRules...), pf.SkipRules...)
	return NewPolicy(level, projects, rules, pf.SkipFileKeywords), nil
}

// LevelFor returns the level configured for project, or the default.
func (p Policy) LevelFor(project string) Level {
	if l, ok := p.projects[project]; ok {
		return l
	}
	return p.defaultLevel
}

// SkipsRule reports whether violations of rule are ignored.
func (p Policy) SkipsRule(rule string) bool {
	return p.skipRules[rule]
}

// SkipsFile reports whether filename matches a skip keyword.
func (p Policy) SkipsFile(filename string) bool {
	lower := strings.ToLower(filename)
	for _, kw := range p.skipFileKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
