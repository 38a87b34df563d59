package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/five82/jointail/internal/logtail"
	"github.com/five82/jointail/internal/predicate"
	"github.com/five82/jointail/internal/projection"
)

// Config is the validated startup configuration.
type Config struct {
	Path            string // resolved config file, empty when defaults were used
	Sources         []Source
	DefaultStart    logtail.StartMode
	FileInterval    time.Duration
	CycleInterval   time.Duration
	Output          string // joined-log path, empty disables it
	PrefixTags      bool
	StateFile       string
	ResetOnTruncate bool
	TimestampFormat string
	LevelField      string
	Colors          map[string]string
	ChangeColor     string
	Fields          []projection.FieldSpec
	Include         []predicate.Rule
	Exclude         []predicate.Rule
}

// Source is one configured input before glob expansion.
type Source struct {
	Path      string
	Tag       string
	Start     logtail.StartMode
	TailLines int
}

const (
	defaultConfigPath      = "~/.config/jointail/config.toml"
	defaultOutput          = "joined.log"
	defaultFileInterval    = 10 * time.Millisecond
	defaultCycleInterval   = 100 * time.Millisecond
	defaultTimestampFormat = "2006-01-02 15:04:05.000"
	defaultLevelField      = "level"
)

var defaultFields = []projection.FieldSpec{{Name: "time"}, {Name: "level"}, {Name: "msg"}}

// ErrNoSources is returned when no input files remain after overrides.
var ErrNoSources = errors.New("no input sources configured")

type fileConfig struct {
	Sources         []sourceEntry     `toml:"sources" yaml:"sources" validate:"dive"`
	Start           string            `toml:"start" yaml:"start" validate:"omitempty,oneof=beginning end tail"`
	FileIntervalUS  *int64            `toml:"file_interval_us" yaml:"file_interval_us" validate:"omitempty,gte=0"`
	CycleIntervalUS *int64            `toml:"cycle_interval_us" yaml:"cycle_interval_us" validate:"omitempty,gte=0"`
	Output          *string           `toml:"output" yaml:"output"`
	Persist         *bool             `toml:"persist" yaml:"persist"`
	PrefixTags      bool              `toml:"prefix_tags" yaml:"prefix_tags"`
	StateFile       string            `toml:"state_file" yaml:"state_file"`
	ResetOnTruncate bool              `toml:"reset_on_truncate" yaml:"reset_on_truncate"`
	TimestampFormat string            `toml:"timestamp_format" yaml:"timestamp_format"`
	LevelField      string            `toml:"level_field" yaml:"level_field"`
	Colors          map[string]string `toml:"colors" yaml:"colors" validate:"dive,keys,required,endkeys,color"`
	ChangeColor     string            `toml:"change_color" yaml:"change_color" validate:"color"`
	Fields          []fieldEntry      `toml:"fields" yaml:"fields" validate:"dive"`
	Include         []ruleEntry       `toml:"include" yaml:"include" validate:"dive"`
	Exclude         []ruleEntry       `toml:"exclude" yaml:"exclude" validate:"dive"`
}

type sourceEntry struct {
	Path  string `toml:"path" yaml:"path" validate:"required"`
	Tag   string `toml:"tag" yaml:"tag"`
	Start string `toml:"start" yaml:"start" validate:"omitempty,oneof=beginning end tail"`
	Lines int    `toml:"lines" yaml:"lines" validate:"gte=0"`
}

type fieldEntry struct {
	Name      string `toml:"name" yaml:"name" validate:"required"`
	Transform string `toml:"transform" yaml:"transform"`
	Width     int    `toml:"width" yaml:"width"`
}

type ruleEntry struct {
	Field string   `toml:"field" yaml:"field" validate:"required"`
	Tests []string `toml:"tests" yaml:"tests" validate:"min=1,dive,required"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DefaultStart:    logtail.StartBeginning,
		FileInterval:    defaultFileInterval,
		CycleInterval:   defaultCycleInterval,
		Output:          defaultOutput,
		TimestampFormat: defaultTimestampFormat,
		LevelField:      defaultLevelField,
		Colors:          map[string]string{},
		Fields:          append([]projection.FieldSpec(nil), defaultFields...),
	}
}

// Load reads the configuration at path, or the default location when path is
// empty. A missing file at the default location yields Default(); a missing
// explicit file is an error.
func Load(path string) (Config, error) {
	explicit := strings.TrimSpace(path) != ""
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if isYAML(resolved) {
		err = yaml.Unmarshal(bytes, &raw)
	} else {
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := raw.resolve()
	if err != nil {
		return Config{}, err
	}
	cfg.Path = resolved
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func (raw fileConfig) resolve() (Config, error) {
	if err := validate(raw); err != nil {
		return Config{}, err
	}

	cfg := Default()

	start, err := logtail.ParseStartMode(raw.Start)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultStart = start

	for _, s := range raw.Sources {
		src := Source{
			Path:      mustExpand(s.Path),
			Tag:       strings.TrimSpace(s.Tag),
			Start:     cfg.DefaultStart,
			TailLines: s.Lines,
		}
		if s.Start != "" {
			if src.Start, err = logtail.ParseStartMode(s.Start); err != nil {
				return Config{}, err
			}
		}
		cfg.Sources = append(cfg.Sources, src)
	}

	if raw.FileIntervalUS != nil {
		cfg.FileInterval = time.Duration(*raw.FileIntervalUS) * time.Microsecond
	}
	if raw.CycleIntervalUS != nil {
		cfg.CycleInterval = time.Duration(*raw.CycleIntervalUS) * time.Microsecond
	}

	if raw.Output != nil {
		cfg.Output = strings.TrimSpace(*raw.Output)
	}
	if raw.Persist != nil && !*raw.Persist {
		cfg.Output = ""
	}
	if cfg.Output != "" {
		cfg.Output = mustExpand(cfg.Output)
	}

	cfg.PrefixTags = raw.PrefixTags
	if s := strings.TrimSpace(raw.StateFile); s != "" {
		cfg.StateFile = mustExpand(s)
	}
	cfg.ResetOnTruncate = raw.ResetOnTruncate
	if f := strings.TrimSpace(raw.TimestampFormat); f != "" {
		cfg.TimestampFormat = f
	}
	if f := strings.TrimSpace(raw.LevelField); f != "" {
		cfg.LevelField = f
	}
	for level, color := range raw.Colors {
		cfg.Colors[level] = color
	}
	cfg.ChangeColor = strings.TrimSpace(raw.ChangeColor)

	// An explicit empty list is kept so the projector can reject it.
	if raw.Fields != nil {
		cfg.Fields = make([]projection.FieldSpec, 0, len(raw.Fields))
		for _, f := range raw.Fields {
			cfg.Fields = append(cfg.Fields, projection.FieldSpec{
				Name:      strings.TrimSpace(f.Name),
				Transform: f.Transform,
				Width:     f.Width,
			})
		}
	}

	cfg.Include = toRules(raw.Include)
	cfg.Exclude = toRules(raw.Exclude)
	return cfg, nil
}

func toRules(entries []ruleEntry) []predicate.Rule {
	if len(entries) == 0 {
		return nil
	}
	rules := make([]predicate.Rule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, predicate.Rule{
			Field: strings.TrimSpace(e.Field),
			Tests: append([]string(nil), e.Tests...),
		})
	}
	return rules
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
