package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
	"github.com/qobs-build/exgen/internal/examples"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ConfigFilename is looked up in the package directory
const ConfigFilename = "Exgen.toml"

var defaultProfiles = map[string]ProfileSection{
	"release": {
		OptLevel: int64(3),
	},
	"debug": {
		OptLevel: "", // no -O
	},
}

type Config struct {
	Examples ExamplesSection           `toml:"examples"`
	Library  LibrarySection            `toml:"library"`
	Target   TargetSection             `toml:"target"`
	Profile  map[string]ProfileSection `toml:"profile"`
}

// DefaultConfig is used when the package has no Exgen.toml
func DefaultConfig() *Config {
	return &Config{Profile: maps.Clone(defaultProfiles)}
}

func (c Config) Profiles() []string {
	profiles := make([]string, 0, len(c.Profile))
	for k := range c.Profile {
		profiles = append(profiles, k)
	}
	slices.Sort(profiles)
	return profiles
}

// Extensions returns the configured source filter or the default one
func (c Config) Extensions() []string {
	if len(c.Examples.Extensions) == 0 {
		return examples.DefaultExtensions
	}
	return c.Examples.Extensions
}

// Umbrella returns the configured umbrella target name or the default one
func (c Config) Umbrella() string {
	if c.Examples.Umbrella == "" {
		return examples.DefaultUmbrella
	}
	return c.Examples.Umbrella
}

// ProfileSection defines the [profile.*] section
type ProfileSection struct {
	OptLevel any `toml:"opt-level"` // integer or string, e.g. 2 or "s"
}

// Cflags returns the compiler flags selected by the profile
func (p ProfileSection) Cflags() []string {
	var level string
	switch v := p.OptLevel.(type) {
	case int64:
		level = strconv.FormatInt(v, 10)
	case int:
		level = strconv.Itoa(v)
	case string:
		level = v
	}
	if level == "" {
		return nil
	}
	return []string{"-O" + level}
}

// ExamplesSection defines the [examples] section
type ExamplesSection struct {
	Dir        string   `toml:"dir"`
	Extensions []string `toml:"extensions"`
	Umbrella   string   `toml:"umbrella"`
	Source     string   `toml:"source"`
	Build      string   `toml:"build"`
}

// LibrarySection defines the [library(.*)] section, the shared library every example links against
type LibrarySection struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// TargetSection defines the [target(.*)] section, applied to every generated example
type TargetSection struct {
	Defines map[string]string `toml:"defines"`
	Links   []string          `toml:"links"`
	Cflags  []string          `toml:"cflags"`
	Ldflags []string          `toml:"ldflags"`
}

var errBadExtension = errors.New("source extensions must look like `.c`")

func (c *Config) validate() error {
	for _, ext := range c.Examples.Extensions {
		if len(ext) < 2 || ext[0] != '.' || strings.ContainsAny(ext, `*?[]{},/\`) {
			return fmt.Errorf("%w, got %q", errBadExtension, ext)
		}
	}
	return nil
}

// mergeStructs merges the fields of the src struct into the dst struct
func mergeStructs(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)

	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}

	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}

	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)

		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Map:
			if !srcField.IsNil() {
				if dstField.IsNil() {
					dstField.Set(reflect.MakeMap(dstField.Type()))
				}
				for _, key := range srcField.MapKeys() {
					dstField.SetMapIndex(key, srcField.MapIndex(key))
				}
			}
		case reflect.Bool:
			dstField.SetBool(dstField.Bool() || srcField.Bool())
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}

	return nil
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// unmarshalSection is a helper to parse sections without conditional logic
func unmarshalSection(rawCfg map[string]any, name string, dst any) error {
	if data, ok := rawCfg[name]; ok {
		if err := toml.Unmarshal([]byte(mustMarshal(data)), dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}
	return nil
}

// unmarshalConditionalSection is a helper to parse, evaluate and merge multiple sections with conditional logic
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, dst *T, env ConfigEnv) error {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range sectionMap {
		if subMap, ok := val.(map[string]any); ok {
			_, err := expr.Compile(key, expr.Env(env))
			if err == nil {
				conditionalFields[key] = subMap
			} else {
				baseFields[key] = val
			}
		} else {
			baseFields[key] = val
		}
	}

	if len(baseFields) > 0 {
		if err := toml.Unmarshal([]byte(mustMarshal(baseFields)), dst); err != nil {
			return fmt.Errorf("failed to parse base [%s] section: %w", name, err)
		}
	}

	// merge in a stable order, later expressions win for scalar fields
	expressions := slices.Sorted(maps.Keys(conditionalFields))
	for _, expression := range expressions {
		condMap := conditionalFields[expression]
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}

		// merge sections if the result is true
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal([]byte(mustMarshal(condMap)), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeStructs(dst, condSection); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		fullMatchStart := matchIndexes[0]
		fullMatchEnd := matchIndexes[1]
		expressionStart := matchIndexes[2]
		expressionEnd := matchIndexes[3]

		builder.WriteString(s[lastIndex:fullMatchStart])

		expression := strings.TrimSpace(s[expressionStart:expressionEnd])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		builder.WriteString(fmt.Sprintf("%v", result))
		lastIndex = fullMatchEnd
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings.
// The build script is left alone, it's an expression itself.
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			if key == "build" {
				if _, isString := val.(string); isString {
					continue
				}
			}
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

func ParseConfig(rdr io.Reader, env ConfigEnv) (*Config, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}
	if rawConfig == nil {
		rawConfig = make(map[string]any)
	}

	processedConfig, err := processExpressions(rawConfig, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}
	rawConfig = processedConfig.(map[string]any)

	cfg := DefaultConfig()

	if err := unmarshalSection(rawConfig, "examples", &cfg.Examples); err != nil {
		return nil, err
	}
	profiles := make(map[string]ProfileSection)
	if err := unmarshalSection(rawConfig, "profile", &profiles); err != nil {
		return nil, err
	}
	maps.Copy(cfg.Profile, profiles)
	if err := unmarshalConditionalSection(rawConfig, "library", &cfg.Library, env); err != nil {
		return nil, err
	}
	if err := unmarshalConditionalSection(rawConfig, "target", &cfg.Target, env); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfigFromFile parses and validates a config file from a filepath
func ParseConfigFromFile(path string, env ConfigEnv) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := ParseConfig(bufio.NewReader(f), env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

//
// expr-lang helpers
//

// RunBuildScript runs the [examples] build expression, it must evaluate to true
func (cfg Config) RunBuildScript(env ConfigEnv) error {
	if cfg.Examples.Build == "" {
		return nil
	}

	program, err := expr.Compile(cfg.Examples.Build, expr.Env(env))
	if err != nil {
		return fmt.Errorf("failed to compile build script: %w", err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return fmt.Errorf("failed to run build script: %w", err)
	}

	if result, ok := result.(bool); !ok || !result {
		return fmt.Errorf("build script returned false\n%s", cfg.Examples.Build)
	}

	return nil
}

type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

func NewConfigEnv(basedir string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		basedir:    basedir,
	}
}

// resolve joins path onto the package directory and refuses to leave it
func (env ConfigEnv) resolve(path string) (string, error) {
	fullPath := filepath.Join(env.basedir, path)
	rel, err := filepath.Rel(env.basedir, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside of package directory %q", path, env.basedir)
	}
	return fullPath, nil
}

// Patch applies a diff-match-patch patch to a file in the package directory.
// It returns false if no hunk applied.
func (env ConfigEnv) Patch(path, patchText string) bool {
	fullPath, err := env.resolve(path)
	if err != nil {
		panic(err)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		panic(err)
	}
	origText := string(data)

	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patchText)
	if err != nil {
		panic(err)
	}
	patchedText, results := dmp.PatchApply(patches, origText)
	if !slices.Contains(results, true) {
		return false // nothing was applied, nothing to write
	}

	if err := os.WriteFile(fullPath, []byte(patchedText), 0644); err != nil {
		panic(err)
	}
	return true
}

func (env ConfigEnv) ReadFile(path string) (string, error) {
	fullPath, err := env.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Exists reports whether a file or directory exists in the package directory
func (env ConfigEnv) Exists(path string) bool {
	fullPath, err := env.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}
