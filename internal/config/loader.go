package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// DefaultEnvMapping maps environment variables to dotted config paths.
var DefaultEnvMapping = map[string]string{
	"SLEEPVIEW_LOG_LEVEL":      "application.log_level",
	"SLEEPVIEW_RECORDING_PATH": "recording.path",
	"SLEEPVIEW_LAYOUT":         "recording.layout",
	"SLEEPVIEW_INGEST_MODE":    "ingest.mode",
	"SLEEPVIEW_WS_URL":         "ingest.websocket.url",
}

// Load reads the YAML config at path with the default env mapping. An empty
// path yields the defaults with env overrides applied.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, DefaultEnvMapping)
}

// LoadWithEnv reads YAML, applies env overrides, validates the result
// against the embedded JSON schema and decodes it over Default().
func LoadWithEnv(path string, envMapping map[string]string) (*Config, error) {
	doc := map[string]interface{}{}
	if path != "" {
		yb, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(yb, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
	}

	applyEnvOverrides(doc, envMapping)

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	// round-trip through YAML so durations like "5s" decode into time.Duration
	merged, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal merged config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(merged, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func validateDocument(doc map[string]interface{}) error {
	jsonCompatible, err := toJSONCompatible(doc)
	if err != nil {
		return fmt.Errorf("convert yaml->json compatible: %w", err)
	}
	jb, err := json.Marshal(jsonCompatible)
	if err != nil {
		return fmt.Errorf("marshal to json: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(jb))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString("\n- ")
			sb.WriteString(e.String())
		}
		return fmt.Errorf("%w: schema validation failed:%s", ErrInvalidConfig, sb.String())
	}
	return nil
}

// applyEnvOverrides reads environment variables per mapping and sets dotted-paths in cfg.
// A value is converted to a number only when the default at its path is numeric.
func applyEnvOverrides(cfg map[string]interface{}, mapping map[string]string) {
	defaults := defaultDocument()
	for env, path := range mapping {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			if isNumeric(lookupNestedField(defaults, path)) {
				if i, err := tryParseInt(v); err == nil {
					setNestedField(cfg, path, i)
					continue
				}
				if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					setNestedField(cfg, path, f)
					continue
				}
			}
			setNestedField(cfg, path, v)
		}
	}
}

// defaultDocument is Default() in the shape LoadWithEnv validates.
func defaultDocument() map[string]interface{} {
	doc := map[string]interface{}{}
	b, err := yaml.Marshal(Default())
	if err != nil {
		return doc
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return map[string]interface{}{}
	}
	return doc
}

func lookupNestedField(m map[string]interface{}, dotted string) interface{} {
	var cur interface{} = m
	for _, p := range strings.Split(dotted, ".") {
		node, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = node[p]
	}
	return cur
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int64, uint64, float64:
		return true
	}
	return false
}

// setNestedField sets value at dotted path (e.g. "ingest.websocket.url") creating maps as needed.
func setNestedField(m map[string]interface{}, dotted string, value interface{}) {
	parts := strings.Split(dotted, ".")
	last := len(parts) - 1
	cur := m
	for i, p := range parts {
		if i == last {
			cur[p] = value
			return
		}
		next, exists := cur[p]
		if !exists {
			nm := make(map[string]interface{})
			cur[p] = nm
			cur = nm
			continue
		}
		switch typed := next.(type) {
		case map[string]interface{}:
			cur = typed
		default:
			nm := make(map[string]interface{})
			cur[p] = nm
			cur = nm
		}
	}
}

// tryParseInt attempts to parse string to int; returns error on failure.
func tryParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if float64(int64(f)) == f {
			return int64(f), nil
		}
	}
	return 0, fmt.Errorf("not int")
}

// toJSONCompatible converts yaml-parsed structures into map[string]interface{} recursively.
func toJSONCompatible(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, vv := range val {
			conv, err := toJSONCompatible(vv)
			if err != nil {
				return nil, err
			}
			m[k] = conv
		}
		return m, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, vv := range val {
			conv, err := toJSONCompatible(vv)
			if err != nil {
				return nil, err
			}
			m[fmt.Sprintf("%v", k)] = conv
		}
		return m, nil
	case []interface{}:
		arr := make([]interface{}, len(val))
		for i, vv := range val {
			conv, err := toJSONCompatible(vv)
			if err != nil {
				return nil, err
			}
			arr[i] = conv
		}
		return arr, nil
	default:
		return val, nil
	}
}
