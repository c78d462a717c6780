package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"
)

var ldvalueType = reflect.TypeOf(ldvalue.Value{})

// LoadFile reads a registry from a YAML or JSON file. The format is chosen by file extension,
// with YAML as the default.
func LoadFile(path string) (Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return Registry{}, fmt.Errorf("cannot read registry file: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes a registry in the given format ("yaml" or "json").
func Parse(data []byte, format string) (Registry, error) {
	var raw map[string]interface{}
	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return Registry{}, fmt.Errorf("malformed registry JSON: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Registry{}, fmt.Errorf("malformed registry YAML: %w", err)
		}
	default:
		return Registry{}, fmt.Errorf("unknown registry format %q", format)
	}

	var reg Registry
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  toLDValueHook,
		ErrorUnused: true,
		Result:      &reg,
	})
	if err != nil {
		return Registry{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Registry{}, fmt.Errorf("invalid registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return Registry{}, fmt.Errorf("invalid registry: %w", err)
	}
	return reg, nil
}

// toLDValueHook lets opaque JSON members such as endpoint options be decoded into ldvalue.Value.
func toLDValueHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != ldvalueType || from == ldvalueType {
		return data, nil
	}
	return ldvalue.CopyArbitraryValue(data), nil
}
