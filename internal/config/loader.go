package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Load builds the configuration. Tag defaults apply first, then the YAML
// file at path if path is non-empty, then DATAMAP_* environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), defaultTag); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), envValue); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// lookup returns the value a field should take and whether one was found.
type lookup func(field reflect.StructField) (string, string, bool)

func defaultTag(field reflect.StructField) (string, string, bool) {
	v, ok := field.Tag.Lookup("default")
	return "default", v, ok
}

func envValue(field reflect.StructField) (string, string, bool) {
	name := field.Tag.Get("env")
	if name == "" {
		return "", "", false
	}
	v := os.Getenv(name)
	return name, v, v != ""
}

// loadStruct recursively populates struct fields from src.
func loadStruct(v reflect.Value, src lookup) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal, src); err != nil {
				return err
			}
			continue
		}

		name, value, ok := src(field)
		if !ok {
			continue
		}
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
