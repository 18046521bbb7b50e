// Package config provides the env-driven configuration loader shared by
// every Corebooks service: a .env loader for local development and a small
// reflection helper that fills a config struct from `env:"..."` tags.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// GetenvOrDefault returns os.Getenv(key), or defaultValue when unset/blank.
func GetenvOrDefault(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return defaultValue
}

// GetenvBoolOrDefault parses os.Getenv(key) as a bool, or returns defaultValue
// if unset or unparsable.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return v
}

// GetenvIntOrDefault parses os.Getenv(key) as an int64, or returns
// defaultValue if unset or unparsable.
func GetenvIntOrDefault(key string, defaultValue int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultValue
	}

	return v
}

var (
	loadOnce sync.Once
	loaded   bool
)

// LoadLocalEnv loads a .env file once per process when ENV_NAME is "local"
// (the default). It never fails the process if the file is missing.
func LoadLocalEnv(serviceName, version string) {
	fmt.Println(Title(serviceName + " " + version))

	envName := GetenvOrDefault("ENV_NAME", "local")
	fmt.Printf("environment: (%s)\n", envName)

	if envName != "local" {
		fmt.Println(Line(DefaultLineSize))
		return
	}

	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using process environment")
		} else {
			fmt.Println("env vars loaded from .env")
			loaded = true
		}
	})

	fmt.Println(Line(DefaultLineSize))
}

// FromEnv populates the fields of the struct pointed to by s using each
// field's `env:"NAME"` tag. Supported kinds: string, bool, int-family.
// s must be a non-nil pointer to a struct.
func FromEnv(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("config: FromEnv requires a non-nil pointer, got %T", s)
	}

	elem := v.Elem()
	t := elem.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}

		parts := strings.SplitN(tag, ",", 2)
		name := parts[0]

		fv := elem.Field(i)
		if !fv.CanSet() {
			continue
		}

		switch fv.Kind() {
		case reflect.Bool:
			def := false
			if len(parts) > 1 {
				def, _ = strconv.ParseBool(parts[1])
			}

			fv.SetBool(GetenvBoolOrDefault(name, def))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			var def int64
			if len(parts) > 1 {
				def, _ = strconv.ParseInt(parts[1], 10, 64)
			}

			fv.SetInt(GetenvIntOrDefault(name, def))
		default:
			def := ""
			if len(parts) > 1 {
				def = parts[1]
			}

			fv.SetString(GetenvOrDefault(name, def))
		}
	}

	return nil
}
