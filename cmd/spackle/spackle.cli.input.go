package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, FilePermissions)
}

// decodeFile decodes a JSON or YAML file into target, chosen by extension.
func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtYAML, ExtYML:
		return yaml.Unmarshal(data, target)
	default:
		return json.Unmarshal(data, target)
	}
}

// loadData reads a substitution map from a JSON or YAML file.
func loadData(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := decodeFile(path, &data); err != nil {
		return nil, inputError(ErrMsgInvalidData, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// loadBind reads the object to bind from a JSON or YAML file.
func loadBind(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	var bound any
	if err := decodeFile(path, &bound); err != nil {
		return nil, inputError(ErrMsgInvalidBind, err)
	}
	return bound, nil
}

// loadEnvFile reads substitutions from a .env file.
func loadEnvFile(path string) (map[string]any, error) {
	out := map[string]any{}
	if path == "" {
		return out, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, inputError(ErrMsgInvalidEnvFile, err)
	}
	defer func() { _ = f.Close() }()

	envMap, err := godotenv.Parse(f)
	if err != nil {
		return nil, inputError(ErrMsgInvalidEnvFile, err)
	}
	for k, v := range envMap {
		out[k] = v
	}
	return out, nil
}

// parseSets converts repeated key=value flags into substitutions.
func parseSets(values []string) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for _, kv := range values {
		key, value, ok := strings.Cut(kv, SetSeparator)
		if !ok || key == "" {
			return nil, usageError(fmt.Sprintf(ErrFmtWithDetail, ErrMsgInvalidSet, kv))
		}
		out[key] = value
	}
	return out, nil
}

// mergeMaps merges maps in order, later keys overriding earlier ones.
func mergeMaps(sets ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
