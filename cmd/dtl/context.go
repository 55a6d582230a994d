// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// readContext reads the variables of a rendering from the context files.
// Variables of later files override the ones of earlier files.
func readContext(files []string) (map[string]any, error) {
	vars := map[string]any{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		v, err := decodeContext(filepath.Ext(file), data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		maps.Copy(vars, v)
	}
	return vars, nil
}

// decodeContext decodes the variables of a context file with extension ext.
func decodeContext(ext string, data []byte) (map[string]any, error) {
	var vars map[string]any
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&vars); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &vars); err != nil {
			return nil, err
		}
	case ".msgpack", ".mpk":
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.UseLooseInterfaceDecoding(true)
		if err := dec.Decode(&vars); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported context file extension %q", ext)
	}
	for k, v := range vars {
		vars[k] = normalize(v)
	}
	return vars, nil
}

// normalize converts the decoded value v to the types of the template
// values: integers become int, when they fit, and maps become
// map[string]any.
func normalize(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return normalize(n)
		}
		f, _ := v.Float64()
		return f
	case int64:
		if n, err := safecast.Conv[int](v); err == nil {
			return n
		}
		return v
	case uint64:
		if n, err := safecast.Conv[int](v); err == nil {
			return n
		}
		return v
	case float32:
		return float64(v)
	case []any:
		for i, e := range v {
			v[i] = normalize(e)
		}
		return v
	case []map[string]any:
		s := make([]any, len(v))
		for i, e := range v {
			s[i] = normalize(e)
		}
		return s
	case map[string]any:
		for k, e := range v {
			v[k] = normalize(e)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	}
	return v
}

// parseVars parses the variables given as "name=value" on the command line.
func parseVars(args []string) (map[string]any, error) {
	vars := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q (must be name=value)", arg)
		}
		vars[name] = value
	}
	return vars, nil
}
