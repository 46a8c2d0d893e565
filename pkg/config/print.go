/*
 * Copyright 2021-present by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"sort"
	"strings"
)

// Setting is a single effective configuration option.
type Setting struct {
	Key   string
	Value string
}

// Settings returns the effective configuration options sorted by key.
// Nested sections are flattened into dotted keys.
func (c *Config) Settings() []Setting {
	var settings []Setting
	flatten("", c.viper.AllSettings(), &settings)
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings
}

// Print returns the string with all the config options pretty-printed.
func (c *Config) Print() string {
	settings := c.Settings()
	maxKeyLen := 20
	for _, s := range settings {
		if len(s.Key) > maxKeyLen {
			maxKeyLen = len(s.Key)
		}
	}
	var b strings.Builder
	for _, s := range settings {
		if s.Value == "" {
			continue
		}
		b.WriteString("\n\t")
		b.WriteString(s.Key)
		b.WriteString(" ")
		b.WriteString(strings.Repeat(".", maxKeyLen-len(s.Key)+5))
		b.WriteString(" ")
		b.WriteString(s.Value)
	}
	return b.String()
}

func flatten(prefix string, value interface{}, settings *[]Setting) {
	switch v := value.(type) {
	case map[string]interface{}:
		for k, val := range v {
			flatten(joinKey(prefix, k), val, settings)
		}
	case map[interface{}]interface{}:
		for k, val := range v {
			flatten(joinKey(prefix, fmt.Sprintf("%v", k)), val, settings)
		}
	case []interface{}:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = printValue(item)
		}
		*settings = append(*settings, Setting{Key: prefix, Value: strings.Join(items, "; ")})
	default:
		*settings = append(*settings, Setting{Key: prefix, Value: printValue(v)})
	}
}

func printValue(value interface{}) string {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, v[k])
		}
		return "[" + strings.Join(parts, " ") + "]"
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[fmt.Sprintf("%v", k)] = val
		}
		return printValue(m)
	}
	return fmt.Sprintf("%v", value)
}
