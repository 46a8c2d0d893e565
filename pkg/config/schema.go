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
	"bytes"
	"strings"
	"text/template"

	"github.com/rabbitstack/procinject/pkg/symbolize"
)

var schema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"definitions": {
		"duration": {"type": "string", "pattern": "^(0|([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+)$"}
	},

	"type": "object",
	"properties": {
		"config-file":		{"type": "string"},
		"debug-privilege":	{"type": "boolean"},
		"inject": {
			"type": "object",
			"properties": {
				"wait-for-module":			{"type": "boolean"},
				"wait-timeout":				{"$ref": "#/definitions/duration"},
				"remote-thread-timeout":	{"$ref": "#/definitions/duration"}
			},
			"additionalProperties": false
		},
		"resolver": {
			"type": "object",
			"properties": {
				"loader":	{"type": "string", "enum": [{{ .Loaders }}]}
			},
			"additionalProperties": false
		},
		"modules": {
			"type": "object",
			"properties": {
				"dos-paths":	{"type": "boolean"}
			},
			"additionalProperties": false
		},
		"libraries": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"path":		{"type": "string", "minLength": 1},
					"export":	{"type": "string"}
				},
				"required": ["path"],
				"additionalProperties": false
			}
		},
		"logging": {
			"type": "object",
			"properties": {
				"level": 			{"type": "string", "enum": ["panic", "fatal", "error", "warn", "warning", "info", "debug", "trace"]},
				"max-age":			{"type": "integer", "minimum": 0},
				"max-backups":		{"type": "integer", "minimum": 1},
				"max-size":			{"type": "integer", "minimum": 1},
				"formatter":		{"type": "string", "enum": ["json", "text"]},
				"path":				{"type": "string"},
				"log-stdout":		{"type": "boolean"}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}
`

type schemaConfig struct {
	Loaders string
}

func interpolateSchema() string {
	tmpl := template.Must(template.New("schema").Parse(schema))

	loaders := []string{symbolize.LoaderNative, symbolize.LoaderPE}
	for i, l := range loaders {
		loaders[i] = `"` + l + `"`
	}

	var b bytes.Buffer
	if err := tmpl.Execute(&b, &schemaConfig{Loaders: strings.Join(loaders, ", ")}); err != nil {
		return ""
	}
	return b.String()
}
