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

package app

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/procinject/cmd/procinject/common"
	"github.com/rabbitstack/procinject/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  printConfig,
}

var cfg = config.NewWithOpts(config.WithInject(), config.WithModules())

func init() {
	cfg.MustViperize(configCmd)
}

func printConfig(cmd *cobra.Command, args []string) error {
	if err := common.InitConfigAndLogger(cfg); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Key", "Value"})
	t.SetStyle(table.StyleLight)
	for _, s := range cfg.Settings() {
		t.AppendRow(table.Row{s.Key, s.Value})
	}
	if file := cfg.LoadedFile(); file != "" {
		t.SetTitle(file)
	}
	t.Render()

	return nil
}
