// Copyright 2026 The Evalloom Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/weftlabs/evalloom/pkg/evalcase"
)

var (
	listCategories []string
	listTags       []string
)

var listCmd = &cobra.Command{
	Use:   "list [suite-dir]",
	Short: "List the eval cases a suite would run, without executing anything",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringSliceVar(&listCategories, "category", nil, "only list cases in these categories")
	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "only list cases carrying any of these tags")
}

func runList(cmd *cobra.Command, args []string) error {
	testDir := config.TestDir
	if len(args) == 1 {
		testDir = args[0]
	}

	filter := evalcase.Filter{EnabledOnly: true}
	for _, c := range listCategories {
		filter.Categories = append(filter.Categories, evalcase.Category(c))
	}
	filter.Tags = listTags

	cases, err := evalcase.Load(testDir, config.TestMatch, filter)
	if err != nil {
		return fmt.Errorf("loading eval cases: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tTAGS\tENABLED")
	for _, c := range cases {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%t\n", c.ID, c.Name, c.Category, c.Tags, c.IsEnabled())
	}
	fmt.Fprintf(w, "\n%d case(s)\n", len(cases))
	return w.Flush()
}
