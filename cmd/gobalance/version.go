/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "0.0.0-dev"

func newVersionCommand() *cobra.Command {
	var checkMin string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the gobalance version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := goversion.NewVersion(version)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}

			if checkMin != "" {
				min, merr := goversion.NewVersion(checkMin)
				if merr != nil {
					return fmt.Errorf("invalid --check-min value %q: %w", checkMin, merr)
				}
				if v.LessThan(min) {
					return fmt.Errorf("gobalance %s is older than the required minimum %s", v, min)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&checkMin, "check-min", "", "fail if the running version is older than this semantic version")
	return cmd
}
