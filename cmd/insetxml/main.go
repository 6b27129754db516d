/*
Copyright © 2026 the FarmDB authors.
This file is part of FarmDB.

FarmDB is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FarmDB is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FarmDB.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command InsetXml reads field boundaries from an ISO 11783-10 TASKDATA
// file or shapefile archive, computes boundary-inset guidance swaths, and
// writes the result as TASKDATA XML or a Well-Known-Text table.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctessum/unit/badunit"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/spatialmodel/farmdb"
)

type options struct {
	input   string
	output  string
	name    string
	insetFt float64
}

// argError marks a command-line validation failure (exit code 2, as
// opposed to 1 for runtime failures).
type argError struct{ msg string }

func (e *argError) Error() string { return e.msg }

func main() {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "InsetXml [flags] <inset_feet> <output>",
		Short: "Compute boundary-inset guidance swaths for field boundaries",
		Long: `InsetXml reads field boundaries from an ISO 11783-10 TASKDATA file
(plain or zipped) or an ESRI Shapefile archive, replaces each field's
guidance swaths with lines tracing the boundary at a fixed interior
offset, and writes the result.

The input file extension must be .xml, .XML, or .zip.
The output file extension must be .xml, .XML, .wkt, .WKT, or .zip.`,
		Example: `  InsetXml 12.5 out_TASKDATA.xml
  InsetXml -i TASKDATA.XML 12.5 out_TASKDATA.xml
  InsetXml --input TASKDATA.zip --inset 12.5 --output fields.wkt`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "TASKDATA.XML",
		"input ISO 11783 file or shapefile archive")
	f.Float64VarP(&opts.insetFt, "inset", "d", 0,
		"inset distance in feet (required, > 0.5)")
	f.StringVarP(&opts.name, "name", "n", "Inset", "name for the inset swaths")
	f.StringVarP(&opts.output, "output", "o", "", "output file path (required)")

	if err := cmd.Execute(); err != nil {
		if _, ok := err.(*argError); ok {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			cmd.Usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	// Positional <inset_feet> and <output> fill in for their flags.
	if len(args) > 0 {
		v, err := cast.ToFloat64E(args[0])
		if err != nil {
			return &argError{fmt.Sprintf("invalid inset distance %q", args[0])}
		}
		if cmd.Flags().Changed("inset") {
			return &argError{"inset distance given both as a flag and an argument"}
		}
		opts.insetFt = v
	}
	if len(args) > 1 {
		if cmd.Flags().Changed("output") {
			return &argError{"output path given both as a flag and an argument"}
		}
		opts.output = args[1]
	}

	if opts.insetFt <= 0.5 {
		return &argError{"inset distance must be > 0.5 ft"}
	}
	if opts.output == "" {
		return &argError{"output file path is required"}
	}
	if opts.output == opts.input {
		return &argError{"output file must be different than input file"}
	}
	switch filepath.Ext(opts.input) {
	case ".xml", ".XML", ".zip":
	default:
		return &argError{"input file extension must be .xml or .zip"}
	}
	switch filepath.Ext(opts.output) {
	case ".xml", ".XML", ".wkt", ".WKT", ".zip":
	default:
		return &argError{"output file extension must be .xml, .wkt, or .zip"}
	}

	db, err := farmdb.ReadFile(opts.input)
	if err != nil {
		return err
	}
	fmt.Printf("%d customers\n%d farms\n%d fields\n",
		len(db.Customers), len(db.Farms), len(db.Fields))

	if err := db.Inset(opts.name, badunit.Foot(opts.insetFt)); err != nil {
		return err
	}
	return db.WriteFile(opts.output)
}
