package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dcook-net/json-everything/jsonschema"
)

var longValidateCmdDescription = `validate compiles one schema and evaluates every given document against it.

Table output lists one row per keyword failure, each with the document
location and the failing keyword. JSON output carries the full hierarchical
result per document, including the annotations keywords published.

The exit status is non-zero when any document fails validation, when the
schema does not compile, or when evaluation aborts (dialect misuse, depth
limit, canceled context).
`

var exampleForValidateCmd = `jev validate -s schema.json document.json
jev validate -s schema.yaml --draft 7 --fail-fast a.json b.json
jev validate -s schema.json -o json document.yaml`

type validateReport struct {
	File   string             `json:"file"`
	Valid  bool               `json:"valid"`
	Result *jsonschema.Result `json:"result"`
}

func NewValidateCmd() *cobra.Command {
	var schemaPath string
	validateCmd := &cobra.Command{
		Use:     "validate",
		Short:   "evaluate documents against a schema",
		Long:    longValidateCmdDescription,
		Example: exampleForValidateCmd,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			opt, err := evaluateOptions()
			if err != nil {
				return err
			}
			schema, err := loadSchema(schemaPath)
			if err != nil {
				return fmt.Errorf("schema %s: %w", schemaPath, err)
			}

			invalid := 0
			reports := make([]validateReport, 0, len(args))
			for _, path := range args {
				doc, err := loadDocument(path)
				if err != nil {
					return err
				}
				res, err := schema.Evaluate(context.Background(), doc, opt)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if !res.Valid() {
					invalid++
				}
				reports = append(reports, validateReport{File: path, Valid: res.Valid(), Result: res})
			}

			if format == outputJSON {
				if err := printJSON(reports); err != nil {
					return err
				}
			} else {
				printValidateTable(reports)
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d documents failed validation", invalid, len(reports))
			}
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file to compile, json or yaml")
	if err := validateCmd.MarkFlagRequired("schema"); err != nil {
		panic(err)
	}
	return validateCmd
}

func printValidateTable(reports []validateReport) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"FILE", "VALID", "LOCATION", "KEYWORD", "MESSAGE"})
	for _, rep := range reports {
		flat := rep.Result.Flatten()
		if len(flat) == 0 {
			table.Append([]string{rep.File, strconv.FormatBool(rep.Valid), "", "", ""})
			continue
		}
		for _, fe := range flat {
			table.Append([]string{rep.File, strconv.FormatBool(rep.Valid), fe.InstanceLocation, fe.Keyword, fe.Message})
		}
	}
	table.Render()
}
