package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dcook-net/json-everything/jsonschema"
)

var longCheckCmdDescription = `check compiles each schema document and reports every problem found.

Compilation collects all problems instead of stopping at the first; every
issue carries a JSON Pointer to the offending member and a stable code
(parse_error, invalid_keyword, duplicate_key, ...). A schema that checks
out is reported with its dialect and keyword count.
`

type checkIssue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type checkReport struct {
	File     string       `json:"file"`
	OK       bool         `json:"ok"`
	Draft    string       `json:"draft,omitempty"`
	Keywords int          `json:"keywords,omitempty"`
	Issues   []checkIssue `json:"issues,omitempty"`
}

func NewCheckCmd() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:     "check",
		Short:   "compile schemas and report every issue",
		Long:    longCheckCmdDescription,
		Example: `jev check schema.json legacy-schema.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			broken := 0
			reports := make([]checkReport, 0, len(args))
			for _, path := range args {
				rep := checkReport{File: path}
				schema, err := loadSchema(path)
				if err == nil {
					draft := schema.DeclaredDraft()
					if draft == 0 {
						draft = jsonschema.DefaultDraft
					}
					rep.OK = true
					rep.Draft = draft.String()
					rep.Keywords = len(schema.Keywords())
				} else {
					issues, ok := jsonschema.AsDecodeIssues(err)
					if !ok {
						// Not a compile report: unreadable file, broken YAML.
						return err
					}
					broken++
					for _, iss := range issues {
						rep.Issues = append(rep.Issues, checkIssue{Path: iss.Path, Code: iss.Code, Message: iss.Message})
					}
				}
				reports = append(reports, rep)
			}

			if format == outputJSON {
				if err := printJSON(reports); err != nil {
					return err
				}
			} else {
				printCheckTable(reports)
			}

			if broken > 0 {
				return fmt.Errorf("%d of %d schemas failed to compile", broken, len(reports))
			}
			return nil
		},
	}
	return checkCmd
}

func printCheckTable(reports []checkReport) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"FILE", "OK", "PATH", "CODE", "MESSAGE"})
	for _, rep := range reports {
		if rep.OK {
			detail := fmt.Sprintf("dialect %s, %d keywords", rep.Draft, rep.Keywords)
			table.Append([]string{rep.File, strconv.FormatBool(true), "", "", detail})
			continue
		}
		for _, iss := range rep.Issues {
			table.Append([]string{rep.File, strconv.FormatBool(false), iss.Path, iss.Code, iss.Message})
		}
	}
	table.Render()
}
