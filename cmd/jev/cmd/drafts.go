package cmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dcook-net/json-everything/jsonschema"
)

type draftReport struct {
	Name       string `json:"name"`
	MetaSchema string `json:"metaSchema"`
	Default    bool   `json:"default,omitempty"`
}

func NewDraftsCmd() *cobra.Command {
	draftsCmd := &cobra.Command{
		Use:     "drafts",
		Short:   "list the supported schema dialects",
		Example: `jev drafts`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			known := jsonschema.KnownDrafts()
			reports := make([]draftReport, 0, len(known))
			for _, d := range known {
				reports = append(reports, draftReport{
					Name:       d.String(),
					MetaSchema: d.MetaSchemaURI(),
					Default:    d == jsonschema.DefaultDraft,
				})
			}

			if format == outputJSON {
				return printJSON(reports)
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"DRAFT", "META-SCHEMA", "DEFAULT"})
			for _, rep := range reports {
				def := ""
				if rep.Default {
					def = strconv.FormatBool(true)
				}
				table.Append([]string{rep.Name, rep.MetaSchema, def})
			}
			table.Render()
			return nil
		},
	}
	return draftsCmd
}
