package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the active commands in the master list",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newSheetsClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		rows, err := client.FetchRows(cmd.Context(), cfg.MasterSheet)
		if err != nil {
			return err
		}
		printCommands(cmd.OutOrStdout(), rows)
		return nil
	},
}

func printCommands(w io.Writer, rows []sheets.Row) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tTYPE\tTITLE\tQUESTIONS\tRESULTS\tCHANNEL")
	for i, r := range rows {
		def, ok, err := models.ParseCommandDef(r)
		if err != nil {
			fmt.Fprintf(tw, "row %d\tinvalid\t%v\t\t\t\n", i+2, err)
			continue
		}
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "/%s\t%s\t%s\t%s\t%s\t%s\n",
			def.Name, def.Kind, def.Title, def.QuestionsSheet, dash(def.ResultsSheet), dash(def.AllowedChatID))
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
