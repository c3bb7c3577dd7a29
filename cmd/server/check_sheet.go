package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/services"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

var checkSheetCmd = &cobra.Command{
	Use:   "check-sheet <sheet>",
	Short: "Print a sheet's headers and first row and validate every row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		if _, ok := rowParsers[kind]; !ok {
			return fmt.Errorf("unknown --kind %q (want quiz, diagnosis or results)", kind)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newSheetsClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		rows, err := client.FetchRows(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if bad := checkRows(cmd.OutOrStdout(), args[0], kind, rows); bad > 0 {
			return fmt.Errorf("%d malformed rows in %s", bad, args[0])
		}
		return nil
	},
}

func init() {
	checkSheetCmd.Flags().String("kind", "quiz", "row type: quiz, diagnosis or results")
}

var rowParsers = map[string]func(sheets.Row) error{
	"quiz": func(r sheets.Row) error {
		_, err := models.ParseQuestion(r)
		return err
	},
	"diagnosis": func(r sheets.Row) error {
		_, err := models.ParseDiagnosisQuestion(r)
		return err
	},
	"results": func(r sheets.Row) error {
		res, err := models.ParseDiagnosisResult(r)
		if err != nil {
			return err
		}
		_, err = services.ParseCondition(res.Condition)
		return err
	},
}

// checkRows writes a report for rows and returns the number of rows that fail
// to parse as kind.
func checkRows(w io.Writer, sheet, kind string, rows []sheets.Row) int {
	fmt.Fprintf(w, "sheet %q: %d rows\n", sheet, len(rows))
	if len(rows) == 0 {
		return 0
	}

	headers := make([]string, 0, len(rows[0]))
	for h := range rows[0] {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	fmt.Fprintf(w, "headers: %s\n", strings.Join(headers, ", "))
	fmt.Fprintln(w, "first row:")
	for _, h := range headers {
		fmt.Fprintf(w, "  %s = %q\n", h, rows[0][h])
	}

	parse := rowParsers[kind]
	bad := 0
	for i, r := range rows {
		if err := parse(r); err != nil {
			bad++
			fmt.Fprintf(w, "row %d: %v\n", i+2, err)
		}
	}
	fmt.Fprintf(w, "%d/%d rows valid\n", len(rows)-bad, len(rows))
	return bad
}
