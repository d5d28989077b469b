package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/w3s-cli/w3s/internal/dispatch"
)

// Output formats for the result report.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

const doneMarker = "=== DONE ==="

const emptyPlaceholderAdvice = "The content was empty: the returned identifier is the empty-content placeholder and refers to no data."

type jsonReport struct {
	CIDs             []string `json:"cids"`
	EmptyPlaceholder bool     `json:"empty_placeholder"`
}

func validateOutput(format string) error {
	switch format {
	case OutputTable, OutputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}

// writeReport prints the identifiers of res followed by the done marker. In
// JSON mode the marker goes to status so out stays machine readable.
func writeReport(out, status io.Writer, res *dispatch.Result, format string) error {
	if format == OutputJSON {
		cids := res.CIDs
		if cids == nil {
			cids = []string{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonReport{CIDs: cids, EmptyPlaceholder: res.EmptyPlaceholder}); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintln(status, doneMarker)
		return nil
	}

	fmt.Fprintln(out)
	if len(res.CIDs) > 0 {
		fmt.Fprintln(out, "Cid list:")
		writeCIDTable(out, res.CIDs)
	}
	if res.EmptyPlaceholder {
		fmt.Fprintln(out, color.Yellow.Sprint(emptyPlaceholderAdvice))
	}
	fmt.Fprintln(out, color.Green.Sprint(doneMarker))
	return nil
}

func writeCIDTable(out io.Writer, cids []string) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "CID"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for i, cid := range cids {
		table.Append([]string{strconv.Itoa(i), cid})
	}
	table.Render()
}
