package services

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"cml-linkmap/models"
)

// ReportPrinter writes run diagnostics as console tables.
type ReportPrinter struct {
	out io.Writer
}

// NewReportPrinter creates a ReportPrinter writing to out.
func NewReportPrinter(out io.Writer) *ReportPrinter {
	return &ReportPrinter{out: out}
}

// Print renders one row per layer plus a totals row, then the excluded ids.
func (p *ReportPrinter) Print(reports []*models.RunReport) {
	table := tablewriter.NewWriter(p.out)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{
		"Layer", "Carriers", "Rows", "Unique\nlinks", "Duplicates",
		"Out of\nbounds", "Dropped", "No\ncoords", "Rendered", "Charts",
	})

	var total models.RunReport
	for _, r := range reports {
		table.Append(row(r.Source, strings.Join(r.Carriers, ", "), r))
		total.Loaded += r.Loaded
		total.Exploded += r.Exploded
		total.Unidentified += r.Unidentified
		total.Duplicates += r.Duplicates
		total.OutOfBounds += r.OutOfBounds
		total.DroppedByList = append(total.DroppedByList, r.DroppedByList...)
		total.MissingCoordinates = append(total.MissingCoordinates, r.MissingCoordinates...)
		total.Rendered += r.Rendered
		total.Charts += r.Charts
	}
	if len(reports) > 1 {
		table.SetFooter(row("total", "", &total))
	}
	table.Render()

	for _, r := range reports {
		if len(r.DroppedByList) > 0 {
			fmt.Fprintf(p.out, "  %s dropped: %s\n", r.Source, strings.Join(r.DroppedByList, ", "))
		}
		if len(r.MissingCoordinates) > 0 {
			fmt.Fprintf(p.out, "  %s without coordinates: %s\n", r.Source, strings.Join(r.MissingCoordinates, ", "))
		}
		for _, s := range r.BoundsSkipped {
			fmt.Fprintf(p.out, "  %s bound skipped: %s\n", r.Source, s)
		}
	}
}

// PrintLegend lists the carrier colors in use.
func (p *ReportPrinter) PrintLegend(legend map[string]string) {
	if len(legend) == 0 {
		return
	}
	names := make([]string, 0, len(legend))
	for k := range legend {
		names = append(names, k)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Carrier", "Color"})
	for _, n := range names {
		table.Append([]string{n, legend[n]})
	}
	table.Render()
}

func row(name, carriers string, r *models.RunReport) []string {
	return []string{
		name,
		carriers,
		strconv.Itoa(r.Loaded + r.Exploded),
		strconv.Itoa(r.Deduplicated()),
		strconv.Itoa(r.Duplicates),
		strconv.Itoa(r.OutOfBounds),
		strconv.Itoa(len(r.DroppedByList)),
		strconv.Itoa(len(r.MissingCoordinates)),
		strconv.Itoa(r.Rendered),
		strconv.Itoa(r.Charts),
	}
}
