package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/elC0mpa/ami-rotator/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// DrawReportTable renders one row per region plus a totals footer
func DrawReportTable(w io.Writer, report *model.RunReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(reportTitle(report))
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Region", "Status", "Instances", "Images\nCreated", "Images\nDeregistered", "Images\nKept", "Snapshots\nDeleted", "Errors"})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})

	for _, region := range report.Regions {
		tw.AppendRow(table.Row{
			region.Region,
			regionStatus(region),
			region.InstancesScanned,
			region.ImagesCreated,
			region.ImagesDeregistered,
			region.ImagesSkipped,
			region.SnapshotsDeleted,
			errorCount(region),
		})
	}

	totals := report.Totals()
	tw.AppendFooter(table.Row{
		"Total",
		"",
		totals.InstancesScanned,
		totals.ImagesCreated,
		totals.ImagesDeregistered,
		totals.ImagesSkipped,
		totals.SnapshotsDeleted,
		len(totals.Errors) + fatalCount(report),
	})

	tw.Render()

	for _, region := range report.Regions {
		if region.Fatal != nil {
			fmt.Fprintf(w, " %s %s: %s\n", text.FgHiRed.Sprint("✗"), region.Region, text.FgRed.Sprint(region.Fatal.Error()))
		}
		for _, itemErr := range region.Errors {
			fmt.Fprintf(w, " %s %s: %s\n", text.FgHiYellow.Sprint("⚠"), region.Region, itemErr.Error())
		}
	}
}

func reportTitle(report *model.RunReport) string {
	var parts []string
	parts = append(parts, "AMI Rotation")
	if report.AccountID != "" {
		parts = append(parts, "Account "+report.AccountID)
	}
	if !report.StartedAt.IsZero() {
		parts = append(parts, report.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if report.DryRun {
		parts = append(parts, "DRY RUN")
	}
	return strings.Join(parts, " | ")
}

func regionStatus(region model.RegionReport) string {
	switch {
	case region.Fatal != nil:
		return text.FgRed.Sprint("failed")
	case region.NotEnabled:
		return text.FgYellow.Sprint("not enabled")
	case len(region.Errors) > 0:
		return text.FgYellow.Sprint("partial")
	default:
		return text.FgGreen.Sprint("ok")
	}
}

func errorCount(region model.RegionReport) int {
	count := len(region.Errors)
	if region.Fatal != nil {
		count++
	}
	return count
}

func fatalCount(report *model.RunReport) int {
	var count int
	for _, region := range report.Regions {
		if region.Fatal != nil {
			count++
		}
	}
	return count
}
