package reconcile

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

var bucketLabels = map[Bucket]string{
	BucketToCreate: "to create",
	BucketToUpdate: "to update",
	BucketUpToDate: "up to date",
	BucketAWSExtra: "not in local definitions",
}

// Print renders report as a NAME/STATUS table under title.
func Print(w io.Writer, title string, report Report) {
	fmt.Fprintf(w, "%s:\n", title)
	if report.Empty() {
		fmt.Fprintln(w, "  nothing defined or found")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Status"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, b := range report.Buckets() {
		for _, name := range b.Names {
			table.Append([]string{name, bucketLabels[b.Bucket]})
		}
	}
	table.Render()
}
