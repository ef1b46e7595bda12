package servers

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/yairfalse/ec2mc/internal/awsapi"
)

// Print renders results as a table.
func Print(w io.Writer, results []Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Region", "Name", "ID", "State", "Public IP", "Note"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, r := range results {
		note := r.Warning
		if r.Err != nil {
			note = awsapi.Describe(r.Err)
		}
		table.Append([]string{r.Instance.Region, r.Instance.Name, r.Instance.ID, r.State, r.Instance.PublicIP, note})
	}
	table.Render()
}
