package discovery

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Print renders instances as a table.
func Print(w io.Writer, instances []Instance) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Region", "Name", "ID", "Type", "State", "Public IP"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, i := range instances {
		table.Append([]string{i.Region, i.Name, i.ID, i.Type, i.State, i.PublicIP})
	}
	table.Render()
}
