package address

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Print renders addresses as a table.
func Print(w io.Writer, addrs []Address) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Region", "Public IP", "Allocation ID", "Instance"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, a := range addrs {
		instance := a.InstanceID
		if instance == "" {
			instance = "-"
		}
		table.Append([]string{a.Region, a.PublicIP, a.AllocationID, instance})
	}
	table.Render()
}
