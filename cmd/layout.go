package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chrisdamba/dinesim/internal/simulator"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the shared region layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		l := simulator.LayoutFor(cfg)
		if err := l.Validate(); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "OFFSET\tFIELD")
		for _, f := range l.Fields() {
			fmt.Fprintf(w, "%d\t%s\n", f.Offset, f.Name)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if spill := l.Spill(); spill > 0 {
			fmt.Printf("\nA queue of %d slots needs %d words more than a waiter area; slot %d onwards overlaps the next area and is refused.\n",
				l.QueueSize, spill, l.WaiterUsableSlots())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
}
