package cmd

import (
	"fmt"
	"os"

	"github.com/chrisdamba/dinesim/internal/arrivals"
	"github.com/chrisdamba/dinesim/internal/factories"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var generateCount int

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic arrivals file",
	RunE: func(cmd *cobra.Command, args []string) error {
		factory, err := factories.NewArrivalFactory(cfg)
		if err != nil {
			return err
		}
		list, err := factory.Generate(generateCount)
		if err != nil {
			return err
		}
		f, err := os.Create(cfg.ArrivalsFile)
		if err != nil {
			return fmt.Errorf("creating arrivals file: %w", err)
		}
		if err := arrivals.Write(f, list); err != nil {
			f.Close()
			return fmt.Errorf("writing arrivals file: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("Wrote %d arrivals to %s", len(list), cfg.ArrivalsFile)
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 50, "Number of customers")
	generateCmd.Flags().Int64("seed", 42, "Random seed")
	generateCmd.Flags().String("arrival-pattern", "steady", "Arrival pattern: steady, lunch or dinner")
	bindFlags(generateCmd.Flags())
	rootCmd.AddCommand(generateCmd)
}
