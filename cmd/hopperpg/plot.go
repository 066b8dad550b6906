package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/hopperpg/experiment/tracker"
)

func plotCommand() *cobra.Command {
	var in, out, title, yLabel string
	var window int

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot data saved by a training run",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := tracker.LoadData(in)
			if err != nil {
				return fmt.Errorf("plot: %v", err)
			}
			if err := tracker.SavePlot(data, title, yLabel, out,
				window); err != nil {
				return fmt.Errorf("plot: %v", err)
			}
			log.Printf("plotted %d episodes to %v", len(data), out)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in, "in", "results/"+returnsFile, "Saved tracker data")
	flags.StringVar(&out, "out", "returns.png", "Image file to write")
	flags.StringVar(&title, "title", "Learning curve", "Plot title")
	flags.StringVar(&yLabel, "ylabel", "Return", "Label of the y axis")
	flags.IntVar(&window, "window", 10, "Moving average window, 1 for none")

	return cmd
}
