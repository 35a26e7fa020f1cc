package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lean_canvas_coach/canvas"
)

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List the available framework analyses",
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range canvas.AllFrameworks() {
			d, _ := f.Descriptor()
			fmt.Printf("%-18s %s\n", d.Key, d.Name)
			for _, h := range d.Headings {
				fmt.Printf("%-18s   - %s\n", "", h.Title)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(frameworksCmd)
}
