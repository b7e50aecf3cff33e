package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tablehub/tablehub/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "tablehub",
		Short: "tablehub",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(service.NewCommand(), service.NewInitCommand(), service.NewRepairCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
