package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/flatcms/core/cmd/flatcms/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flatcms",
		Short: "flatcms document server",
		Long:  `flatcms serves a directory of markdown and plain text documents and lets signed-in users create, edit and delete them.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
