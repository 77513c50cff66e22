package main

import (
	"fmt"
	"os"

	"github.com/cascadeweb/cascade/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config file>",
	Short: "Check a configuration file for problems",
	Long:  `Reads the configuration file and reports every validation problem it contains.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var problems []error
		_, err := config.ReadApplicationOptions(args[0], func(err error) {
			problems = append(problems, err)
		}, nil)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Println(p)
			}
			os.Exit(1)
		}
		fmt.Println("Configuration is valid")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
