package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/producex-ai/axiom-sub001/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		err = config.InitConfig(getConfigFile())
		if err != nil {
			err = errors.Wrap(err, "failed to initialize config")
			return err
		}
		fmt.Println("Config created. Edit it to set your API key.")
		return err
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}
