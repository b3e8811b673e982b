package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/runner"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run status",
	RunE:  showStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status record")
}

func showStatus(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer done()

	st, err := runner.LoadStatus(ctx, a.Store)
	if artifactrepo.IsNotFound(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "no build has run in this workspace")
		return nil
	}
	if err != nil {
		return err
	}
	if statusJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	printStatus(cmd.OutOrStdout(), st)
	return nil
}
