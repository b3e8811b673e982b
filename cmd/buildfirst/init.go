package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/workers/intake"
)

var (
	initName   string
	initGoal   string
	initDomain string
	initPages  []string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a draft project specification",
	Long: `Writes an unapproved project specification into the workspace.
Edit it, set handoff.approved to true, then run "buildfirst run".`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Project name (required)")
	initCmd.Flags().StringVar(&initGoal, "goal", "", "Primary goal, e.g. \"recommend movies\"")
	initCmd.Flags().StringVar(&initDomain, "domain", "ml", "Problem domain")
	initCmd.Flags().StringSliceVar(&initPages, "page", nil, "Page name (repeatable)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing specification")
	_ = initCmd.MarkFlagRequired("name")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer done()

	exists, err := a.Store.Exists(ctx, artifact.SpecificationFile)
	if err != nil {
		return err
	}
	if exists && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", artifact.SpecificationFile)
	}
	spec := intake.Draft(initName, initGoal, initDomain, initPages, time.Now())
	if err := artifactrepo.Write(ctx, a.Store, artifact.SpecificationFile, spec); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (not approved)\n", artifact.SpecificationFile)
	return nil
}
