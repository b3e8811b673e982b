package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/workers/intake"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the workspace artifacts against their schemas",
	Long: `Parses every workspace-level artifact that exists and reports the
ones that fail schema validation. The specification must also be approved.`,
	RunE: validateWorkspace,
}

type check struct {
	path string
	read func(ctx context.Context, store artifactrepo.Store, p string) error
}

func readAs[T any](kind artifact.Kind) func(context.Context, artifactrepo.Store, string) error {
	return func(ctx context.Context, store artifactrepo.Store, p string) error {
		_, err := artifactrepo.Read[T](ctx, store, kind, p)
		return err
	}
}

var checks = []check{
	{artifact.DataProfileFile, readAs[artifact.DataProfile](artifact.KindDataProfile)},
	{artifact.AcquisitionPlanFile, readAs[artifact.DataAcquisitionPlan](artifact.KindAcquisitionPlan)},
	{artifact.StrategyFile, readAs[artifact.Strategy](artifact.KindStrategy)},
	{artifact.ModelMetadataFile, readAs[artifact.ModelMetadata](artifact.KindModelMetadata)},
	{artifact.ApplicationSpecFile, readAs[artifact.ApplicationSpec](artifact.KindApplicationSpec)},
	{artifact.ApplicationPlanFile, readAs[artifact.ApplicationPlan](artifact.KindApplicationPlan)},
	{artifact.ConversationFile, readAs[artifact.ConversationState](artifact.KindConversation)},
	{artifact.RunStatusFile, readAs[artifact.RunStatus](artifact.KindRunStatus)},
}

func validateWorkspace(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer done()

	out := cmd.OutOrStdout()
	var errs []error
	if _, err := intake.Load(ctx, a.Store, logger); err != nil {
		fmt.Fprintf(out, "FAIL %s: %v\n", artifact.SpecificationFile, err)
		errs = append(errs, err)
	} else {
		fmt.Fprintf(out, "ok   %s\n", artifact.SpecificationFile)
	}
	for _, c := range checks {
		err := c.read(ctx, a.Store, c.path)
		switch {
		case artifactrepo.IsNotFound(err):
			continue
		case err != nil:
			fmt.Fprintf(out, "FAIL %s: %v\n", c.path, err)
			errs = append(errs, err)
		default:
			fmt.Fprintf(out, "ok   %s\n", c.path)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d artifact(s) invalid: %w", len(errs), errors.Join(errs...))
	}
	return nil
}
