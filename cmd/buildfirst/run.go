package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/runner"
)

var (
	runDataset   string
	runForceFrom string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the build pipeline",
	Long: `Runs every stage in order. The run status is written to the
workspace after each stage; "buildfirst status" shows the last one.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runDataset, "dataset", "", "Dataset path (overrides config)")
	runCmd.Flags().StringVar(&runForceFrom, "force-from", "", "Rebuild this stage and every later stage, ignoring cached results")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer done()

	env := a.Env()
	if runDataset != "" {
		env.DatasetPath = runDataset
	}
	if runForceFrom != "" {
		if !knownStage(runForceFrom) {
			return fmt.Errorf("unknown stage %q", runForceFrom)
		}
		env.ForceFrom = runForceFrom
	}

	st, err := runner.New(env).Run(ctx)
	printStatus(cmd.OutOrStdout(), st)
	if errors.Is(err, runner.ErrRunFailed) {
		logger.Error("build failed", zap.Error(err))
	}
	return err
}

func knownStage(key string) bool {
	for _, s := range runner.BuildStages() {
		if s.Key == key {
			return true
		}
	}
	return false
}

func printStatus(w io.Writer, st artifact.RunStatus) {
	if st.RunID == "" {
		return
	}
	fmt.Fprintf(w, "run %s: %s\n", st.RunID, st.Label())
	for _, rec := range st.Stages {
		line := fmt.Sprintf("  %d. %-16s %s", rec.Index, rec.Key, rec.Outcome)
		if rec.Detail != "" {
			line += "  " + rec.Detail
		}
		fmt.Fprintln(w, line)
	}
	if st.Status == artifact.RunFailed && st.Error != "" {
		fmt.Fprintf(w, "  error: %s (%s)\n", st.Error, st.Verdict)
	}
}
