package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "rt",
		Short:         "Reaction test (rt): measure reaction times under different sound levels",
		Long:          "rt runs a five-round visual reaction-time experiment in the terminal, keeps every participant's session on disk, and reports, charts and exports the results.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror log entries to stderr")

	app := &app{}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return app.wire(cmd, verbose)
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newSessionCmd(app),
		newExportCmd(app),
	)

	return rootCmd
}
