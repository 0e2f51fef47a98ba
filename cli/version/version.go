package version

import (
	"os"

	"github.com/senilio/gcfflasher/cli/feedback"
	v "github.com/senilio/gcfflasher/version"
	"github.com/spf13/cobra"
)

// NewCommand created a new `version` command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Shows version number of gcfflasher.",
		Long:    "Shows the version number of gcfflasher which is installed on your system.",
		Example: "  " + os.Args[0] + " version",
		Args:    cobra.NoArgs,
		Run:     run,
	}
}

func run(cmd *cobra.Command, args []string) {
	feedback.PrintResult(v.VersionInfo)
}
