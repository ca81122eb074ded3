package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/tagteam/cmd/tagteam/commands"
	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tagteam",
	Short: "tagteam - tags for any entity, stored in SQLite",
	Long: `tagteam - Polymorphic tagging over a SQLite database.

Tags are attached to entities identified as kind:id, optionally within a
context (e.g. "skills") and attributed to a tagger (another kind:id).

Available commands:
  am      - Show and validate configuration
  db      - Migrate the database and show statistics
  set     - Replace the tags of an entity
  list    - Show the tags of an entity
  tagged  - Find entities carrying a set of tags
  related - Rank entities by shared tags
  counts  - Count tag usage
  tags    - List the tag dictionary
  version - Show build information

Examples:
  tagteam set item 1 "go, sql"                # Tag item:1
  tagteam set user 7 "chess" --context hobbies # Tag within a context
  tagteam tagged item "go, sql"               # Items tagged with both
  tagteam related item 1 --limit 5            # Items sharing the most tags
  tagteam counts --kind item                  # Tag cloud for items`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&commands.DatabasePathFlag, "db", "", "Database path (overrides database.path)")

	// Add commands
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.SetCmd)
	rootCmd.AddCommand(commands.ListCmd)
	rootCmd.AddCommand(commands.TaggedCmd)
	rootCmd.AddCommand(commands.RelatedCmd)
	rootCmd.AddCommand(commands.CountsCmd)
	rootCmd.AddCommand(commands.TagsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
