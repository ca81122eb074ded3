package commands

import (
	"context"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tagteam/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the tagteam database",
	Long: `db — Manage the tagteam database

Examples:
  tagteam db migrate              # Apply pending migrations
  tagteam db stats                # Show tag and tagging statistics
  tagteam db stats --kind item    # Restrict context listing to one kind`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show tag and tagging statistics",
	RunE:  runDbStats,
}

var statsKindFlag string

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
	dbStatsCmd.Flags().StringVar(&statsKindFlag, "kind", "", "Only list contexts used by this taggable kind")
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	database, err := openDatabase(DatabasePathFlag)
	if err != nil {
		return err
	}
	defer database.Close()

	pterm.Success.Println("Database is up to date")
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := context.Background()

	var tagCount, taggingCount, taggableCount int
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM taggings),
			(SELECT COUNT(*) FROM (SELECT DISTINCT taggable_type, taggable_id FROM taggings))
	`).Scan(&tagCount, &taggingCount, &taggableCount)
	if err != nil {
		return errors.Wrap(err, "failed to query tagging stats")
	}

	shared, err := s.store.SharedContexts(ctx, statsKindFlag)
	if err != nil {
		return err
	}
	individual, err := s.store.IndividualContexts(ctx, statsKindFlag)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Database Statistics")
	return pterm.DefaultTable.WithData(pterm.TableData{
		{"Database Path", s.path},
		{"Tags", pterm.Sprint(tagCount)},
		{"Taggings", pterm.Sprint(taggingCount)},
		{"Tagged Entities", pterm.Sprint(taggableCount)},
		{"Shared Contexts", strings.Join(shared, ", ")},
		{"Individual Contexts", strings.Join(individual, ", ")},
	}).Render()
}
