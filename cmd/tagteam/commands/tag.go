package commands

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tagteam/logger"
	"github.com/teranos/tagteam/tags"
)

// SetCmd replaces the tag list of one entity scope
var SetCmd = &cobra.Command{
	Use:   "set <kind> <id> <tags>",
	Short: "Replace the tags of an entity",
	Long: `set — Replace the tags of an entity within one context and tagger

The tag string is split on tagging.delimiter. Tags missing from the new list
are removed, new ones are added, and unchanged ones are left alone. An empty
tag string removes every tag in the scope.

Examples:
  tagteam set item 1 "go, sql"
  tagteam set user 7 "chess, go" --context interests
  tagteam set item 1 "favorite" --tagger user:7`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

// ListCmd shows the tag list of one entity scope
var ListCmd = &cobra.Command{
	Use:   "list <kind> <id>",
	Short: "Show the tags of an entity",
	Long: `list — Show the tags of an entity

With --group, lists every tagging in the contexts of a group declared under
tagging.kinds.<kind>.groups. Otherwise shows the tag list of one context and
tagger, plus per-tag counts across all contexts and taggers.`,
	Args: cobra.ExactArgs(2),
	RunE: runList,
}

var (
	scopeContextFlag string
	scopeTaggerFlag  string
	listGroupFlag    string
)

func init() {
	for _, c := range []*cobra.Command{SetCmd, ListCmd} {
		c.Flags().StringVar(&scopeContextFlag, "context", "", "Tagging context (default: none)")
		c.Flags().StringVar(&scopeTaggerFlag, "tagger", "", `Tagger as kind:id (default: unattributed)`)
	}
	ListCmd.Flags().StringVar(&listGroupFlag, "group", "", "Show taggings in a declared context group")
}

func runSet(cmd *cobra.Command, args []string) error {
	ref, err := parseEntity(args[0], args[1])
	if err != nil {
		return err
	}
	tagger, err := parseTagger(scopeTaggerFlag)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := logger.WithRequestID(context.Background(), uuid.NewString())

	taggable, err := s.service.Taggable(ref)
	if err != nil {
		return err
	}
	if err := taggable.SetTagString(ctx, args[2], scopeContextFlag, tagger); err != nil {
		return err
	}
	if err := s.service.ReconcileTags(ctx, taggable); err != nil {
		return err
	}

	list, err := taggable.TagList(ctx, scopeContextFlag, tagger)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s: %s", ref, list)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ref, err := parseEntity(args[0], args[1])
	if err != nil {
		return err
	}
	tagger, err := parseTagger(scopeTaggerFlag)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := context.Background()

	taggable, err := s.service.Taggable(ref)
	if err != nil {
		return err
	}

	if listGroupFlag != "" {
		taggings, err := taggable.Group(ctx, listGroupFlag)
		if err != nil {
			return err
		}
		data := pterm.TableData{{"Tag", "Context", "Tagger", "Added"}}
		for _, t := range taggings {
			data = append(data, []string{t.Name, t.Context, t.Tagger.String(), t.CreatedAt.Format("2006-01-02 15:04")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}

	list, err := taggable.TagList(ctx, scopeContextFlag, tagger)
	if err != nil {
		return err
	}
	if list.Len() == 0 {
		pterm.Info.Printfln("%s has no tags in this scope", ref)
		return nil
	}
	pterm.Println(list.String())

	counts, err := taggable.TagCounts(ctx, "", tags.Unset())
	if err != nil {
		return err
	}
	data := pterm.TableData{{"Tag", "Uses"}}
	for _, name := range list.Names() {
		data = append(data, []string{name, pterm.Sprint(counts[strings.ToLower(name)])})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
