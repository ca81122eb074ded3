package commands

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
	"github.com/teranos/tagteam/tags/storage"
)

// TaggedCmd finds entities carrying a set of tags
var TaggedCmd = &cobra.Command{
	Use:   "tagged <kind> <tags>",
	Short: "Find entities carrying a set of tags",
	Long: `tagged — Find entities of a kind carrying every given tag

Tag names match case-insensitively. A tag that was never used matches
nothing. With --any, entities carrying at least one of the tags match.

Examples:
  tagteam tagged item "go, sql"
  tagteam tagged item "go, rust" --any
  tagteam tagged user chess --context interests --context hobbies`,
	Args: cobra.ExactArgs(2),
	RunE: runTagged,
}

// RelatedCmd ranks entities by shared tags
var RelatedCmd = &cobra.Command{
	Use:   "related <kind> <id>",
	Short: "Rank entities by tags shared with an entity",
	Args:  cobra.ExactArgs(2),
	RunE:  runRelated,
}

// CountsCmd aggregates tag usage
var CountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Count tag usage",
	Long: `counts — Count how often each tag is used, most used first

Examples:
  tagteam counts                          # Across every tagging
  tagteam counts --kind item --id 1 --id 2
  tagteam counts --kind item --tagged go  # Among items tagged go
  tagteam counts --context skills --limit 10`,
	Args: cobra.NoArgs,
	RunE: runCounts,
}

// TagsCmd lists the tag dictionary
var TagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List known tags",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var (
	queryContextsFlag []string
	queryTaggerFlag   string
	queryAnyFlag      bool
	relatedLimitFlag  int
	countsLimitFlag   int
	tagsLimitFlag     int
	countsKindFlag    string
	countsIDsFlag     []int64
	countsTaggedFlag  string
	tagsPrefixFlag    string
)

func init() {
	TaggedCmd.Flags().StringArrayVar(&queryContextsFlag, "context", nil, "Only match taggings in this context (repeatable)")
	TaggedCmd.Flags().StringVar(&queryTaggerFlag, "tagger", "", `Only match taggings by this tagger (kind:id or "default")`)
	TaggedCmd.Flags().BoolVar(&queryAnyFlag, "any", false, "Match entities carrying any of the tags")

	RelatedCmd.Flags().StringArrayVar(&queryContextsFlag, "context", nil, "Only compare taggings in this context (repeatable)")
	RelatedCmd.Flags().IntVar(&relatedLimitFlag, "limit", 10, "Maximum number of results (0 for all)")

	CountsCmd.Flags().StringVar(&countsKindFlag, "kind", "", "Only count taggings of this kind")
	CountsCmd.Flags().Int64SliceVar(&countsIDsFlag, "id", nil, "Only count these entities of --kind (repeatable)")
	CountsCmd.Flags().StringVar(&countsTaggedFlag, "tagged", "", "Only count entities of --kind carrying these tags")
	CountsCmd.Flags().StringArrayVar(&queryContextsFlag, "context", nil, "Only count taggings in this context (repeatable)")
	CountsCmd.Flags().StringVar(&queryTaggerFlag, "tagger", "", `Only count taggings by this tagger (kind:id or "default")`)
	CountsCmd.Flags().IntVar(&countsLimitFlag, "limit", 0, "Maximum number of tags (0 for all)")

	TagsCmd.Flags().StringVar(&tagsPrefixFlag, "prefix", "", "Only list tags starting with this prefix")
	TagsCmd.Flags().IntVar(&tagsLimitFlag, "limit", 0, "Maximum number of tags (0 for all)")
}

func runTagged(cmd *cobra.Command, args []string) error {
	tagger, err := parseTagger(queryTaggerFlag)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	query := storage.TaggedWith(s.service.Parser().Parse(args[1])...).
		OfKind(args[0]).
		WithContext(queryContextsFlag...).
		WithTagger(tagger)
	if queryAnyFlag {
		query = query.AnyTag()
	}

	ids, err := s.store.FindTagged(context.Background(), query)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		pterm.Info.Println("No matching entities")
		return nil
	}
	for _, id := range ids {
		pterm.Println(tags.Ref{Kind: args[0], ID: id})
	}
	return nil
}

func runRelated(cmd *cobra.Command, args []string) error {
	ref, err := parseEntity(args[0], args[1])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	related, err := s.store.FindRelated(context.Background(),
		storage.RelatedTo(ref).WithContext(queryContextsFlag...).Limit(relatedLimitFlag))
	if err != nil {
		return err
	}
	if len(related) == 0 {
		pterm.Info.Printfln("No entities share tags with %s", ref)
		return nil
	}

	data := pterm.TableData{{"Entity", "Shared Tags"}}
	for _, r := range related {
		data = append(data, []string{tags.Ref{Kind: ref.Kind, ID: r.ID}.String(), strconv.Itoa(r.Shared)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runCounts(cmd *cobra.Command, args []string) error {
	if (len(countsIDsFlag) > 0 || countsTaggedFlag != "") && countsKindFlag == "" {
		return errors.WithHint(errors.NewInvalidRequestError("--id and --tagged need --kind"), "e.g. tagteam counts --kind item --id 1")
	}
	tagger, err := parseTagger(queryTaggerFlag)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := context.Background()

	query := storage.CountTags().
		WithContext(queryContextsFlag...).
		WithTagger(tagger).
		Limit(countsLimitFlag)
	if countsKindFlag != "" {
		query = query.ForTaggables(countsKindFlag, countsIDsFlag...)
	}
	if countsTaggedFlag != "" {
		pred, err := s.store.ResolveTagged(ctx,
			storage.TaggedWith(s.service.Parser().Parse(countsTaggedFlag)...).OfKind(countsKindFlag))
		if err != nil {
			return err
		}
		query = query.WithinTagged(pred)
	}

	counts, err := s.store.TagCounts(ctx, query)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		pterm.Info.Println("No taggings match")
		return nil
	}

	data := pterm.TableData{{"Tag", "Count"}}
	for _, c := range counts {
		data = append(data, []string{c.Name, strconv.Itoa(c.Count)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runTags(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.store.ListTags(context.Background(), tagsPrefixFlag, tagsLimitFlag)
	if err != nil {
		return err
	}
	for _, tag := range list {
		pterm.Println(tag.Name)
	}
	return nil
}
