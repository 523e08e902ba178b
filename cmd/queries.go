package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/jqlboard/internal/presentation"
	"github.com/zjrosen/jqlboard/internal/query"
)

var (
	queriesFormat   string
	queriesCategory string
	queriesTag      string

	addName        string
	addDescription string
	addJQL         string
	addMaxResults  int
	addTags        []string
)

var queriesCmd = &cobra.Command{
	Use:     "queries",
	Aliases: []string{"q"},
	Short:   "Browse and manage the query catalog",
}

var queriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog queries",
	Long: `List predefined and custom queries.

Examples:
  jqlboard queries list
  jqlboard queries list --category university
  jqlboard queries list --tag bugs --format json | jq '.[].id'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		var defs []query.Definition
		switch {
		case queriesCategory != "":
			cat := query.Category(strings.ToLower(queriesCategory))
			if !cat.Valid() {
				return fmt.Errorf("unknown category %q", queriesCategory)
			}
			defs = catalog.ListByCategory(cat)
		case queriesTag != "":
			defs = catalog.ListByTag(queriesTag)
		default:
			defs = catalog.All()
		}
		return writeQueries(cmd, defs)
	},
}

var queriesSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search queries by name, description or tag",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		return writeQueries(cmd, catalog.Search(joinArgs(args)))
	},
}

var queriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a custom query to the config file",
	Long: `Add a custom query. The JQL is validated first: against Jira when
credentials are configured, offline otherwise.

Example:
  jqlboard queries add --name "Team bugs" --jql "project = BAU AND type = Bug" --tag bugs --tag team`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.close() }()

		if _, err := a.session.Executor().Validate(cmd.Context(), addJQL); err != nil {
			return err
		}

		catalog := a.session.Catalog()
		id, err := catalog.AddCustom(query.CustomQuery{
			Name:        addName,
			Description: addDescription,
			JQL:         addJQL,
			MaxResults:  addMaxResults,
			Tags:        addTags,
		})
		if err != nil {
			return err
		}
		if err := saveCustom(configPath, catalog.Custom()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", id, configPath)
		return nil
	},
}

var queriesRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a custom query from the config file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		if !catalog.RemoveCustom(args[0]) {
			return fmt.Errorf("no custom query with id %q", args[0])
		}
		if err := saveCustom(configPath, catalog.Custom()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

var queriesCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with their query counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		format, err := presentation.ParseFormat(queriesFormat)
		if err != nil {
			return err
		}

		counts := catalog.CountByCategory()
		rows := make([]presentation.Count, 0, len(counts))
		for _, cat := range catalog.Categories() {
			rows = append(rows, presentation.Count{Name: string(cat), Count: counts[cat]})
		}
		return presentation.NewFormatter(cmd.OutOrStdout(), format).FormatSummary("Category", rows)
	},
}

var queriesTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every tag in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		for _, tag := range catalog.Tags() {
			fmt.Fprintln(cmd.OutOrStdout(), tag)
		}
		return nil
	},
}

func init() {
	queriesCmd.PersistentFlags().StringVarP(&queriesFormat, "format", "o", "table", "output format: table, json or csv")
	queriesListCmd.Flags().StringVar(&queriesCategory, "category", "", "only list this category")
	queriesListCmd.Flags().StringVarP(&queriesTag, "tag", "t", "", "only list queries carrying this tag")

	queriesAddCmd.Flags().StringVarP(&addName, "name", "n", "", "display name (required)")
	queriesAddCmd.Flags().StringVar(&addDescription, "description", "", "longer description")
	queriesAddCmd.Flags().StringVarP(&addJQL, "jql", "j", "", "JQL text (required)")
	queriesAddCmd.Flags().IntVar(&addMaxResults, "max-results", 0, "result limit (default 100)")
	queriesAddCmd.Flags().StringArrayVarP(&addTags, "tag", "t", nil, "tag (repeatable)")
	_ = queriesAddCmd.MarkFlagRequired("name")
	_ = queriesAddCmd.MarkFlagRequired("jql")

	queriesCmd.AddCommand(queriesListCmd, queriesSearchCmd, queriesAddCmd, queriesRemoveCmd, queriesCategoriesCmd, queriesTagsCmd)
	rootCmd.AddCommand(queriesCmd)
}

// loadCatalog builds the catalog without touching Jira or the history store.
func loadCatalog() (*query.Catalog, error) {
	catalog := query.NewCatalog()
	if err := catalog.LoadCustom(cfg.Definitions()); err != nil {
		return nil, fmt.Errorf("loading custom queries: %w", err)
	}
	return catalog, nil
}

func writeQueries(cmd *cobra.Command, defs []query.Definition) error {
	format, err := presentation.ParseFormat(queriesFormat)
	if err != nil {
		return err
	}
	return presentation.NewFormatter(cmd.OutOrStdout(), format).FormatQueries(defs)
}
