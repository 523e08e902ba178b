package repl

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/zjrosen/jqlboard/internal/query"
)

// cmdList lists the catalog, optionally narrowed to one category.
func (r *REPL) cmdList(_ context.Context, args []string) error {
	catalog := r.session.Catalog()
	defs := catalog.All()
	if len(args) > 0 {
		cat := query.Category(strings.ToLower(args[0]))
		if !cat.Valid() {
			return fmt.Errorf("unknown category %q (known: %s)", args[0], joinCategories(query.Categories))
		}
		defs = catalog.ListByCategory(cat)
	}
	if len(defs) == 0 {
		r.printf("No queries.\n")
		return nil
	}
	return r.formatter().FormatQueries(defs)
}

func (r *REPL) cmdSearch(_ context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: search <term>")
	}
	defs := r.session.Catalog().Search(strings.Join(args, " "))
	if len(defs) == 0 {
		r.printf("No queries match %q.\n", strings.Join(args, " "))
		return nil
	}
	return r.formatter().FormatQueries(defs)
}

func (r *REPL) cmdRun(ctx context.Context, args []string) error {
	force := false
	var id string
	for _, a := range args {
		switch a {
		case "-f", "--force":
			force = true
		default:
			id = a
		}
	}
	if id == "" {
		return fmt.Errorf("usage: run <id> [-f]")
	}

	exec, err := r.session.RunByID(ctx, id, force)
	if err != nil {
		return err
	}
	return r.showExecution(exec)
}

func (r *REPL) cmdJQL(ctx context.Context, args []string) error {
	exec, err := r.session.RunJQL(ctx, strings.Join(args, " "), r.pageSize, false)
	if err != nil {
		return err
	}
	return r.showExecution(exec)
}

func (r *REPL) cmdValidate(ctx context.Context, args []string) error {
	v, err := r.session.Executor().Validate(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	green := color.New(color.FgGreen).SprintFunc()
	r.printf("%s %s (%s confidence)\n", green("✓"), v.Message, v.Confidence)
	return nil
}

// cmdAdd parses "name | jql | tag,tag". The JQL is validated before the
// query is stored.
func (r *REPL) cmdAdd(ctx context.Context, args []string) error {
	fields := strings.Split(strings.Join(args, " "), "|")
	if len(fields) < 2 {
		return fmt.Errorf("usage: add <name> | <jql> [| tag,tag]")
	}
	name := strings.TrimSpace(fields[0])
	jql := strings.TrimSpace(fields[1])

	var tags []string
	if len(fields) > 2 {
		for _, t := range strings.Split(fields[2], ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	if _, err := r.session.Executor().Validate(ctx, jql); err != nil {
		return err
	}

	id, err := r.session.Catalog().AddCustom(query.CustomQuery{
		Name:       name,
		JQL:        jql,
		MaxResults: r.pageSize,
		Tags:       tags,
	})
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	r.printf("%s Added %s\n", green("✓"), id)
	return r.persistCustom()
}

func (r *REPL) cmdRemove(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: remove <id>")
	}
	if !r.session.Catalog().RemoveCustom(args[0]) {
		return fmt.Errorf("no custom query with id %q", args[0])
	}

	green := color.New(color.FgGreen).SprintFunc()
	r.printf("%s Removed %s\n", green("✓"), args[0])
	return r.persistCustom()
}

func (r *REPL) persistCustom() error {
	if r.configPath == "" || r.saveQueries == nil {
		gray := color.New(color.FgHiBlack).SprintFunc()
		r.printf("%s\n", gray("Custom queries are kept for this session only"))
		return nil
	}
	if err := r.saveQueries(r.configPath, r.session.Catalog().Custom()); err != nil {
		return fmt.Errorf("saving custom queries: %w", err)
	}
	return nil
}

func joinCategories(cats []query.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
