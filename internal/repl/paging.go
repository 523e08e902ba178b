package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/query"
)

func (r *REPL) cmdNext(ctx context.Context, _ []string) error {
	issues, err := r.session.NextPage(ctx)
	if err != nil {
		return err
	}
	return r.showPage(issues)
}

func (r *REPL) cmdPrev(ctx context.Context, _ []string) error {
	issues, err := r.session.PreviousPage(ctx)
	if err != nil {
		return err
	}
	return r.showPage(issues)
}

func (r *REPL) cmdPage(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: page <n> [size]")
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid page %q", args[0])
	}

	size := r.pageSize
	if state, ok := r.session.Pagination(); ok {
		size = state.PageSize
	}
	if len(args) == 2 {
		if size, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid page size %q", args[1])
		}
	}

	issues, err := r.session.GoToPage(ctx, page, size)
	if err != nil {
		return err
	}
	return r.showPage(issues)
}

// cmdAll batch loads up to target issues, reporting progress per page. A
// failure part way keeps and reports the issues loaded so far.
func (r *REPL) cmdAll(ctx context.Context, args []string) error {
	target := r.batchTarget
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid target %q", args[0])
		}
		target = n
	}

	gray := color.New(color.FgHiBlack).SprintFunc()
	res, err := r.session.LoadAll(ctx, target, func(p query.Progress) {
		r.printf("%s\n", gray(fmt.Sprintf("  page %d: %d/%d issues", p.Page, p.Loaded, p.Target)))
	})
	if res != nil && len(res.Issues) > 0 {
		if showErr := r.showPage(res.Issues); showErr != nil {
			return errors.Join(err, showErr)
		}
		if err != nil {
			yellow := color.New(color.FgYellow).SprintFunc()
			r.printf("%s stopped after %d of %d issues\n", yellow("Partial:"), len(res.Issues), res.Target)
		}
	}
	return err
}

func (r *REPL) cmdReset(ctx context.Context, _ []string) error {
	issues, err := r.session.ResetPagination(ctx)
	if err != nil {
		return err
	}
	return r.showPage(issues)
}

func (r *REPL) showExecution(exec *query.Execution) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	source := fmt.Sprintf("fetched in %dms", exec.Duration.Milliseconds())
	if exec.Cached {
		source = "cached " + exec.Timestamp.Format("15:04:05")
	}
	r.printf("\n%s  %d of %d issues (%s)\n", cyan(exec.Definition.Name), len(exec.Issues), exec.Total, source)
	return r.showPage(exec.Issues)
}

func (r *REPL) showPage(issues []jira.Issue) error {
	f := r.formatter()
	if len(issues) > 0 {
		if err := f.FormatIssues(issues); err != nil {
			return err
		}
	}
	if state, ok := r.session.Pagination(); ok {
		return f.FormatPagination(state)
	}
	return nil
}
