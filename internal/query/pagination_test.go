package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/mocks"
)

func TestNewPaginationState(t *testing.T) {
	s, err := NewPaginationState("project = X", 250, 100)
	require.NoError(t, err)
	require.Zero(t, s.StartAt)
	require.True(t, s.HasMore())
	require.Equal(t, 1, s.CurrentPage())
	require.Equal(t, 3, s.TotalPages())

	from, to := s.ShowingRange()
	require.Equal(t, 1, from)
	require.Equal(t, 100, to)

	_, err = NewPaginationState("x", 10, 0)
	require.ErrorIs(t, err, ErrInvalidPageSize)
	require.True(t, IsConfigurationError(err))

	neg, err := NewPaginationState("x", -3, 10)
	require.NoError(t, err)
	require.Zero(t, neg.Total)
}

func TestPaginationState_Derived(t *testing.T) {
	tests := []struct {
		name           string
		state          PaginationState
		hasMore        bool
		page, pages    int
		fromRow, toRow int
	}{
		{name: "empty", state: PaginationState{PageSize: 50}, page: 1},
		{name: "single partial", state: PaginationState{Total: 7, PageSize: 50}, page: 1, pages: 1, fromRow: 1, toRow: 7},
		{name: "middle", state: PaginationState{Total: 250, StartAt: 100, PageSize: 100}, hasMore: true, page: 2, pages: 3, fromRow: 101, toRow: 200},
		{name: "last partial", state: PaginationState{Total: 250, StartAt: 200, PageSize: 100}, page: 3, pages: 3, fromRow: 201, toRow: 250},
		{name: "exact fit", state: PaginationState{Total: 200, StartAt: 100, PageSize: 100}, page: 2, pages: 2, fromRow: 101, toRow: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.hasMore, tt.state.HasMore())
			require.Equal(t, tt.page, tt.state.CurrentPage())
			require.Equal(t, tt.pages, tt.state.TotalPages())
			from, to := tt.state.ShowingRange()
			require.Equal(t, tt.fromRow, from)
			require.Equal(t, tt.toRow, to)
		})
	}
}

func TestPaginationState_ZeroPageSizeNeverDivides(t *testing.T) {
	s := PaginationState{Total: 10, PageSize: 0}
	require.Equal(t, 1, s.CurrentPage())
	require.Zero(t, s.TotalPages())
}

func TestPaginator_HasMoreInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 1000).Draw(t, "total")
		size := rapid.IntRange(1, 120).Draw(t, "size")
		source := newPagedSource(total)
		p := NewPaginator(source)

		state, err := NewPaginationState("project = X", total, size)
		require.NoError(t, err)
		require.Equal(t, state.StartAt+state.PageSize < state.Total, state.HasMore())

		steps := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 15).Draw(t, "steps")
		for _, step := range steps {
			switch step {
			case 0:
				_, _ = p.Next(context.Background(), state)
			case 1:
				_, _ = p.Previous(context.Background(), state)
			case 2:
				page := rapid.IntRange(-1, state.TotalPages()+2).Draw(t, "page")
				_, _ = p.GoToPage(context.Background(), state, page, 0)
			case 3:
				newSize := rapid.IntRange(1, 120).Draw(t, "newSize")
				_, _ = p.GoToPage(context.Background(), state, 1, newSize)
			}

			require.Equal(t, state.StartAt+state.PageSize < state.Total, state.HasMore())
			require.GreaterOrEqual(t, state.StartAt, 0)
			require.GreaterOrEqual(t, state.PageSize, 1)
			require.Zero(t, state.StartAt%state.PageSize)
		}
	})
}

func TestPaginator_GoToPage(t *testing.T) {
	source := newPagedSource(250)
	p := NewPaginator(source)
	state, err := NewPaginationState("project = X", 250, 100)
	require.NoError(t, err)

	issues, err := p.GoToPage(context.Background(), state, 3, 0)
	require.NoError(t, err)
	require.Len(t, issues, 50)
	require.Equal(t, "BAU-201", issues[0].Key)
	require.Equal(t, 200, state.StartAt)
	require.False(t, state.HasMore())

	require.Equal(t, []jira.SearchRequest{{JQL: "project = X", MaxResults: 100, StartAt: 200}}, source.calls())
}

func TestPaginator_ResizeResetsToPage(t *testing.T) {
	p := NewPaginator(newPagedSource(250))
	state, _ := NewPaginationState("project = X", 250, 100)

	_, err := p.GoToPage(context.Background(), state, 5, 25)
	require.NoError(t, err)
	require.Equal(t, 25, state.PageSize)
	require.Equal(t, 100, state.StartAt)
	require.Equal(t, 10, state.TotalPages())
}

func TestPaginator_Rejections(t *testing.T) {
	source := mocks.NewMockSource(t)
	p := NewPaginator(source)
	state, _ := NewPaginationState("project = X", 250, 100)
	before := *state

	_, err := p.GoToPage(context.Background(), state, 0, 0)
	require.ErrorIs(t, err, ErrPageOutOfRange)
	require.True(t, IsRejected(err))

	_, err = p.GoToPage(context.Background(), state, 4, 0)
	require.ErrorIs(t, err, ErrPageOutOfRange)

	_, err = p.GoToPage(context.Background(), state, 1, -1)
	require.ErrorIs(t, err, ErrInvalidPageSize)

	_, err = p.GoToPage(context.Background(), nil, 1, 0)
	require.ErrorIs(t, err, ErrNoPagination)

	_, err = p.Previous(context.Background(), state)
	require.ErrorIs(t, err, ErrPageOutOfRange)

	require.Equal(t, before, *state)
}

func TestPaginator_EmptyResultAllowsFirstPage(t *testing.T) {
	p := NewPaginator(newPagedSource(0))
	state, _ := NewPaginationState("project = X", 0, 50)

	issues, err := p.GoToPage(context.Background(), state, 1, 0)
	require.NoError(t, err)
	require.Empty(t, issues)

	_, err = p.Next(context.Background(), state)
	require.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestPaginator_NextPrevious(t *testing.T) {
	p := NewPaginator(newPagedSource(120))
	state, _ := NewPaginationState("project = X", 120, 50)

	issues, err := p.Next(context.Background(), state)
	require.NoError(t, err)
	require.Equal(t, "BAU-51", issues[0].Key)
	require.Equal(t, 2, state.CurrentPage())

	issues, err = p.Next(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, issues, 20)
	require.False(t, state.HasMore())

	_, err = p.Next(context.Background(), state)
	require.ErrorIs(t, err, ErrPageOutOfRange)

	issues, err = p.Previous(context.Background(), state)
	require.NoError(t, err)
	require.Equal(t, "BAU-51", issues[0].Key)
}

func TestPaginator_SourceFailureLeavesState(t *testing.T) {
	source := mocks.NewMockSource(t)
	source.EXPECT().Search(mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	p := NewPaginator(source)
	state, _ := NewPaginationState("project = X", 250, 100)
	before := *state

	_, err := p.GoToPage(context.Background(), state, 2, 0)
	require.True(t, IsSourceFailure(err))
	require.Equal(t, before, *state)
}

func TestPaginator_ZeroResultLimit(t *testing.T) {
	source := mocks.NewMockSource(t)
	source.EXPECT().Search(mock.Anything, mock.Anything).
		Return(&jira.SearchResult{Issues: makeIssues(0, 1), Total: 250, MaxResults: 0}, nil)
	p := NewPaginator(source)
	state, _ := NewPaginationState("project = X", 250, 100)

	_, err := p.GoToPage(context.Background(), state, 2, 0)
	require.ErrorIs(t, err, ErrInvalidResultLimit)
	require.True(t, IsConfigurationError(err))
	require.Zero(t, state.StartAt)
}

func TestPaginator_TotalRefreshedFromSource(t *testing.T) {
	source := mocks.NewMockSource(t)
	source.EXPECT().Search(mock.Anything, mock.Anything).
		Return(&jira.SearchResult{Issues: makeIssues(100, 100), Total: 400, MaxResults: 100}, nil)
	p := NewPaginator(source)
	state, _ := NewPaginationState("project = X", 250, 100)

	_, err := p.GoToPage(context.Background(), state, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 400, state.Total)
	require.True(t, state.HasMore())
}

func TestPaginator_NoSource(t *testing.T) {
	p := NewPaginator(nil)
	state, _ := NewPaginationState("project = X", 250, 100)

	_, err := p.GoToPage(context.Background(), state, 1, 0)
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestPaginationState_StartPastShrunkTotal(t *testing.T) {
	state := PaginationState{Total: 5, StartAt: 10, PageSize: 10}

	from, to := state.ShowingRange()
	require.Zero(t, from)
	require.Zero(t, to)
	require.False(t, state.HasMore())
}

func TestPaginator_NavigationLeavesBatchMode(t *testing.T) {
	source := newPagedSource(250)
	state, _ := NewPaginationState("project = X", 250, 20)
	_, err := NewBatchLoader(source, 100).Load(context.Background(), state, 250, nil)
	require.NoError(t, err)
	require.True(t, state.BatchLoaded)

	p := NewPaginator(source)
	issues, err := p.Next(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, issues, 20)
	require.Equal(t, "BAU-21", issues[0].Key)
	require.False(t, state.BatchLoaded)
	require.Equal(t, 20, state.PageSize)
	require.Equal(t, 2, state.CurrentPage())

	issues, err = p.Previous(context.Background(), state)
	require.NoError(t, err)
	require.Equal(t, "BAU-1", issues[0].Key)
	require.Equal(t, 20, state.PageSize)
}

func TestPaginator_PreviousInBatchModeIsOnFirstPage(t *testing.T) {
	source := newPagedSource(250)
	state, _ := NewPaginationState("project = X", 250, 20)
	_, err := NewBatchLoader(source, 100).Load(context.Background(), state, 100, nil)
	require.NoError(t, err)

	_, err = NewPaginator(source).Previous(context.Background(), state)
	require.ErrorIs(t, err, ErrPageOutOfRange)
	require.True(t, state.BatchLoaded)
}
