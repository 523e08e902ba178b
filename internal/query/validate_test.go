package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/mocks"
)

func TestValidate_Rejections(t *testing.T) {
	exec := NewExecutor(nil, nil)

	tests := []struct {
		name string
		jql  string
		want error
	}{
		{name: "empty", jql: "", want: ErrEmptyQuery},
		{name: "whitespace", jql: "  \t", want: ErrEmptyQuery},
		{name: "delete", jql: "project = X; DELETE issues", want: ErrForbiddenKeyword},
		{name: "lowercase drop", jql: "drop table", want: ErrForbiddenKeyword},
		{name: "update", jql: "project = X or Update", want: ErrForbiddenKeyword},
		{name: "truncate", jql: "TRUNCATE", want: ErrForbiddenKeyword},
		{name: "select", jql: "SELECT * FROM issues", want: ErrSQLSyntax},
		{name: "where", jql: "project = X WHERE a = b", want: ErrSQLSyntax},
		{name: "group by", jql: "project = X GROUP  BY status", want: ErrSQLSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exec.Validate(context.Background(), tt.jql)
			require.ErrorIs(t, err, tt.want)
			require.True(t, IsRejected(err))
		})
	}
}

func TestValidate_OfflineAccepts(t *testing.T) {
	exec := NewExecutor(nil, nil)

	for _, jql := range []string{
		"project = BAU ORDER BY updated DESC",
		"assignee = currentUser() AND status changed",
		"created >= -7d AND text ~ 'selection'",
	} {
		v, err := exec.Validate(context.Background(), jql)
		require.NoError(t, err, jql)
		require.Equal(t, ConfidenceReduced, v.Confidence)
		require.Contains(t, v.Message, "requires a Jira connection")
	}
}

func TestValidate_KeywordCheckedBeforeLiveCall(t *testing.T) {
	source := mocks.NewMockSource(t)
	exec := NewExecutor(source, nil)

	_, err := exec.Validate(context.Background(), "project = X AND ALTER")
	require.ErrorIs(t, err, ErrForbiddenKeyword)
	source.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestValidate_LiveCheck(t *testing.T) {
	source := mocks.NewMockSource(t)
	source.EXPECT().
		Search(mock.Anything, jira.SearchRequest{JQL: "project = BAU", MaxResults: 1}).
		Return(&jira.SearchResult{Total: 42, MaxResults: 1}, nil)

	exec := NewExecutor(source, nil, WithClock(newFakeClock()))

	v, err := exec.Validate(context.Background(), "project = BAU")
	require.NoError(t, err)
	require.Equal(t, ConfidenceFull, v.Confidence)
	require.Equal(t, "full", v.Confidence.String())

	_, ok := exec.Stats(AdhocQueryID)
	require.False(t, ok)
	require.Zero(t, exec.CacheInfo(context.Background()).EntryCount)
}

func TestValidate_LiveCheckFails(t *testing.T) {
	source := mocks.NewMockSource(t)
	source.EXPECT().Search(mock.Anything, mock.Anything).
		Return(nil, errors.New("jira: HTTP 400: Field 'foo' does not exist."))

	exec := NewExecutor(source, nil)

	_, err := exec.Validate(context.Background(), "foo = bar")
	require.True(t, IsRejected(err))
	require.ErrorIs(t, err, ErrInvalidQuery)
	require.ErrorContains(t, err, "Field 'foo' does not exist")
}

func TestValidate_LiveCheckSkipsSQLHeuristic(t *testing.T) {
	source := mocks.NewMockSource(t)
	source.EXPECT().Search(mock.Anything, mock.Anything).Return(&jira.SearchResult{MaxResults: 1}, nil)

	exec := NewExecutor(source, nil)

	_, err := exec.Validate(context.Background(), `summary ~ "where"`)
	require.NoError(t, err)
}

func TestValidate_LiveCheckZeroResultLimit(t *testing.T) {
	source := mocks.NewMockSource(t)
	source.EXPECT().Search(mock.Anything, mock.Anything).Return(&jira.SearchResult{Total: 3, MaxResults: 0}, nil)

	exec := NewExecutor(source, nil)

	_, err := exec.Validate(context.Background(), "project = BAU")
	require.ErrorIs(t, err, ErrInvalidResultLimit)
	require.True(t, IsConfigurationError(err))
}
