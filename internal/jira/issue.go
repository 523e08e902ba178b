// Package jira is a minimal Jira Cloud REST client covering issue search,
// the current user and the project list.
package jira

// Issue is one search hit. Only the fields jqlboard renders are decoded.
type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Self   string `json:"self,omitempty"`
	Fields Fields `json:"fields"`
}

// Fields holds the subset of issue fields requested by DefaultFields.
type Fields struct {
	Summary     string       `json:"summary"`
	Description any          `json:"description,omitempty"`
	Status      *NamedField  `json:"status,omitempty"`
	Priority    *NamedField  `json:"priority,omitempty"`
	IssueType   *NamedField  `json:"issuetype,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	Reporter    *User        `json:"reporter,omitempty"`
	Project     *Project     `json:"project,omitempty"`
	Created     string       `json:"created,omitempty"`
	Updated     string       `json:"updated,omitempty"`
	DueDate     string       `json:"duedate,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Components  []NamedField `json:"components,omitempty"`
}

// NamedField is the common {id, name} shape Jira uses for status, priority,
// issue type and components.
type NamedField struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// User is a Jira account.
type User struct {
	AccountID    string `json:"accountId,omitempty"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Active       bool   `json:"active,omitempty"`
}

// Project is a Jira project reference.
type Project struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// StatusName returns the status name or "" when unset.
func (i Issue) StatusName() string {
	if i.Fields.Status == nil {
		return ""
	}
	return i.Fields.Status.Name
}

// PriorityName returns the priority name or "" when unset.
func (i Issue) PriorityName() string {
	if i.Fields.Priority == nil {
		return ""
	}
	return i.Fields.Priority.Name
}

// AssigneeName returns the assignee display name or "" when unassigned.
func (i Issue) AssigneeName() string {
	if i.Fields.Assignee == nil {
		return ""
	}
	return i.Fields.Assignee.DisplayName
}

// SearchRequest is one page of a JQL search.
type SearchRequest struct {
	JQL        string
	MaxResults int
	StartAt    int
	// Fields overrides DefaultFields when non-empty.
	Fields []string
}

// SearchResult is one page of search results with the pagination metadata
// Jira echoed back.
type SearchResult struct {
	Issues     []Issue `json:"issues"`
	Total      int     `json:"total"`
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
}

// DefaultFields are requested when a SearchRequest names none.
var DefaultFields = []string{
	"key", "summary", "status", "priority", "assignee",
	"reporter", "created", "updated", "project", "issuetype",
	"duedate", "labels", "components",
}
