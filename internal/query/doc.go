// Package query runs named and free-form JQL queries against Jira.
//
// A Catalog holds query definitions. An Executor runs a definition through a
// TTL Cache and records per-query Stats. A Paginator moves a result set
// between pages, and a BatchLoader pulls a large result set in fixed-size
// pages. Session ties these together for one interactive caller.
package query
