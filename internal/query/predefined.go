package query

const (
	bauProject       = `project = "BAU Servicios Universitarios - Académico"`
	notClosed        = `status not in (RESUELTA, CERRADA, DESESTIMADA)`
	escalationLink   = `issueLinkType in ("is an escalation for")`
	statusNotDoneCat = `statusCategory != done`
)

// Predefined returns the built-in catalog entries, grouped by category in
// display order.
func Predefined() []Definition {
	return []Definition{
		// basic
		{
			ID:          "pending",
			Name:        "Pending",
			Description: "Assigned issues waiting to be worked on",
			JQL:         "assignee = currentUser() AND status IN ('NUEVA', 'To Do', 'ANÁLISIS') ORDER BY updated DESC",
			Category:    CategoryBasic,
			Tags:        []string{"status", "assigned", "pending"},
		},
		{
			ID:          "in_progress",
			Name:        "In Progress",
			Description: "Issues currently being worked on",
			JQL:         "assignee = currentUser() AND status IN ('EN CURSO', 'In Progress', 'ESCALADO') ORDER BY updated DESC",
			Category:    CategoryBasic,
			Tags:        []string{"status", "assigned", "active"},
		},
		{
			ID:          "high_priority",
			Name:        "High Priority",
			Description: "Critical issues that need attention",
			JQL:         "assignee = currentUser() AND priority IN ('High', 'Highest', 'Alto', 'Crítico') ORDER BY updated DESC",
			Category:    CategoryBasic,
			Tags:        []string{"priority", "critical", "urgent"},
		},
		{
			ID:          "completed",
			Name:        "Completed",
			Description: "Finished and closed issues",
			JQL:         "assignee = currentUser() AND status IN ('CERRADA', 'Done', 'RESUELTA') ORDER BY updated DESC",
			Category:    CategoryBasic,
			Tags:        []string{"status", "done", "completed"},
		},

		// management
		{
			ID:          "escalations_unassigned",
			Name:        "Unassigned Escalations",
			Description: "Escalated issues that still need an assignee",
			JQL:         escalationLink + " AND assignee is EMPTY AND " + statusNotDoneCat + " ORDER BY created DESC",
			MaxResults:  150,
			Category:    CategoryManagement,
			Tags:        []string{"escalation", "unassigned", "urgent", "management"},
		},
		{
			ID:          "overdue_issues",
			Name:        "Overdue Issues",
			Description: "Issues past their due date",
			JQL:         "duedate < now() AND " + notClosed + " AND " + statusNotDoneCat + " ORDER BY duedate ASC",
			Category:    CategoryManagement,
			Tags:        []string{"overdue", "deadline", "urgent"},
		},
		{
			ID:          "blocked_issues",
			Name:        "Blocked Issues",
			Description: "Issues flagged as blocked",
			JQL:         `status = "BLOQUEADA" OR labels in (blocked, blocker) ORDER BY updated DESC`,
			MaxResults:  75,
			Category:    CategoryManagement,
			Tags:        []string{"blocked", "impediment", "review"},
		},

		// maintenance
		{
			ID:          "old_unresolved",
			Name:        "Old Unresolved Issues",
			Description: "Issues created more than 12 weeks ago and still open",
			JQL:         "created <= -12w AND " + notClosed + " AND " + statusNotDoneCat + " ORDER BY created ASC",
			Category:    CategoryMaintenance,
			Tags:        []string{"old", "unresolved", "review", "maintenance"},
		},

		// university
		{
			ID:          "expedientes_all",
			Name:        "Case Files",
			Description: "Every active academic BAU case file",
			JQL:         bauProject + " AND " + notClosed + " ORDER BY created DESC",
			Category:    CategoryUniversity,
			Tags:        []string{"expedientes", "bau", "academic", "active"},
		},
		{
			ID:          "expedientes_pending",
			Name:        "Pending Case Files",
			Description: "Case files that are new or under analysis",
			JQL:         bauProject + ` AND status in (NUEVA, "ANÁLISIS") ORDER BY created ASC`,
			MaxResults:  75,
			Category:    CategoryUniversity,
			Tags:        []string{"expedientes", "pending", "analysis", "todo"},
		},
		{
			ID:          "expedientes_in_progress",
			Name:        "Case Files In Progress",
			Description: "Case files being processed or escalated",
			JQL:         bauProject + ` AND status in ("EN CURSO", ESCALADO) ORDER BY updated DESC`,
			MaxResults:  75,
			Category:    CategoryUniversity,
			Tags:        []string{"expedientes", "progress", "escalated", "active"},
		},
		{
			ID:          "expedientes_unassigned",
			Name:        "Unassigned Case Files",
			Description: "Case files that need an owner",
			JQL:         bauProject + " AND assignee is EMPTY AND " + notClosed + " ORDER BY created ASC",
			MaxResults:  50,
			Category:    CategoryUniversity,
			Tags:        []string{"expedientes", "unassigned", "needs-assignment", "urgent"},
		},
		{
			ID:          "university_services_bau",
			Name:        "BAU University Services",
			Description: "Open issues in the academic university project",
			JQL:         bauProject + " AND " + notClosed + " ORDER BY priority DESC, created DESC",
			MaxResults:  75,
			Category:    CategoryUniversity,
			Tags:        []string{"bau", "academic", "university", "services"},
		},
		{
			ID:          "academic_escalations",
			Name:        "Academic Escalations",
			Description: "Academic escalations without an owner",
			JQL:         "created >= -20w AND " + bauProject + " AND " + notClosed + " AND " + escalationLink + " AND " + statusNotDoneCat + " AND assignee is EMPTY ORDER BY created DESC",
			MaxResults:  50,
			Category:    CategoryUniversity,
			Tags:        []string{"escalation", "academic", "unassigned", "university"},
		},
		{
			ID:          "bau_escalations",
			Name:        "BAU Escalations",
			Description: "Every escalation in the academic BAU project",
			JQL:         bauProject + " AND " + escalationLink + " ORDER BY created DESC",
			MaxResults:  50,
			Category:    CategoryUniversity,
			Tags:        []string{"escalation", "bau", "academic", "all-escalations"},
		},

		// analysis
		{
			ID:          "updated_today",
			Name:        "Updated Today",
			Description: "Issues with activity in the last 24 hours",
			JQL:         "assignee = currentUser() AND updated >= -1d ORDER BY updated DESC",
			Category:    CategoryAnalysis,
			Tags:        []string{"recent", "activity", "today"},
		},
		{
			ID:          "updated_week",
			Name:        "Updated This Week",
			Description: "Issues with activity in the last 7 days",
			JQL:         "assignee = currentUser() AND updated >= -1w ORDER BY updated DESC",
			Category:    CategoryAnalysis,
			Tags:        []string{"recent", "activity", "weekly"},
		},
		{
			ID:          "created_last_week",
			Name:        "Created Last Week",
			Description: "Issues created in the last 7 days",
			JQL:         "created >= -1w ORDER BY created DESC",
			MaxResults:  150,
			Category:    CategoryAnalysis,
			Tags:        []string{"recent", "created", "weekly"},
		},
	}
}
