package handlers

import (
	"time"

	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/table"
)

const (
	adminPageSize    = 8
	submittedLayout  = "02/01/2006, 03:04 PM"
	actionReachedOut = "Mark as Reached Out"
	actionPending    = "Mark as Pending"
)

func leadColumns() []table.Column[models.Lead] {
	return []table.Column[models.Lead]{
		{
			ID:       "name",
			Header:   "Name",
			Accessor: func(l models.Lead) any { return l.FullName() },
			Kind:     table.CellText,
			Sortable: true,
		},
		{
			ID:       "submitted",
			Header:   "Submitted",
			Accessor: func(l models.Lead) any { return l.CreatedAt },
			Kind:     table.CellDate,
			Format: func(v any) string {
				t, ok := v.(time.Time)
				if !ok || t.IsZero() {
					return ""
				}
				return t.Local().Format(submittedLayout)
			},
			Sortable: true,
		},
		{
			ID:       "status",
			Header:   "Status",
			Accessor: func(l models.Lead) any { return l.Status },
			Kind:     table.CellBadge,
			Format:   func(v any) string { return v.(models.LeadStatus).Label() },
			Sortable: true,
		},
		{
			ID:       "country",
			Header:   "Country",
			Accessor: func(l models.Lead) any { return l.Country },
			Kind:     table.CellText,
			Sortable: true,
		},
		{
			ID:       "actions",
			Header:   "Actions",
			Accessor: func(l models.Lead) any { return l.Status.Toggled() },
			Kind:     table.CellAction,
			Format:   func(v any) string { return actionLabel(v.(models.LeadStatus)) },
		},
	}
}

// actionLabel names the button that moves a lead to target.
func actionLabel(target models.LeadStatus) string {
	if target == models.LeadStatusPending {
		return actionPending
	}
	return actionReachedOut
}
