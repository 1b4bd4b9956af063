package sheets

import (
	"context"
	"errors"

	"spendwise/internal/report"
)

// Ports for outbound spreadsheet adapters.
type (
	// ReportWriter publishes an assembled report somewhere a user can open it.
	ReportWriter interface {
		// WriteReport stores every sheet of r and returns a reference to the result.
		WriteReport(ctx context.Context, r report.Report) (ref string, err error)
	}

	// TabReader reads back a published tab, used to verify a write.
	TabReader interface {
		ReadTab(ctx context.Context, tab string) ([][]string, error)
	}
)

// ErrNoOwner is returned for reports that carry no user id.
var ErrNoOwner = errors.New("report has no owner")

// TabName is the tab a sheet of r is written to, e.g.
// "<user id> 2024-02-01..2024-03-31 Summary". Tabs are per user so that
// reports of different users never share a tab.
func TabName(r report.Report, sheet string) string {
	return r.UserID + " " + r.Start.String() + ".." + r.End.String() + " " + sheet
}

// StaleTabs returns the tabs of r's owner and range for sheets r leaves out.
// A writer removes them so an earlier export of the range does not linger
// beside the new one.
func StaleTabs(r report.Report) []string {
	present := make(map[string]bool, len(r.Sheets))
	for _, s := range r.Sheets {
		present[s.Name] = true
	}
	var stale []string
	for _, name := range report.SheetOrder {
		if !present[name] {
			stale = append(stale, TabName(r, name))
		}
	}
	return stale
}
