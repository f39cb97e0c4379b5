package ports

import "gomix/domain/attribution"

// ReportRenderer formats an attribution result for people.
type ReportRenderer interface {
	Markdown(result attribution.Result) string
	HTML(result attribution.Result) ([]byte, error)
}
