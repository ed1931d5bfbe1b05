// Package templates renders the HTML views of the web UI as templ components.
// Edit the .templ files and run `templ generate` to refresh the _templ.go files.
package templates

import "github.com/JonMunkholm/ClientClean/internal/core"

// MaxRejectedShown caps the rejected-rows table on the summary page.
const MaxRejectedShown = 500

const (
	pageTitle    = "تنظيف الأرقام من ملف Excel"
	summaryTitle = "نتيجة المعاينة"
)

// FormState is what the upload form needs to render.
type FormState struct {
	NameColumn   string
	NumberColumn string
	MaxRows      int
	Codes        []core.CodeInfo
}

func shownRejected(rows []core.RejectedRow) []core.RejectedRow {
	return rows[:min(len(rows), MaxRejectedShown)]
}

func hiddenRejected(rows []core.RejectedRow) int {
	return max(len(rows)-MaxRejectedShown, 0)
}
