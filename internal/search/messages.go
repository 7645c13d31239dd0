package search

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// NoFilesFound is the status message for a search that matched nothing.
const NoFilesFound = "I couldn't find any files related to your query. " +
	"I may not have permission to read the history of some channels."

// ResultsFound renders the status message for a non-empty result page.
func ResultsFound(n int) string {
	if n == 1 {
		return "Found 1 file"
	}
	return printer.Sprintf("Found %d files", n)
}

// MalformedDate renders the user-facing explanation for an unparseable
// after/before date string.
func MalformedDate(input string) string {
	return printer.Sprintf("I couldn't understand the date you passed: %q. "+
		"I can understand most year-month-day hour-minute-second formats.", input)
}
