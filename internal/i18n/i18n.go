// Package i18n renders user-facing error and status text in the user's
// locale.
package i18n

import (
	"log"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("rh850sim: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() key in the active locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
