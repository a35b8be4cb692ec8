// Package translate selects a message printer for the user's locale, so
// that diagnostics from the emulator can be localized.
package translate

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer     atomic.Pointer[message.Printer]
	printerOnce sync.Once
)

func load() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("celsior: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer.CompareAndSwap(nil, message.NewPrinter(message.MatchLanguage(locales...)))
}

// SetLanguage forces the printer to a specific language tag.
func SetLanguage(tag language.Tag) {
	printerOnce.Do(func() {})
	printer.Store(message.NewPrinter(tag))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	printerOnce.Do(load)
	return printer.Load().Sprintf(key, args...)
}
