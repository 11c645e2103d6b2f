// Package render produces localized display copy for notifications whose
// producer supplied no title or body.
package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/murmurapp/murmur/internal/services/reminders/domain"
)

const (
	defaultGenericTitle = "Murmur"
	defaultGenericBody  = "You have a new notification."
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Renderer localizes fallback copy per notification kind. It satisfies
// the lifecycle service's renderer dependency.
type Renderer struct {
	loc Localizer
}

// supportedLocales are the registered message catalogs, English first so
// unmatched locales resolve to it.
var supportedLocales = []language.Tag{
	language.English,
	language.MustParse("pt-BR"),
}

var localeMatcher = language.NewMatcher(supportedLocales)

// New constructs a renderer for the given locale tag. Tags without a
// registered catalog fall back to English.
func New(locale string) *Renderer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	_, index, _ := localeMatcher.Match(tag)
	return &Renderer{loc: message.NewPrinter(supportedLocales[index])}
}

// NewWithLocalizer constructs a renderer around an existing localizer,
// used by tests and embedders that manage printers themselves.
func NewWithLocalizer(loc Localizer) *Renderer {
	return &Renderer{loc: loc}
}

// Render returns localized title and body copy for one record. Excerpt
// arguments come from the memo transcript when present.
func (r *Renderer) Render(record domain.NotificationRecord) (string, string) {
	loc := r.localizer()
	switch record.Kind {
	case domain.KindReminder:
		return r.withExcerpt(loc, "reminder", record)
	case domain.KindFollowup:
		return r.withExcerpt(loc, "followup", record)
	case domain.KindInsight:
		return r.withExcerpt(loc, "insight", record)
	case domain.KindAssignment:
		return r.withExcerpt(loc, "assignment", record)
	case domain.KindGroupInvite:
		title := localizeWithFallback(loc, "notification.group_invite.title", defaultGenericTitle)
		body := localizeWithFallback(loc, "notification.group_invite.body", defaultGenericBody)
		return title, body
	default:
		return genericCopy(loc)
	}
}

func (r *Renderer) withExcerpt(loc Localizer, kind string, record domain.NotificationRecord) (string, string) {
	title := localizeWithFallback(loc, "notification."+kind+".title", defaultGenericTitle)

	bodyKey := "notification." + kind + ".body"
	excerpt := strings.TrimSpace(record.Body)
	if excerpt == "" {
		excerpt = strings.TrimSpace(record.Title)
	}
	if excerpt == "" {
		return title, localizeWithFallback(loc, bodyKey+"_generic", defaultGenericBody)
	}
	body := strings.TrimSpace(localize(loc, bodyKey, excerpt))
	if body == "" || body == bodyKey {
		body = excerpt
	}
	return title, body
}

func (r *Renderer) localizer() Localizer {
	if r == nil {
		return nil
	}
	return r.loc
}

func genericCopy(loc Localizer) (string, string) {
	title := localizeWithFallback(loc, "notification.generic.title", defaultGenericTitle)
	body := localizeWithFallback(loc, "notification.generic.body", defaultGenericBody)
	return title, body
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}
