package errclass

import "golang.org/x/text/language"

type Action string

const (
	ActionHome    Action = "home"
	ActionBack    Action = "back"
	ActionRetry   Action = "retry"
	ActionContact Action = "contact"
	ActionSearch  Action = "search"
)

// ActionLink is a rendered page action.
type ActionLink struct {
	Action Action `json:"action"`
	Label  string `json:"label"`
	Href   string `json:"href,omitempty"`
}

// Page is the presentation of one error kind.
type Page struct {
	Kind    Kind         `json:"kind"`
	Tag     string       `json:"tag"`
	Status  int          `json:"status"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Icon    string       `json:"icon"`
	Actions []ActionLink `json:"actions"`

	lang   language.Tag
	origin Kind
}

var pageIcons = map[Kind]string{
	KindOffline:     "wifi-off",
	KindNetwork:     "cloud-off",
	KindValidation:  "alert-triangle",
	KindCredentials: "lock",
	KindPermission:  "shield-off",
	KindNotFound:    "search",
	KindServer:      "server-crash",
	KindMaintenance: "wrench",
	KindUnknown:     "help-circle",
}

var pageActions = map[Kind][]Action{
	KindOffline:     {ActionRetry},
	KindNetwork:     {ActionRetry, ActionHome},
	KindValidation:  {ActionBack, ActionHome},
	KindCredentials: {ActionHome, ActionBack},
	KindPermission:  {ActionBack, ActionHome, ActionContact},
	KindNotFound:    {ActionHome, ActionBack, ActionSearch},
	KindServer:      {ActionRetry, ActionHome, ActionContact},
	KindMaintenance: {ActionRetry, ActionContact},
	KindUnknown:     {ActionRetry, ActionHome},
}

var actionHrefs = map[Action]string{
	ActionHome:    "/",
	ActionContact: "/#contact",
	ActionSearch:  "/#services",
}

// PageFor returns the error page for kind in lang.
func PageFor(kind Kind, lang language.Tag) Page {
	if _, ok := pageIcons[kind]; !ok {
		kind = KindUnknown
	}
	p := printer(lang)
	page := Page{
		Kind:    kind,
		Tag:     kind.Tag(),
		Status:  kind.Status(),
		Title:   lookup(p, titleKey(kind)),
		Message: lookup(p, messageKey(kind)),
		Icon:    pageIcons[kind],
		lang:    lang,
	}
	for _, a := range pageActions[kind] {
		page.Actions = append(page.Actions, ActionLink{Action: a, Label: lookup(p, actionKey(a)), Href: actionHrefs[a]})
	}
	return page
}

// Resolve switches to the offline presentation when the client has no
// connectivity, and back to the original kind once it is online again.
func (p Page) Resolve(online bool) Page {
	origin := p.origin
	if origin == "" {
		origin = p.Kind
	}
	kind := origin
	if !online {
		kind = KindOffline
	}
	out := PageFor(kind, p.lang)
	out.origin = origin
	return out
}

// HasAction reports whether the page offers a.
func (p Page) HasAction(a Action) bool {
	for _, l := range p.Actions {
		if l.Action == a {
			return true
		}
	}
	return false
}
