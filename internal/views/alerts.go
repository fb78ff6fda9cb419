package views

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// AlertsCookie carries flash messages across one redirect
const AlertsCookie = "alerts"

// alertsMaxAge keeps flash messages alive just long enough for the redirect
const alertsMaxAge = 5

// Level is a Bootstrap contextual class
type Level string

const (
	Primary   Level = "primary"
	Secondary Level = "secondary"
	Success   Level = "success"
	Danger    Level = "danger"
	Warning   Level = "warning"
	Info      Level = "info"
	Light     Level = "light"
	Dark      Level = "dark"
)

// Alerts groups flash messages by level
type Alerts struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	Success   []string `json:"success"`
	Danger    []string `json:"danger"`
	Warning   []string `json:"warning"`
	Info      []string `json:"info"`
	Light     []string `json:"light"`
	Dark      []string `json:"dark"`
}

// Alert is one rendered message
type Alert struct {
	Level   Level
	Message string
}

func (a *Alerts) slot(l Level) *[]string {
	switch l {
	case Primary:
		return &a.Primary
	case Secondary:
		return &a.Secondary
	case Success:
		return &a.Success
	case Danger:
		return &a.Danger
	case Warning:
		return &a.Warning
	case Light:
		return &a.Light
	case Dark:
		return &a.Dark
	}
	return &a.Info
}

// Add appends a message at the given level; unknown levels become info
func (a *Alerts) Add(l Level, msg string) {
	s := a.slot(l)
	*s = append(*s, msg)
}

// All returns every message in a stable level order
func (a Alerts) All() []Alert {
	var out []Alert
	for _, l := range []Level{Danger, Warning, Success, Info, Primary, Secondary, Light, Dark} {
		for _, m := range *a.slot(l) {
			out = append(out, Alert{Level: l, Message: m})
		}
	}
	return out
}

// Encode serializes alerts for the cookie value
func (a Alerts) Encode() string {
	b, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeAlerts parses a cookie value; anything unreadable yields empty alerts
func DecodeAlerts(v string) Alerts {
	var a Alerts
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return Alerts{}
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return Alerts{}
	}
	return a
}

// readAlerts returns the pending alerts and expires the cookie
func readAlerts(w http.ResponseWriter, r *http.Request) Alerts {
	c, err := r.Cookie(AlertsCookie)
	if err != nil {
		return Alerts{}
	}
	http.SetCookie(w, &http.Cookie{Name: AlertsCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	return DecodeAlerts(c.Value)
}

// setAlerts stores alerts for the next page view
func setAlerts(w http.ResponseWriter, a Alerts) {
	http.SetCookie(w, &http.Cookie{
		Name:     AlertsCookie,
		Value:    a.Encode(),
		Path:     "/",
		MaxAge:   alertsMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// redirect sends the browser to `to`, carrying one flash message
func redirect(w http.ResponseWriter, r *http.Request, to string, l Level, msg string) {
	if msg != "" {
		var a Alerts
		a.Add(l, msg)
		setAlerts(w, a)
		if l == Danger {
			log.Ctx(r.Context()).Info().Str("path", r.URL.Path).Str("alert", msg).Msg("view action failed")
		}
	}
	http.Redirect(w, r, to, http.StatusFound)
}
