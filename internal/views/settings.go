package views

import (
	"net/http"
	"strings"

	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/store"
	"github.com/rs/zerolog/log"
)

type settingsData struct {
	baseData
	Settings *store.Settings
}

// settingsPage handles GET /settings
func (h *Handler) settingsPage(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.CurrentSettings(r.Context())
	if err != nil {
		redirect(w, r, "/", Danger, "Failed to load settings")
		return
	}
	h.render(w, r, "settings.html", settingsData{baseData: h.base(w, r, "Settings"), Settings: st})
}

// updateSettings handles POST /settings
func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/settings", Danger, "Invalid form")
		return
	}

	cookie := strings.TrimSpace(r.PostForm.Get("cookie_string"))
	if err := civitai.ValidateCookie(cookie); err != nil {
		redirect(w, r, "/settings", Danger, "Invalid cookie string, it must contain "+civitai.TokenCookie)
		return
	}
	if _, err := h.Store.UpdateCookie(ctx, cookie); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to save settings")
		redirect(w, r, "/settings", Danger, "Failed to save settings")
		return
	}
	redirect(w, r, "/settings", Success, "Settings saved")
}
