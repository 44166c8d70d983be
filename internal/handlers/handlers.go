package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/27180781/trivia-master-offline/internal/config"
	"github.com/27180781/trivia-master-offline/internal/game"
	"github.com/27180781/trivia-master-offline/internal/ingest"
	"github.com/27180781/trivia-master-offline/internal/store"
)

// Notifier lets the HTTP layer tell the socket layer that a session's
// deck changed out from under the connected screens.
type Notifier interface {
	NotifySeeded(code string)
}

// Handler wires the HTTP API: question upload, game packaging, settings,
// and license administration.
type Handler struct {
	RM       *game.Manager
	Store    *store.Store
	Notifier Notifier
	Config   config.Config

	mu      sync.Mutex
	claimed map[string]bool // session codes whose host token was handed out
}

func New(rm *game.Manager, st *store.Store, n Notifier, cfg config.Config) *Handler {
	return &Handler{RM: rm, Store: st, Notifier: n, Config: cfg, claimed: make(map[string]bool)}
}

// Register mounts all API routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/session", h.getSession)
	api.GET("/session/active", h.activeSession)
	api.POST("/session/reset", h.resetSession)
	api.POST("/questions/upload", h.uploadQuestions)

	api.GET("/settings", h.getSettings)
	api.PUT("/settings", h.putSettings)

	api.GET("/package/export", h.exportPackage)
	api.POST("/package/import", h.importPackage)

	api.POST("/license/validate", h.validateLicense)
	api.POST("/license/activate", h.activateLicense)

	admin := api.Group("/admin")
	admin.POST("/login", h.adminLogin)
	guarded := admin.Group("", h.requireAdminPIN)
	guarded.PUT("/pin", h.changePIN)
	guarded.GET("/licenses", h.listLicenses)
	guarded.POST("/licenses", h.addLicense)
	guarded.DELETE("/licenses/:code", h.deactivateLicense)
}

// requireAdminPIN guards the admin routes: every request carries the
// PIN in a header, checked against the stored one. Failures eat the
// same fixed delay as the login endpoint.
func (h *Handler) requireAdminPIN(c *gin.Context) {
	pin, err := h.Store.AdminPIN()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "PIN check failed"})
		return
	}
	if c.GetHeader("X-Admin-PIN") != pin {
		time.Sleep(500 * time.Millisecond)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "wrong PIN"})
		return
	}
	c.Next()
}

// getSession returns the active session's state. The host token goes out
// exactly once, to whoever asks first; after that the caller must already
// hold it.
func (h *Handler) getSession(c *gin.Context) {
	code, sess := h.RM.Active()
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	resp := gin.H{"sessionCode": code, "state": sess.State()}
	h.mu.Lock()
	if !h.claimed[code] {
		h.claimed[code] = true
		resp["hostToken"] = sess.HostToken
	}
	h.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

// resetSession returns the session to the first question's standby.
func (h *Handler) resetSession(c *gin.Context) {
	var req struct {
		HostToken string `json:"hostToken"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	code, sess := h.RM.Active()
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	if _, err := h.RM.Authorize(code, req.HostToken); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid host token"})
		return
	}
	sess.Reset()
	if h.Notifier != nil {
		h.Notifier.NotifySeeded(code)
	}
	log.Info().Str("code", code).Msg("session reset")
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": sess.State()})
}

func (h *Handler) activeSession(c *gin.Context) {
	if code, sess := h.RM.Active(); sess != nil {
		c.JSON(http.StatusOK, gin.H{"sessionCode": code, "locked": sess.Locked})
		return
	}
	c.Status(http.StatusNotFound)
}

// uploadQuestions ingests a spreadsheet into the active session. The
// response carries per-row errors alongside the accepted questions, so
// the host sees exactly which rows were dropped and why.
func (h *Handler) uploadQuestions(c *gin.Context) {
	_, sess := h.RM.Active()
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	if sess.Locked {
		c.JSON(http.StatusForbidden, gin.H{"error": "session is locked to a packaged game"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	defer file.Close()
	if header.Size > h.Config.UploadMaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	rows, err := ingest.ReadWorkbook(file)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("failed to read workbook")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read spreadsheet"})
		return
	}

	result := ingest.Ingest(rows)
	if result.Success {
		sess.Seed(result.Questions)
		if h.Notifier != nil {
			h.Notifier.NotifySeeded(sess.Code)
		}
		log.Info().Str("code", sess.Code).Int("questions", len(result.Questions)).
			Int("rejectedRows", len(result.Errors)).Msg("questions uploaded")
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getSettings(c *gin.Context) {
	settings, err := h.Store.GameSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) putSettings(c *gin.Context) {
	var settings game.Settings
	if err := c.BindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings"})
		return
	}
	if settings.DefaultTimeLimit <= 0 {
		settings.DefaultTimeLimit = game.DefaultSettings().DefaultTimeLimit
	}
	if err := h.Store.SaveGameSettings(settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// exportPackage bundles the active session into a downloadable .bravo
// file.
func (h *Handler) exportPackage(c *gin.Context) {
	_, sess := h.RM.Active()
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	questions := sess.Questions()
	if len(questions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no questions to package"})
		return
	}

	name := c.DefaultQuery("name", "game")
	pkg := game.NewPackage(name, questions, sess.Settings(), c.Query("logo"))

	c.Header("Content-Disposition", `attachment; filename="`+pkg.Filename()+`"`)
	c.Header("Content-Type", "application/json")
	if err := pkg.Write(c.Writer); err != nil {
		log.Error().Err(err).Msg("failed to write game package")
	}
}

// importPackage loads a .bravo bundle into the active session. A
// malformed bundle is rejected without touching the current questions.
func (h *Handler) importPackage(c *gin.Context) {
	_, sess := h.RM.Active()
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	if sess.Locked {
		c.JSON(http.StatusForbidden, gin.H{"error": "session is locked to a packaged game"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	defer file.Close()
	if header.Size > h.Config.UploadMaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	pkg, err := game.ParsePackage(file)
	if err != nil {
		log.Warn().Err(err).Str("filename", header.Filename).Msg("rejected game package")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game package"})
		return
	}

	stored, err := h.Store.GameSettings()
	if err != nil {
		stored = game.DefaultSettings()
	}
	cfg := pkg.SessionConfig(stored)
	sess.SetSettings(cfg.Settings)
	sess.Seed(cfg.Questions)
	if h.Notifier != nil {
		h.Notifier.NotifySeeded(sess.Code)
	}
	log.Info().Str("code", sess.Code).Str("package", pkg.Meta.Name).
		Int("questions", len(pkg.Questions)).Msg("package imported")
	c.JSON(http.StatusOK, gin.H{"ok": true, "name": pkg.Meta.Name, "questionCount": len(pkg.Questions)})
}

func (h *Handler) validateLicense(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// Same fixed delay as the PIN check.
	time.Sleep(500 * time.Millisecond)

	check, err := h.Store.ValidateLicense(req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "license check failed"})
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *Handler) activateLicense(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ok, err := h.Store.ActivateLicense(req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "license activation failed"})
		return
	}
	if !ok {
		check, _ := h.Store.ValidateLicense(req.Code)
		c.JSON(http.StatusOK, gin.H{"activated": false, "message": check.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activated": true})
}

// adminLogin checks the PIN behind a fixed delay, so response timing
// gives nothing away about how close a guess was.
func (h *Handler) adminLogin(c *gin.Context) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	time.Sleep(500 * time.Millisecond)

	pin, err := h.Store.AdminPIN()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if req.PIN != pin {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong PIN"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// changePIN swaps the admin PIN. The guard already verified the current
// one from the header.
func (h *Handler) changePIN(c *gin.Context) {
	var req struct {
		NewPIN string `json:"newPin"`
	}
	if err := c.BindJSON(&req); err != nil || len(req.NewPIN) < 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid PIN request"})
		return
	}
	if err := h.Store.SetAdminPIN(req.NewPIN); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "PIN change failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listLicenses(c *gin.Context) {
	licenses, err := h.Store.Licenses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list licenses"})
		return
	}
	if licenses == nil {
		licenses = []store.License{}
	}
	c.JSON(http.StatusOK, licenses)
}

func (h *Handler) addLicense(c *gin.Context) {
	var req struct {
		Code           string `json:"code"`
		MaxActivations int    `json:"maxActivations"`
	}
	if err := c.BindJSON(&req); err != nil || req.Code == "" || req.MaxActivations <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid license request"})
		return
	}
	lic, err := h.Store.AddLicense(req.Code, req.MaxActivations)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add license"})
		return
	}
	c.JSON(http.StatusOK, lic)
}

func (h *Handler) deactivateLicense(c *gin.Context) {
	err := h.Store.DeactivateLicense(c.Param("code"))
	if errors.Is(err, store.ErrLicenseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "license not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate license"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
