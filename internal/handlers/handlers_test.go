package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/27180781/trivia-master-offline/internal/config"
	"github.com/27180781/trivia-master-offline/internal/game"
	"github.com/27180781/trivia-master-offline/internal/store"
)

type seedRecorder struct {
	codes []string
}

func (r *seedRecorder) NotifySeeded(code string) { r.codes = append(r.codes, code) }

func newTestAPI(t *testing.T, cfg game.SessionConfig) (*gin.Engine, *game.Manager, *store.Store, *seedRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rm := game.NewManager()
	rm.Create(cfg)

	rec := &seedRecorder{}
	h := New(rm, st, rec, config.Config{UploadMaxBytes: 10 << 20})
	r := gin.New()
	h.Register(r)
	return r, rm, st, rec
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// adminJSON sends a request to a PIN-guarded admin route.
func adminJSON(t *testing.T, r *gin.Engine, method, path, pin string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if pin != "" {
		req.Header.Set("X-Admin-PIN", pin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func uploadFile(t *testing.T, r *gin.Engine, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sheetBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestSessionTokenClaimedOnce(t *testing.T) {
	r, rm, _, _ := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	get := func() map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("get session: %d", w.Code)
		}
		var resp map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp
	}

	first := get()
	_, sess := rm.Active()
	if first["hostToken"] != sess.HostToken {
		t.Fatalf("expected host token on first fetch, got %v", first["hostToken"])
	}
	if second := get(); second["hostToken"] != nil {
		t.Error("host token must only be handed out once")
	}
}

func TestResetSessionRequiresHostToken(t *testing.T) {
	r, rm, _, rec := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})
	_, sess := rm.Active()

	w := postJSON(t, r, "/api/session/reset", map[string]any{"hostToken": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}

	w = postJSON(t, r, "/api/session/reset", map[string]any{"hostToken": sess.HostToken})
	if w.Code != http.StatusOK {
		t.Fatalf("reset: %d", w.Code)
	}
	if sess.Phase() != game.PhaseStandby {
		t.Errorf("expected standby after reset, got %s", sess.Phase())
	}
	if len(rec.codes) != 1 {
		t.Errorf("expected reset to notify screens, got %d notifications", len(rec.codes))
	}
}

func TestActiveSession(t *testing.T) {
	r, _, _, _ := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	req := httptest.NewRequest(http.MethodGet, "/api/session/active", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		SessionCode string `json:"sessionCode"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionCode == "" {
		t.Error("expected a session code")
	}
}

func TestUploadQuestionsSeedsSession(t *testing.T) {
	r, rm, _, rec := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	content := sheetBytes(t, [][]any{
		{"Question", "Answer 1", "Answer 2", "Correct Answer"},
		{"Capital of France?", "Paris", "Lyon", "1"},
		{"Largest planet?", "Mars", "Jupiter", "2"},
	})
	w := uploadFile(t, r, "/api/questions/upload", "quiz.xlsx", content)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success   bool `json:"success"`
		Questions []struct {
			Question string `json:"question"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || len(resp.Questions) != 2 {
		t.Fatalf("expected 2 accepted questions, got %+v", resp)
	}

	_, sess := rm.Active()
	if got := len(sess.Questions()); got != 2 {
		t.Errorf("expected session seeded with 2 questions, got %d", got)
	}
	if len(rec.codes) != 1 {
		t.Errorf("expected one seed notification, got %d", len(rec.codes))
	}
}

func TestUploadReportsRowErrors(t *testing.T) {
	r, _, _, _ := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	content := sheetBytes(t, [][]any{
		{"Question", "Answer 1", "Answer 2", "Correct Answer"},
		{"Good question?", "Yes", "No", "1"},
		{"Bad row?", "Only one", "", "1"},
	})
	w := uploadFile(t, r, "/api/questions/upload", "quiz.xlsx", content)

	var resp struct {
		Success bool `json:"success"`
		Errors  []struct {
			Row     int    `json:"row"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success with one surviving question")
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Row != 3 {
		t.Errorf("expected one error at row 3, got %+v", resp.Errors)
	}
}

func TestUploadRejectedForLockedSession(t *testing.T) {
	one := 0
	r, _, _, _ := newTestAPI(t, game.SessionConfig{
		Locked: true,
		Questions: []game.Question{
			{ID: 1, Question: "Packaged?", Answers: []string{"a", "b"}, CorrectAnswerIndex: &one, TimeLimit: 30},
		},
		Settings: game.DefaultSettings(),
	})

	w := uploadFile(t, r, "/api/questions/upload", "quiz.xlsx", []byte("irrelevant"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for locked session, got %d", w.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	r, _, _, _ := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	in := game.Settings{DefaultTimeLimit: 45, ShowPoints: false, CustomBackground: "bg.png"}
	w := httptest.NewRecorder()
	buf, _ := json.Marshal(in)
	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("put settings: %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out game.Settings
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DefaultTimeLimit != 45 || out.ShowPoints || out.CustomBackground != "bg.png" {
		t.Errorf("unexpected settings: %+v", out)
	}
}

func TestPackageExportImportRoundTrip(t *testing.T) {
	zero := 0
	r, rm, _, _ := newTestAPI(t, game.SessionConfig{
		Questions: []game.Question{
			{ID: 1, Question: "Round trip?", Answers: []string{"yes", "no"}, CorrectAnswerIndex: &zero, TimeLimit: 20},
		},
		Settings: game.DefaultSettings(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/package/export?name=My%20Quiz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "My_Quiz"+game.PackageExt) {
		t.Errorf("unexpected content disposition %q", cd)
	}

	w2 := uploadFile(t, r, "/api/package/import", "quiz"+game.PackageExt, w.Body.Bytes())
	if w2.Code != http.StatusOK {
		t.Fatalf("import: %d: %s", w2.Code, w2.Body.String())
	}

	_, sess := rm.Active()
	if got := len(sess.Questions()); got != 1 {
		t.Errorf("expected 1 question after import, got %d", got)
	}
}

func TestImportRejectsMalformedPackage(t *testing.T) {
	one := 0
	r, rm, _, _ := newTestAPI(t, game.SessionConfig{
		Questions: []game.Question{
			{ID: 1, Question: "Kept?", Answers: []string{"yes", "no"}, CorrectAnswerIndex: &one, TimeLimit: 30},
		},
		Settings: game.DefaultSettings(),
	})

	w := uploadFile(t, r, "/api/package/import", "bad"+game.PackageExt, []byte(`{"meta":{}}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	// Existing questions survive a rejected import.
	_, sess := rm.Active()
	if got := len(sess.Questions()); got != 1 {
		t.Errorf("expected question list untouched, got %d", got)
	}
}

func TestLicenseEndpoints(t *testing.T) {
	r, _, st, _ := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	w := adminJSON(t, r, http.MethodPost, "/api/admin/licenses", store.DefaultAdminPIN, map[string]any{"code": "DEMO", "maxActivations": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("add license: %d", w.Code)
	}

	w = postJSON(t, r, "/api/license/validate", map[string]any{"code": "demo"})
	var check store.Validation
	if err := json.Unmarshal(w.Body.Bytes(), &check); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !check.Valid {
		t.Fatalf("expected valid license, got %q", check.Message)
	}

	w = postJSON(t, r, "/api/license/activate", map[string]any{"code": "demo"})
	var act struct {
		Activated bool `json:"activated"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &act); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !act.Activated {
		t.Error("expected activation to succeed")
	}

	// Budget of one is now spent.
	w = postJSON(t, r, "/api/license/activate", map[string]any{"code": "demo"})
	if err := json.Unmarshal(w.Body.Bytes(), &act); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if act.Activated {
		t.Error("expected second activation to be rejected")
	}

	lic, err := st.GetLicense("DEMO")
	if err != nil {
		t.Fatalf("get license: %v", err)
	}
	if lic.UsedActivations != 1 {
		t.Errorf("expected 1 used activation, got %d", lic.UsedActivations)
	}
}

func TestAdminLogin(t *testing.T) {
	r, _, _, _ := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	w := postJSON(t, r, "/api/admin/login", map[string]any{"pin": store.DefaultAdminPIN})
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for default PIN, got %d", w.Code)
	}

	w = postJSON(t, r, "/api/admin/login", map[string]any{"pin": "0000"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong PIN, got %d", w.Code)
	}
}

func TestChangePIN(t *testing.T) {
	r, _, _, _ := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	w := adminJSON(t, r, http.MethodPut, "/api/admin/pin", store.DefaultAdminPIN, map[string]any{"newPin": "5678"})
	if w.Code != http.StatusOK {
		t.Fatalf("change pin: %d", w.Code)
	}

	// Old PIN is gone.
	w = postJSON(t, r, "/api/admin/login", map[string]any{"pin": store.DefaultAdminPIN})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected old PIN rejected, got %d", w.Code)
	}
	w = postJSON(t, r, "/api/admin/login", map[string]any{"pin": "5678"})
	if w.Code != http.StatusOK {
		t.Errorf("expected new PIN accepted, got %d", w.Code)
	}

	// The guard follows the PIN change.
	w = adminJSON(t, r, http.MethodGet, "/api/admin/licenses", store.DefaultAdminPIN, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected old PIN rejected by guard, got %d", w.Code)
	}
	w = adminJSON(t, r, http.MethodGet, "/api/admin/licenses", "5678", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected new PIN accepted by guard, got %d", w.Code)
	}
}

func TestAdminRoutesRequirePIN(t *testing.T) {
	r, _, _, _ := newTestAPI(t, game.SessionConfig{Settings: game.DefaultSettings()})

	// No PIN header at all.
	w := postJSON(t, r, "/api/admin/licenses", map[string]any{"code": "SNEAK", "maxActivations": 1})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without PIN, got %d", w.Code)
	}

	// Wrong PIN.
	w = adminJSON(t, r, http.MethodGet, "/api/admin/licenses", "0000", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong PIN, got %d", w.Code)
	}
	w = adminJSON(t, r, http.MethodDelete, "/api/admin/licenses/SNEAK", "0000", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for delete with wrong PIN, got %d", w.Code)
	}
}
