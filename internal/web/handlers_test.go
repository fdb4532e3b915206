package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Vigneshjr11/Senior-Citizen-filter/internal/config"
	"github.com/Vigneshjr11/Senior-Citizen-filter/internal/core"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  time.Minute,
		},
		Upload:  config.UploadConfig{MaxFileSize: 1 << 20},
		Session: config.SessionConfig{TTL: time.Hour, SweepInterval: 10 * time.Minute},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

// client drives the API through the router, carrying the session cookie
// across requests like a browser would.
type client struct {
	t       *testing.T
	server  *Server
	cookies []*http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	return &client{
		t:      t,
		server: NewServer(core.NewService(0), testConfig()),
	}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()

	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.server.Router().ServeHTTP(rec, req)

	if set := rec.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return rec
}

func (c *client) upload(fileName string, content []byte) snapshotResponse {
	c.t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			c.t.Fatalf("create form file: %v", err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := c.do(req)
	if rec.Code != http.StatusOK {
		c.t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	return c.decode(rec)
}

func (c *client) filter(minAge string) snapshotResponse {
	c.t.Helper()

	form := url.Values{"minAge": {minAge}}
	req := httptest.NewRequest(http.MethodPost, "/api/filter", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := c.do(req)
	if rec.Code != http.StatusOK {
		c.t.Fatalf("filter status = %d, body = %s", rec.Code, rec.Body.String())
	}
	return c.decode(rec)
}

func (c *client) decode(rec *httptest.ResponseRecorder) snapshotResponse {
	c.t.Helper()

	var snap snapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		c.t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return snap
}

const peopleCSV = "Name,DOB\nMani,15/06/1950\nRavi,15/06/2020\n"

func TestUploadFilterExportRoundtrip(t *testing.T) {
	c := newClient(t)

	snap := c.upload("people.csv", []byte(peopleCSV))
	if snap.State != core.StateLoaded {
		t.Fatalf("state after upload = %q, want %q", snap.State, core.StateLoaded)
	}
	if snap.TotalRecords != 2 {
		t.Fatalf("TotalRecords = %d, want 2", snap.TotalRecords)
	}

	snap = c.filter("60")
	if snap.State != core.StateFiltered {
		t.Fatalf("state after filter = %q, want %q", snap.State, core.StateFiltered)
	}
	if len(snap.Records) != 1 || snap.Records[0]["Name"] != "Mani" {
		t.Fatalf("filtered records = %v, want only Mani", snap.Records)
	}
	if !snap.Exportable {
		t.Error("Exportable = false, want true after a filter with results")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rec := c.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, core.ExportFileName) {
		t.Errorf("Content-Disposition = %q, want it to name %q", cd, core.ExportFileName)
	}
	if rec.Body.Len() == 0 {
		t.Error("export body is empty")
	}
}

func TestUpload_MissingFile(t *testing.T) {
	c := newClient(t)

	snap := c.upload("", nil)

	if snap.State != core.StateError {
		t.Errorf("state = %q, want %q", snap.State, core.StateError)
	}
	if snap.Message != core.MsgNoFile {
		t.Errorf("message = %q, want %q", snap.Message, core.MsgNoFile)
	}
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	c := newClient(t)

	snap := c.upload("people.txt", []byte("junk"))

	if snap.Message != core.MsgUnsupportedFormat {
		t.Errorf("message = %q, want %q", snap.Message, core.MsgUnsupportedFormat)
	}
}

func TestFilter_BeforeUpload(t *testing.T) {
	c := newClient(t)

	snap := c.filter("60")

	if snap.State != core.StateError || snap.Message != core.MsgNoFile {
		t.Errorf("snapshot = %q/%q, want upload-required error", snap.State, snap.Message)
	}
}

func TestFilter_EmptyThreshold(t *testing.T) {
	c := newClient(t)
	c.upload("people.csv", []byte(peopleCSV))

	snap := c.filter("")

	if snap.Message != core.MsgMissingThreshold {
		t.Errorf("message = %q, want %q", snap.Message, core.MsgMissingThreshold)
	}
}

func TestFilter_NoResults(t *testing.T) {
	c := newClient(t)
	c.upload("people.csv", []byte(peopleCSV))

	snap := c.filter("150")

	if snap.State != core.StateNoResults {
		t.Errorf("state = %q, want %q", snap.State, core.StateNoResults)
	}
	if snap.Message != core.MsgNoResults {
		t.Errorf("message = %q, want %q", snap.Message, core.MsgNoResults)
	}
	if snap.Exportable {
		t.Error("Exportable = true, want false with no results")
	}
}

func TestExport_WithoutResults(t *testing.T) {
	c := newClient(t)
	c.upload("people.csv", []byte(peopleCSV))

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rec := c.do(req)

	if rec.Code != http.StatusConflict {
		t.Errorf("export status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestReset_ClearsSession(t *testing.T) {
	c := newClient(t)
	c.upload("people.csv", []byte(peopleCSV))
	c.filter("60")

	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	rec := c.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}

	snap := c.decode(rec)
	if snap.State != core.StateNoFile {
		t.Errorf("state = %q, want %q", snap.State, core.StateNoFile)
	}
	if snap.TotalRecords != 0 || snap.Message != "" {
		t.Errorf("reset left state behind: %+v", snap)
	}
}

func TestRecords_SnapshotDoesNotChangeState(t *testing.T) {
	c := newClient(t)
	c.upload("people.csv", []byte(peopleCSV))

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	rec := c.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("records status = %d", rec.Code)
	}

	snap := c.decode(rec)
	if snap.State != core.StateLoaded {
		t.Errorf("state = %q, want %q", snap.State, core.StateLoaded)
	}
	if len(snap.Records) != 2 {
		t.Errorf("records = %d, want 2", len(snap.Records))
	}
}

func TestIndex_ServesPage(t *testing.T) {
	c := newClient(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := c.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("index status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Senior Citizen Filter") {
		t.Error("page body missing title")
	}
}
