package server

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"datascope/internal/config"
	"datascope/internal/session"
)

const sampleCSV = "age,score,city\n30,1.5,oslo\n40,2.5,bergen\n50,3.5,oslo\n35,2.0,oslo\n45,3.0,bergen\n"

func testConfig() *config.Config {
	return &config.Config{
		Addr:               ":0",
		MaxUploadBytes:     1 << 20,
		SessionTTLMin:      30,
		AnalysisSampleCap:  50000,
		NormalitySampleCap: 5000,
		MaxLoadRows:        100000,
	}
}

// newTestClient spins up the full router and a cookie-carrying client, so a
// sequence of requests shares one session like a browser would.
func newTestClient(t *testing.T, cfg *config.Config) (*http.Client, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewStore(time.Minute)
	t.Cleanup(store.Close)

	srv := New(cfg, store, log.New(io.Discard, "", 0))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}, ts.URL
}

func upload(t *testing.T, client *http.Client, base, filename, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()

	resp, err := client.Post(base+"/api/upload", w.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	resp, err := client.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestUploadAndSummary(t *testing.T) {
	client, base := newTestClient(t, testConfig())

	resp := upload(t, client, base, "people.csv", sampleCSV)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d: %s", resp.StatusCode, b)
	}
	var up struct {
		Overview struct {
			Rows int `json:"rows"`
			Cols int `json:"cols"`
		} `json:"overview"`
		Columns []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"columns"`
	}
	decodeJSON(t, resp, &up)
	if up.Overview.Rows != 5 || up.Overview.Cols != 3 {
		t.Fatalf("overview = %+v", up.Overview)
	}
	if up.Columns[0].Name != "age" || up.Columns[0].Kind != "numeric" {
		t.Fatalf("columns = %+v", up.Columns)
	}

	resp, err := client.Get(base + "/api/summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}
	var sum struct {
		Columns []struct {
			Name    string          `json:"name"`
			Numeric json.RawMessage `json:"numeric"`
		} `json:"columns"`
	}
	decodeJSON(t, resp, &sum)
	if len(sum.Columns) != 3 || len(sum.Columns[0].Numeric) == 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestSummaryBeforeUpload(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	resp, err := client.Get(base + "/api/summary")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	resp := upload(t, client, base, "notes.docx", "hello")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}
}

func TestUploadMalformed(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	resp := upload(t, client, base, "broken.json", "{not json")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 16
	client, base := newTestClient(t, cfg)
	resp := upload(t, client, base, "big.csv", sampleCSV)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
}

func TestColumnEndpoints(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	upload(t, client, base, "people.csv", sampleCSV).Body.Close()

	resp, err := client.Get(base + "/api/summary/age")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("column summary status = %d", resp.StatusCode)
	}

	resp, err = client.Get(base + "/api/summary/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown column status = %d, want 404", resp.StatusCode)
	}

	resp, err = client.Get(base + "/api/values/city?top=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var vals struct {
		Counts []struct {
			Value string `json:"value"`
			Count int    `json:"count"`
		} `json:"counts"`
	}
	decodeJSON(t, resp, &vals)
	if len(vals.Counts) != 1 || vals.Counts[0].Value != "oslo" || vals.Counts[0].Count != 3 {
		t.Fatalf("counts = %+v", vals.Counts)
	}

	resp, err = client.Get(base + "/api/head?n=2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var head struct {
		Rows [][]string `json:"rows"`
	}
	decodeJSON(t, resp, &head)
	if len(head.Rows) != 2 || head.Rows[0][0] != "30" {
		t.Fatalf("head = %+v", head.Rows)
	}

	resp, err = client.Get(base + "/api/corr")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var corr struct {
		Columns []string     `json:"columns"`
		Matrix  [][]*float64 `json:"matrix"`
	}
	decodeJSON(t, resp, &corr)
	if len(corr.Columns) != 2 || len(corr.Matrix) != 2 {
		t.Fatalf("corr = %+v", corr)
	}
}

func TestTransformEndpoint(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	upload(t, client, base, "people.csv", sampleCSV).Body.Close()

	resp := postJSON(t, client, base+"/api/transform", map[string]any{
		"op": "scale", "column": "age", "kind": "zscore",
	})
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("transform status = %d: %s", resp.StatusCode, b)
	}
	var tr struct {
		Added []string `json:"added_columns"`
		Cols  int      `json:"cols"`
	}
	decodeJSON(t, resp, &tr)
	if len(tr.Added) != 1 || tr.Added[0] != "age_zscore" || tr.Cols != 4 {
		t.Fatalf("transform = %+v", tr)
	}

	// Scaling a categorical column is a user mistake, not a server fault.
	resp = postJSON(t, client, base+"/api/transform", map[string]any{
		"op": "scale", "column": "city", "kind": "log",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("incompatible transform status = %d, want 422", resp.StatusCode)
	}
}

func TestHypothesisEndpoint(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	upload(t, client, base, "people.csv", sampleCSV).Body.Close()

	resp := postJSON(t, client, base+"/api/test/correlation", map[string]any{
		"column_a": "age", "column_b": "score",
	})
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("correlation status = %d: %s", resp.StatusCode, b)
	}
	var res struct {
		R           float64 `json:"r"`
		Significant bool    `json:"significant"`
	}
	decodeJSON(t, resp, &res)
	if res.R < 0.99 {
		t.Fatalf("r = %v, want ~1", res.R)
	}

	// Too few rows for a normality test.
	resp = postJSON(t, client, base+"/api/test/normality", map[string]any{"column": "age"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("normality status = %d, want 422", resp.StatusCode)
	}

	resp = postJSON(t, client, base+"/api/test/anova", map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown test status = %d, want 404", resp.StatusCode)
	}
}

func TestChartEndpoint(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	upload(t, client, base, "people.csv", sampleCSV).Body.Close()

	resp, err := client.Get(base + "/api/chart/histogram?column=age")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("histogram status = %d: %s", resp.StatusCode, b)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	png, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("body is not a PNG")
	}

	resp, err = client.Get(base + "/api/chart/histogram?column=city")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("categorical histogram status = %d, want 400", resp.StatusCode)
	}

	resp, err = client.Get(base + "/api/chart/sunburst")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown chart status = %d, want 404", resp.StatusCode)
	}
}

func TestExportEndpoint(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	upload(t, client, base, "people.csv", sampleCSV).Body.Close()

	resp, err := client.Get(base + "/api/export?format=json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `"people.json"`) {
		t.Fatalf("disposition = %q", cd)
	}

	resp, err = client.Get(base + "/api/export?format=toml")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestReportEndpoint(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	upload(t, client, base, "people.csv", sampleCSV).Body.Close()

	resp, err := client.Get(base + "/api/report")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "# Exploratory Data Analysis Report") {
		t.Fatal("report body missing title")
	}
}

func TestPublishValidation(t *testing.T) {
	client, base := newTestClient(t, testConfig())
	upload(t, client, base, "people.csv", sampleCSV).Body.Close()

	resp := postJSON(t, client, base+"/api/publish", map[string]any{"kind": "postgres"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing fields status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, client, base+"/api/publish", map[string]any{
		"kind": "not-a-database", "dsn": "x", "table": "t",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("unknown kind status = %d, want 502", resp.StatusCode)
	}
}

func TestSessionIsolation(t *testing.T) {
	cfg := testConfig()
	clientA, base := newTestClient(t, cfg)
	upload(t, clientA, base, "people.csv", sampleCSV).Body.Close()

	// A second client against the same server has no dataset.
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	clientB := &http.Client{Jar: jar}
	resp, err := clientB.Get(base + "/api/summary")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("other session status = %d, want 400", resp.StatusCode)
	}
}

func TestExportName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source, ext, want string
	}{
		{"sales.xlsx", "csv", "sales.csv"},
		{"/tmp/up/data.csv", "json", "data.json"},
		{"noext", "csv", "noext.csv"},
		{"", "csv", "dataset.csv"},
		{".hidden", "csv", ".hidden.csv"},
	}
	for _, tt := range tests {
		if got := exportName(tt.source, tt.ext); got != tt.want {
			t.Errorf("exportName(%q, %q) = %q, want %q", tt.source, tt.ext, got, tt.want)
		}
	}
}

func TestConcurrentRequestsShareOneSession(t *testing.T) {
	client, base := newTestClient(t, testConfig())

	wideCSV := "keep,c1,c2,c3,c4\n1,1,1,1,1\n2,2,2,2,2\n3,3,3,3,3\n"
	resp := upload(t, client, base, "wide.csv", wideCSV)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	// Drops mutate the dataset in place while summaries read it; without
	// per-session serialization this pair is a data race.
	var wg sync.WaitGroup
	errc := make(chan error, 24)
	for i := 1; i <= 4; i++ {
		col := fmt.Sprintf("c%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			body := strings.NewReader(`{"op":"drop","columns":["` + col + `"]}`)
			resp, err := client.Post(base+"/api/transform", "application/json", body)
			if err != nil {
				errc <- err
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errc <- fmt.Errorf("drop %s: status = %d", col, resp.StatusCode)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				resp, err := client.Get(base + "/api/summary")
				if err != nil {
					errc <- err
					return
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errc <- fmt.Errorf("summary: status = %d", resp.StatusCode)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Errorf("concurrent request: %v", err)
	}

	var sum struct {
		Overview struct {
			Cols int `json:"cols"`
		} `json:"overview"`
	}
	final, err := client.Get(base + "/api/summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	decodeJSON(t, final, &sum)
	if sum.Overview.Cols != 1 {
		t.Fatalf("cols after drops = %d, want 1", sum.Overview.Cols)
	}
}

func TestSampleDatasetEndpoint(t *testing.T) {
	client, base := newTestClient(t, testConfig())

	resp, err := client.Post(base+"/api/sample", "application/json", nil)
	if err != nil {
		t.Fatalf("post sample: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d: %s", resp.StatusCode, b)
	}
	var up struct {
		Overview struct {
			Rows int `json:"rows"`
			Cols int `json:"cols"`
		} `json:"overview"`
	}
	decodeJSON(t, resp, &up)
	if up.Overview.Rows != 891 || up.Overview.Cols != 6 {
		t.Fatalf("overview = %+v", up.Overview)
	}

	// The seeded session should serve every analysis surface.
	qresp, err := client.Get(base + "/api/quality")
	if err != nil {
		t.Fatalf("quality: %v", err)
	}
	io.Copy(io.Discard, qresp.Body)
	qresp.Body.Close()
	if qresp.StatusCode != http.StatusOK {
		t.Fatalf("quality status = %d", qresp.StatusCode)
	}
}
