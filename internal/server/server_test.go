package server

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/realestate-model/pkg/constants"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var testConfigPath = filepath.Join("..", "..", "test", "test_config.yaml")

type decodedReport struct {
	Report struct {
		Name       string  `json:"name"`
		Investment float64 `json:"investment"`
		Revenue    float64 `json:"revenue"`
		Base       struct {
			GrossProfit float64 `json:"grossProfit"`
		} `json:"base"`
		Scenarios []struct {
			Name string `json:"name"`
		} `json:"scenarios"`
		BreakEven []struct {
			Target    string  `json:"target"`
			Value     float64 `json:"value"`
			Converged bool    `json:"converged"`
		} `json:"breakEven"`
	} `json:"report"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config"`
	ConfigYAML string                 `json:"configYaml"`
}

func readTestConfig(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(testConfigPath)
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}
	return data
}

func TestHandleReportSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performUpload(t, handler, string(readTestConfig(t)), "test_config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp decodedReport
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Report.Name != "Reference subdivision" {
		t.Errorf("unexpected project name %q", resp.Report.Name)
	}
	if resp.Report.Investment != 533250 || resp.Report.Revenue != 850000 {
		t.Errorf("unexpected totals %.2f / %.2f", resp.Report.Investment, resp.Report.Revenue)
	}
	if resp.Report.Base.GrossProfit != 316750 {
		t.Errorf("unexpected gross profit %.2f", resp.Report.Base.GrossProfit)
	}
	if len(resp.Report.Scenarios) != 2 {
		t.Errorf("expected 2 scenarios, got %d", len(resp.Report.Scenarios))
	}
	// breakEven.enabled is set in the test configuration.
	if len(resp.Report.BreakEven) != 3 {
		t.Errorf("expected 3 break-even summaries, got %d", len(resp.Report.BreakEven))
	}
	if len(resp.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", resp.Warnings)
	}
	if !strings.HasPrefix(resp.CSV, "month,date,sales") {
		t.Errorf("expected cash flow CSV in response, got %q", resp.CSV)
	}
	if resp.Duration == "" {
		t.Error("expected duration in response")
	}
	if resp.Config == nil || resp.ConfigYAML == "" {
		t.Error("expected config data in response")
	}
	if _, err := uuid.Parse(rr.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("expected a request ID header, got %q", rr.Header().Get(RequestIDHeader))
	}
}

func TestHandleReportEditorSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	var configMap map[string]interface{}
	if err := yaml.Unmarshal(readTestConfig(t), &configMap); err != nil {
		t.Fatalf("failed to parse test config: %v", err)
	}
	configMap["breakEven"] = map[string]interface{}{"enabled": false}

	rr := performEditorJSON(t, handler, map[string]interface{}{
		"config":  configMap,
		"options": map[string]interface{}{"breakEven": "true"},
	}, "/api/editor/report")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp decodedReport
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Report.Investment != 533250 {
		t.Errorf("unexpected investment %.2f", resp.Report.Investment)
	}
	if len(resp.Report.BreakEven) != 3 {
		t.Fatalf("expected break-even summaries requested through options, got %d", len(resp.Report.BreakEven))
	}
	if resp.Report.BreakEven[0].Target == "" || !resp.Report.BreakEven[0].Converged {
		t.Errorf("unexpected first summary %+v", resp.Report.BreakEven[0])
	}
	if !strings.Contains(resp.ConfigYAML, "Reference subdivision") {
		t.Errorf("expected config YAML echo, got %q", resp.ConfigYAML)
	}
}

func TestHandleReportEditorInvalidPayload(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{name: "config not an object", payload: map[string]interface{}{"config": "nope"}},
		{name: "options not an object", payload: map[string]interface{}{"config": map[string]interface{}{}, "options": 1}},
		{name: "empty config", payload: map[string]interface{}{"config": map[string]interface{}{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performEditorJSON(t, handler, tt.payload, "/api/editor/report")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	payload := map[string]interface{}{
		"zeta":   map[string]interface{}{"custom": true},
		"output": map[string]interface{}{"format": "pretty"},
		"loan": map[string]interface{}{
			"principal": 200000.0,
		},
		"project": map[string]interface{}{
			"name":  "sample",
			"units": 4.0,
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/editor/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	yamlStr := resp["configYaml"]
	if yamlStr == "" {
		t.Fatal("expected configYaml in response")
	}

	var top []string
	for _, line := range strings.Split(strings.TrimRight(yamlStr, "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, " ") {
			continue
		}
		top = append(top, strings.TrimSuffix(strings.Fields(line)[0], ":"))
	}
	expected := []string{"project", "loan", "output", "zeta"}
	if strings.Join(top, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected top-level keys %v, got %v", expected, top)
	}
}

func TestHandleAmortize(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performEditorJSON(t, handler, map[string]interface{}{
		"principal":  200000,
		"annualRate": 5,
		"termYears":  15,
	}, "/api/amortize")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Schedule struct {
			MonthlyPayment float64       `json:"monthlyPayment"`
			Payments       []interface{} `json:"payments"`
		} `json:"schedule"`
		CSV string `json:"csv"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if math.Abs(resp.Schedule.MonthlyPayment-1581.59) > 0.01 {
		t.Errorf("expected monthly payment 1581.59, got %.4f", resp.Schedule.MonthlyPayment)
	}
	if len(resp.Schedule.Payments) != 180 {
		t.Errorf("expected 180 payments, got %d", len(resp.Schedule.Payments))
	}
	if strings.Count(resp.CSV, "\n") != 181 {
		t.Errorf("expected header plus 180 CSV lines, got %d", strings.Count(resp.CSV, "\n"))
	}

	rr = performEditorJSON(t, handler, map[string]interface{}{"principal": 1000, "termYears": 0}, "/api/amortize")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a zero term, got %d", rr.Code)
	}

	rr = performEditorJSON(t, handler, map[string]interface{}{"principal": 1000, "annualRate": 5, "termYears": 100000000}, "/api/amortize")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a term above the maximum, got %d", rr.Code)
	}
}

func TestHandleScenario(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	payload := map[string]interface{}{
		"totals": map[string]interface{}{
			"units":         10,
			"salePrice":     85000,
			"land":          100000,
			"urbanization":  84650,
			"construction":  258500,
			"adminPermits":  90100,
			"loanPrincipal": 200000,
		},
		"sensitivity": map[string]interface{}{
			"name":                 "Overrun and discount",
			"constructionDeltaPct": 10,
			"salePriceDeltaPct":    -5,
			"taxRatePct":           25,
		},
	}

	rr := performEditorJSON(t, handler, payload, "/api/scenario")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Scenario struct {
			GrossProfit float64 `json:"grossProfit"`
		} `json:"scenario"`
		Delta struct {
			GrossProfit float64 `json:"grossProfit"`
		} `json:"delta"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if math.Abs(resp.Scenario.GrossProfit-248400) > 0.001 {
		t.Errorf("expected gross profit 248400, got %.2f", resp.Scenario.GrossProfit)
	}
	if math.Abs(resp.Delta.GrossProfit-(-68350)) > 0.001 {
		t.Errorf("expected delta -68350, got %.2f", resp.Delta.GrossProfit)
	}

	payload["sensitivity"] = map[string]interface{}{"taxRatePct": 150}
	rr = performEditorJSON(t, handler, payload, "/api/scenario")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for an invalid tax rate, got %d", rr.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(nil, 0, "  ")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "dev" {
		t.Fatalf("expected default version dev, got %q", resp["version"])
	}
}

func TestRequestIDPropagated(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "test")
	id := uuid.New().String()

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(RequestIDHeader, id)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != id {
		t.Fatalf("expected request ID %s to be echoed, got %s", id, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got == "not-a-uuid" || got == "" {
		t.Fatalf("expected a generated request ID, got %q", got)
	}
}

func TestHandleReportMethodNotAllowed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleReportUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, "test")

	rr := performUpload(t, handler, strings.Repeat("a", 128), "config.yaml")
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", resp["error"])
	}
}

func TestHandleReportMissingFile(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/report", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleReportInvalidConfig(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{name: "invalid yaml", content: "project: [", contains: "error reading config data"},
		{name: "missing units", content: "project:\n  name: empty\ntimeline:\n  months: 12\n", contains: "failed to compute report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performUpload(t, handler, tt.content, "config.yaml")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp["error"], tt.contains) {
				t.Fatalf("expected error containing %q, got %q", tt.contains, resp["error"])
			}
		})
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/report", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performEditorJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
