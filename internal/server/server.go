package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iwvelando/realestate-model/internal/config"
	"github.com/iwvelando/realestate-model/internal/optimizer"
	"github.com/iwvelando/realestate-model/internal/report"
	"github.com/iwvelando/realestate-model/pkg/constants"
	"github.com/iwvelando/realestate-model/pkg/loans"
	"github.com/iwvelando/realestate-model/pkg/output"
	"github.com/iwvelando/realestate-model/pkg/scenario"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the identifier assigned to each API request.
const RequestIDHeader = "X-Request-ID"

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
}

type reportOptions struct {
	BreakEven bool
}

// NewHandler constructs the HTTP handler that serves the report API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}

	r := mux.NewRouter()
	r.Use(h.requestID)

	api := r.PathPrefix("/api").Subrouter()
	// Full report from an uploaded YAML configuration
	api.HandleFunc("/report", h.handleReport).Methods(http.MethodPost)
	// Full report from an editor-driven JSON configuration
	api.HandleFunc("/editor/report", h.handleReportEditor).Methods(http.MethodPost)
	// Config serialization for editor downloads
	api.HandleFunc("/editor/export", h.handleConfigExport).Methods(http.MethodPost)
	api.HandleFunc("/amortize", h.handleAmortize).Methods(http.MethodPost)
	api.HandleFunc("/scenario", h.handleScenario).Methods(http.MethodPost)
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	return r
}

func (h *handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		h.logger.Debug("request received",
			zap.String("op", "server.requestID"),
			zap.String("requestID", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r)
	})
}

type reportResponse struct {
	Report     report.Report          `json:"report"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

type amortizeResponse struct {
	Schedule loans.Schedule `json:"schedule"`
	CSV      string         `json:"csv"`
}

type scenarioRequest struct {
	Totals      scenario.ProjectTotals `json:"totals"`
	Sensitivity scenario.Sensitivity   `json:"sensitivity"`
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	opts := reportOptions{BreakEven: coerceBool(r.FormValue("breakEven"))}
	h.runReport(w, configBytes, configMap, start, op, opts)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleReportEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReportEditor"
	start := time.Now()

	var payload map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadSize)).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondError(w, http.StatusBadRequest, "invalid config payload: expected object", op)
			return
		}
		configPayload = cfgMap
	}

	opts := reportOptions{}
	if rawOptions, ok := payload["options"]; ok {
		optsMap, ok := rawOptions.(map[string]interface{})
		if !ok {
			h.respondError(w, http.StatusBadRequest, "invalid options payload: expected object", op)
			return
		}
		opts.BreakEven = coerceBool(optsMap["breakEven"])
	}

	configBytes, err := yaml.Marshal(configPayload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse configuration: %v", err), op)
		return
	}

	h.runReport(w, configBytes, configMap, start, op, opts)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"

	var payload map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadSize)).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleAmortize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAmortize"

	var loan loans.LoanConfig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadSize)).Decode(&loan); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode loan: %v", err), op)
		return
	}

	schedule, err := loans.NewAmortizationScheduleGenerator(h.logger).GenerateSchedule(loan)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	var csv bytes.Buffer
	if err := output.AmortizationCsv(&csv, schedule); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render schedule: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, amortizeResponse{Schedule: schedule, CSV: csv.String()})
}

func (h *handler) handleScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScenario"

	var req scenarioRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadSize)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode scenario: %v", err), op)
		return
	}
	if err := req.Totals.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := req.Sensitivity.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, scenario.Evaluate(req.Totals, req.Sensitivity))
}

// configKeyOrder is the section order of exported configurations.
var configKeyOrder = []string{"project", "costs", "loan", "timeline", "taxRate", "scenarios", "breakEven", "logging", "output"}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range configKeyOrder {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; !already {
			remainingKeys = append(remainingKeys, key)
		}
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, item := range o.items {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item.key}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}
	return mapNode, nil
}

func (h *handler) runReport(w http.ResponseWriter, configBytes []byte, configMap map[string]interface{}, start time.Time, op string, opts reportOptions) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	rep, err := report.GetReport(h.logger, *cfg)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to compute report: %v", err), op)
		return
	}

	if opts.BreakEven || cfg.BreakEven.Enabled {
		runner, err := optimizer.NewRunner(h.logger, cfg.ToParameters(), cfg.BreakEven)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to initialize break-even search: %v", err), op)
			return
		}
		result, err := runner.Run()
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("break-even search failed: %v", err), op)
			return
		}
		result.Apply(&rep)
	}

	var csv bytes.Buffer
	if err := output.CsvFormat(&csv, rep); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render cash flow: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	if configMap == nil {
		configMap = make(map[string]interface{})
	}

	response := reportResponse{
		Report:     rep,
		CSV:        csv.String(),
		Warnings:   rep.Warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("report computed",
		zap.String("op", op),
		zap.String("project", rep.Name),
		zap.Int("scenarios", len(rep.Scenarios)),
		zap.Int("breakEven", len(rep.BreakEven)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
		zap.String("requestID", w.Header().Get(RequestIDHeader)),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case float64:
		return v != 0
	case int:
		return v != 0
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		return err == nil && parsed != 0
	}
	return false
}
