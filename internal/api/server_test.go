package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/service"
)

// stubAnalyzer records its inputs and returns a canned result per drug.
type stubAnalyzer struct {
	vcfText   string
	drugs     []string
	patientID string
}

func (a *stubAnalyzer) Analyze(ctx context.Context, vcfText string, drugs []string, patientID string) []domain.AnalysisResult {
	a.vcfText = vcfText
	a.drugs = drugs
	a.patientID = patientID

	results := make([]domain.AnalysisResult, len(drugs))
	for i, drug := range drugs {
		results[i] = domain.AnalysisResult{
			PatientID: patientID,
			Drug:      drug,
			RiskAssessment: domain.RiskAssessment{
				RiskLabel: domain.RiskSafe,
				Severity:  domain.SeverityNone,
			},
		}
	}
	return results
}

func newTestServer(analyzer Analyzer) *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewServer(&domain.ServerConfig{MaxUploadMB: 16}, logger, analyzer)
}

func multipartBody(t *testing.T, filename, content, drugs, patientID string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("vcf", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if drugs != "" {
		require.NoError(t, writer.WriteField("drugs", drugs))
	}
	if patientID != "" {
		require.NoError(t, writer.WriteField("patient_id", patientID))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "pharmaguard-server", response["service"])
}

func TestHandleAnalyze_Success(t *testing.T) {
	analyzer := &stubAnalyzer{}
	server := newTestServer(analyzer)

	vcf := "##fileformat=VCFv4.2\nchr22\t100\trs3892097\tG\tA\t60\tPASS\tGENE=CYP2D6\tGT\t0/1"
	body, contentType := multipartBody(t, "sample.vcf", vcf, "codeine, warfarin", "PAT_100")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, vcf, analyzer.vcfText)
	assert.Equal(t, []string{"CODEINE", "WARFARIN"}, analyzer.drugs)
	assert.Equal(t, "PAT_100", analyzer.patientID)

	var results []domain.AnalysisResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "CODEINE", results[0].Drug)
}

func TestHandleAnalyze_MissingFile(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	body, contentType := multipartBody(t, "", "", "codeine", "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var response domain.APIError
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, domain.ErrValidation, response.Code)
}

func TestHandleAnalyze_WrongExtension(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	body, contentType := multipartBody(t, "sample.txt", "##fileformat=VCFv4.2", "codeine", "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var response domain.APIError
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, domain.ErrInvalidInput, response.Code)
}

func TestHandleAnalyze_UppercaseExtensionAccepted(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	body, contentType := multipartBody(t, "SAMPLE.VCF", "##fileformat=VCFv4.2", "codeine", "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestHandleAnalyze_MissingDrugs(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	body, contentType := multipartBody(t, "sample.vcf", "##fileformat=VCFv4.2", "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleAnalyze_BlankDrugEntriesDropped(t *testing.T) {
	analyzer := &stubAnalyzer{}
	server := newTestServer(analyzer)

	body, contentType := multipartBody(t, "sample.vcf", "##fileformat=VCFv4.2", " , codeine ,, ", "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"CODEINE"}, analyzer.drugs)
}

func TestHandleSupportedDrugs(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drugs", nil)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Drugs []string `json:"drugs"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, service.SupportedDrugs(), response.Drugs)
}

func TestHandleSupportedGenes(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/genes", nil)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Genes []string `json:"genes"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Contains(t, response.Genes, "CYP2D6")
}

func TestRequestIDPropagation(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, "req-42", recorder.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(&stubAnalyzer{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestSplitDrugs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"codeine", []string{"CODEINE"}},
		{"codeine,warfarin", []string{"CODEINE", "WARFARIN"}},
		{" codeine , warfarin ", []string{"CODEINE", "WARFARIN"}},
		{",,,", nil},
		{"", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, splitDrugs(tt.input), "input %q", tt.input)
	}
}
