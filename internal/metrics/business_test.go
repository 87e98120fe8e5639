package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertBizMetricLine checks that the Prometheus output contains a business metric
// matching the given name, partial label pattern, and value. Uses regex to handle
// extra OTel scope labels injected by the Prometheus exporter.
func assertBizMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + strings.ReplaceAll(labels, `,`, `,[^}]*`) + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrapeMetrics(t *testing.T, provider *Provider) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)
	assert.NotNil(t, businessMetrics)
}

func TestBusinessMetrics_RecordOperation(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	bm.RecordOperation(context.Background(), "voting", "cast_vote", "success")
	bm.RecordOperation(context.Background(), "voting", "cast_vote", "error")
	bm.RecordOperation(context.Background(), "voting", "cast_vote", "success")

	output := scrapeMetrics(t, provider)
	assertBizMetricLine(t, output, "test_app_operations_total",
		`domain="voting",operation="cast_vote",status="success"`, "2")
	assertBizMetricLine(t, output, "test_app_operations_total",
		`domain="voting",operation="cast_vote",status="error"`, "1")
}

func TestBusinessMetrics_RecordDuration(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	bm.RecordDuration(context.Background(), "secretcode", "validate_code", 50*time.Millisecond, "success")

	output := scrapeMetrics(t, provider)
	assertBizMetricLine(t, output, "test_app_operation_duration_seconds_count",
		`domain="secretcode",operation="validate_code",status="success"`, "1")
}

func TestBusinessMetrics_RecordRiskScore(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	bm.RecordRiskScore(context.Background(), "vote_cast", 35)
	bm.RecordRiskScore(context.Background(), "vote_cast", 85)

	output := scrapeMetrics(t, provider)
	assertBizMetricLine(t, output, "test_app_risk_score_count", `action="vote_cast"`, "2")
}

func TestBusinessMetrics_RecordSecurityEvent(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	bm.RecordSecurityEvent(context.Background(), "MULTIPLE_FAILED_ATTEMPTS")

	output := scrapeMetrics(t, provider)
	assertBizMetricLine(t, output, "test_app_security_events_total",
		`event_type="MULTIPLE_FAILED_ATTEMPTS"`, "1")
}
