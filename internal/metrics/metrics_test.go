package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(201)
	c.RecordHTTPStatus(201)
	c.RecordAuthFailure("expired")
	c.RecordProfileConflictAbsorbed()
	c.RecordImagesIngested(3)
	c.RecordImagesCompensated(2)
	c.RecordItemCreateFailure("invalid_image")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authFail.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.profileConflict))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.imagesIngested))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.imagesCompensated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.itemCreateFail.WithLabelValues("invalid_image")))
}

func TestHandler_Exposes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordProfileCreated()

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "marketplace_profiles_created_total 1"))
}
