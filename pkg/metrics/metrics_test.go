package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should own a registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
			})
		})

		Convey("When creating with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered on it", func() {
				So(manager.Registry(), ShouldEqual, registry)
				manager.RecordLLMCall(1, 1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "test_unit_")
			})
		})
	})
}

func TestLLMUsageMetrics(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		manager := NewManager()

		Convey("When two calls are recorded", func() {
			manager.RecordLLMCall(3, 2)
			manager.RecordLLMCall(10, 5)

			Convey("Then call and token counters accumulate", func() {
				So(testutil.ToFloat64(manager.llmCalls), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.llmInputTokens), ShouldEqual, 13)
				So(testutil.ToFloat64(manager.llmOutputTokens), ShouldEqual, 7)
			})
		})
	})
}

func TestProviderMetrics(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		manager := NewManager()

		Convey("When calendar and mail outcomes are recorded", func() {
			manager.RecordCalendarOp("insert", nil)
			manager.RecordCalendarOp("insert", errors.New("boom"))
			manager.RecordCalendarOp("list", nil)
			manager.RecordMailDelivery(nil)
			manager.RecordMailDelivery(errors.New("bounced"))
			manager.RecordMailDelivery(nil)

			Convey("Then they are split by status", func() {
				So(testutil.ToFloat64(manager.calendarOps.WithLabelValues("insert", StatusOK)), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.calendarOps.WithLabelValues("insert", StatusError)), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.calendarOps.WithLabelValues("list", StatusOK)), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.mailDeliveries.WithLabelValues(StatusOK)), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.mailDeliveries.WithLabelValues(StatusError)), ShouldEqual, 1)
			})
		})

		Convey("When the session gauge is set", func() {
			manager.SetActiveSessions(4)
			manager.SetActiveSessions(3)

			Convey("Then it reports the latest value", func() {
				So(testutil.ToFloat64(manager.activeSessions), ShouldEqual, 3)
			})
		})
	})
}

func TestMetricsHandler(t *testing.T) {
	Convey("Given a manager with an HTTP request recorded", t, func() {
		manager := NewManager()
		manager.RecordHTTPRequest("/usage", "GET", 200, 15*time.Millisecond)

		Convey("When the handler is scraped", func() {
			rec := httptest.NewRecorder()
			manager.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

			Convey("Then the exposition contains the request counter", func() {
				So(rec.Code, ShouldEqual, 200)
				body := rec.Body.String()
				So(strings.Contains(body, "jadehire_assistant_http_requests_total"), ShouldBeTrue)
				So(strings.Contains(body, `endpoint="/usage"`), ShouldBeTrue)
			})
		})
	})
}
