package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func counterValue(c *Collector, name string, labels map[string]string) float64 {
	families, err := c.Registry().Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if matches(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	for _, lp := range m.GetLabel() {
		if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestCollector(t *testing.T) {
	Convey("Given a fresh collector", t, func() {
		c := NewCollector()

		Convey("When run events are recorded", func() {
			c.RegattaScraped()
			c.RegattaScraped()
			c.SailorAdded()
			c.ResultAdded()
			c.RowsHarvested("classic-table", 12)
			c.RowsHarvested("classic-table", 0)
			c.PageDetail("timeout_waiting_for_rows")
			c.UnitFailed()
			c.RunFinished("completed")

			Convey("Then the counters reflect them", func() {
				So(counterValue(c, "regatta_resume_regattas_scraped_total", nil), ShouldEqual, 2)
				So(counterValue(c, "regatta_resume_sailors_added_total", nil), ShouldEqual, 1)
				So(counterValue(c, "regatta_resume_rows_harvested_total",
					map[string]string{"table_kind": "classic-table"}), ShouldEqual, 12)
				So(counterValue(c, "regatta_resume_runs_total",
					map[string]string{"status": "completed"}), ShouldEqual, 1)
			})

			Convey("Then the handler serves them", func() {
				rec := httptest.NewRecorder()
				c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
				body, _ := io.ReadAll(rec.Body)
				So(strings.Contains(string(body), "regatta_resume_unit_failures_total 1"), ShouldBeTrue)
			})
		})

		Convey("A nil collector ignores events", func() {
			var nilC *Collector
			So(func() { nilC.RegattaScraped(); nilC.RunFinished("failed") }, ShouldNotPanic)
		})
	})
}
