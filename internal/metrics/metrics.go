// Package metrics — Prometheus-метрики сервиса.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder — то, что пишут сервисы и middleware.
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordAuthFailure(reason string)
	RecordProfileCreated()
	RecordProfileConflictAbsorbed()
	RecordImagesIngested(count int)
	RecordImagesCompensated(count int)
	RecordItemCreateFailure(kind string)
}

// Collector — реализация Recorder поверх prometheus.
type Collector struct {
	httpStatus        *prometheus.CounterVec
	authFail          *prometheus.CounterVec
	profileCreated    prometheus.Counter
	profileConflict   prometheus.Counter
	imagesIngested    prometheus.Counter
	imagesCompensated prometheus.Counter
	itemCreateFail    *prometheus.CounterVec
}

// NewCollector регистрирует метрики в переданном реестре.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_http_status_total",
			Help: "Ответы по HTTP-статусам",
		}, []string{"status_code"}),
		authFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_auth_failures_total",
			Help: "Отказы аутентификации по причинам",
		}, []string{"reason"}),
		profileCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_profiles_created_total",
			Help: "Профили, созданные этим сервером",
		}),
		profileConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_profile_conflicts_absorbed_total",
			Help: "Гонки создания профиля, разрешённые перечитыванием",
		}),
		imagesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_images_ingested_total",
			Help: "Сохранённые изображения",
		}),
		imagesCompensated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_images_compensated_total",
			Help: "Изображения, удалённые при откате создания объявления",
		}),
		itemCreateFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_item_create_failures_total",
			Help: "Неудачные создания объявлений по классу ошибки",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.authFail,
		c.profileCreated,
		c.profileConflict,
		c.imagesIngested,
		c.imagesCompensated,
		c.itemCreateFail,
	)
	return c
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordAuthFailure(reason string) {
	c.authFail.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordProfileCreated() {
	c.profileCreated.Inc()
}

func (c *Collector) RecordProfileConflictAbsorbed() {
	c.profileConflict.Inc()
}

func (c *Collector) RecordImagesIngested(count int) {
	c.imagesIngested.Add(float64(count))
}

func (c *Collector) RecordImagesCompensated(count int) {
	c.imagesCompensated.Add(float64(count))
}

func (c *Collector) RecordItemCreateFailure(kind string) {
	c.itemCreateFail.WithLabelValues(kind).Inc()
}

// Handler отдаёт HTTP-хендлер для скрейпа /metrics.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop: Recorder, который ничего не пишет. Удобен в тестах.
type Nop struct{}

func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordAuthFailure(string) {}
func (Nop) RecordProfileCreated() {}
func (Nop) RecordProfileConflictAbsorbed() {}
func (Nop) RecordImagesIngested(int) {}
func (Nop) RecordImagesCompensated(int) {}
func (Nop) RecordItemCreateFailure(string) {}
