package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeliveryMetrics counts equipment movements recorded by the API.
type DeliveryMetrics struct {
	deliveries *prometheus.CounterVec
	units      *prometheus.CounterVec
}

func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deliveries_recorded_total",
		Help: "Deliveries recorded, by operation.",
	}, []string{"operation"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_units_moved_total",
		Help: "Absolute equipment units moved, by delivery type.",
	}, []string{"type"})
	reg.MustRegister(deliveries, units)
	return &DeliveryMetrics{deliveries: deliveries, units: units}
}

// IncOperation counts a create or delete.
func (d *DeliveryMetrics) IncOperation(op string) {
	if d == nil || d.deliveries == nil {
		return
	}
	d.deliveries.WithLabelValues(normalizeLabel(op)).Inc()
}

// AddUnits adds the absolute quantity moved for a delivery type.
func (d *DeliveryMetrics) AddUnits(deliveryType string, count int) {
	if d == nil || d.units == nil {
		return
	}
	if count < 0 {
		count = -count
	}
	d.units.WithLabelValues(normalizeLabel(deliveryType)).Add(float64(count))
}
