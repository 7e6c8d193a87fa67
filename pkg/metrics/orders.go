package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks order intake and reservation outcomes.
type OrderMetrics struct {
	created       *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	reservations  *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	expiredOrders prometheus.Counter
}

// NewOrderMetrics registers order intake metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitrine",
		Name:      "orders_created_total",
		Help:      "Orders successfully created.",
	}, []string{"store"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitrine",
		Name:      "orders_rejected_total",
		Help:      "Order creation attempts rejected.",
	}, []string{"store", "reason"})
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitrine",
		Name:      "stock_reservations_total",
		Help:      "Stock reservation attempts by outcome.",
	}, []string{"outcome"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitrine",
		Name:      "reservation_settlements_total",
		Help:      "Reservation settlements by movement type.",
	}, []string{"movement"})
	expiredOrders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vitrine",
		Name:      "orders_expired_total",
		Help:      "Orders cancelled by the reservation expiry sweep.",
	})
	reg.MustRegister(created, rejected, reservations, settlements, expiredOrders)
	return &OrderMetrics{
		created:       created,
		rejected:      rejected,
		reservations:  reservations,
		settlements:   settlements,
		expiredOrders: expiredOrders,
	}
}

func (o *OrderMetrics) IncCreated(store string) {
	if o == nil || o.created == nil {
		return
	}
	o.created.WithLabelValues(normalizeLabel(store)).Inc()
}

func (o *OrderMetrics) IncRejected(store, reason string) {
	if o == nil || o.rejected == nil {
		return
	}
	o.rejected.WithLabelValues(normalizeLabel(store), normalizeLabel(reason)).Inc()
}

func (o *OrderMetrics) IncReservation(outcome string) {
	if o == nil || o.reservations == nil {
		return
	}
	o.reservations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (o *OrderMetrics) IncSettlement(movement string) {
	if o == nil || o.settlements == nil {
		return
	}
	o.settlements.WithLabelValues(normalizeLabel(movement)).Inc()
}

func (o *OrderMetrics) IncExpiredOrders(n int) {
	if o == nil || o.expiredOrders == nil {
		return
	}
	o.expiredOrders.Add(float64(n))
}
