package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/dough/pkg/domain/entities"
)

const namespace = "dough"

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder exposes inventory and planning signals as Prometheus instruments.
type Recorder struct {
	traysReady       prometheus.Gauge
	inboundTrays     prometheus.Gauge
	shortfallTrays   *prometheus.GaugeVec
	traysToStart     prometheus.Gauge
	stageUnits       *prometheus.GaugeVec
	operations       *prometheus.CounterVec
	unitsReleased    prometheus.Counter
	unitsGranted     prometheus.Counter
	unitsConsumed    prometheus.Counter
	unitsUnfulfilled prometheus.Counter
	restockOrders    prometheus.Counter
	transitions      *prometheus.CounterVec
}

// New registers the instruments with registerer, or the default registerer when nil.
func New(registerer prometheus.Registerer) *Recorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		traysReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trays_ready",
			Help:      "Whole trays in the Ready pool at the last plan.",
		}),
		inboundTrays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inbound_trays",
			Help:      "Proving trays counted as inbound at the last plan.",
		}),
		shortfallTrays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shortfall_trays",
			Help:      "Trays missing per service period at the last plan.",
		}, []string{"period"}),
		traysToStart: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trays_to_start",
			Help:      "Trays that should be released from frozen now.",
		}),
		stageUnits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_units",
			Help:      "Dough balls held per stage.",
		}, []string{"stage"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Inventory operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		unitsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_released_total",
			Help:      "Dough balls moved from Frozen into Defrosting.",
		}),
		unitsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_granted_total",
			Help:      "Dough balls released beyond available frozen stock.",
		}),
		unitsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_consumed_total",
			Help:      "Dough balls consumed from the Ready pool.",
		}),
		unitsUnfulfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_unfulfilled_total",
			Help:      "Requested dough balls the Ready pool could not supply.",
		}),
		restockOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restock_orders_total",
			Help:      "Frozen restock batches recorded after a shortfall.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Stage changes applied by ticks and advances.",
		}, []string{"from", "to"}),
	}

	registerer.MustRegister(
		r.traysReady,
		r.inboundTrays,
		r.shortfallTrays,
		r.traysToStart,
		r.stageUnits,
		r.operations,
		r.unitsReleased,
		r.unitsGranted,
		r.unitsConsumed,
		r.unitsUnfulfilled,
		r.restockOrders,
		r.transitions,
	)
	return r
}

func (r *Recorder) ObservePlan(plan entities.Plan) {
	r.traysReady.Set(float64(plan.TraysReady))
	r.inboundTrays.Set(float64(plan.InboundReadyBy50h))
	r.shortfallTrays.WithLabelValues("lunch").Set(float64(plan.LunchShortfall))
	r.shortfallTrays.WithLabelValues("dinner").Set(float64(plan.DinnerShortfall))
	r.traysToStart.Set(float64(plan.TotalTraysToStart))
}

// ObserveStock sets the per-stage unit gauges from a snapshot, zeroing empty stages
func (r *Recorder) ObserveStock(snapshot []entities.Batch) {
	for _, stage := range entities.Stages {
		r.stageUnits.WithLabelValues(stage.String()).Set(float64(entities.TotalQuantity(snapshot, stage)))
	}
}

func (r *Recorder) ObserveOperation(operation string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
}

func (r *Recorder) ObserveRelease(released, granted entities.Quantity, restocked bool) {
	r.unitsReleased.Add(float64(released))
	r.unitsGranted.Add(float64(granted))
	if restocked {
		r.restockOrders.Inc()
	}
}

func (r *Recorder) ObserveConsume(consumed, unfulfilled entities.Quantity) {
	r.unitsConsumed.Add(float64(consumed))
	r.unitsUnfulfilled.Add(float64(unfulfilled))
}

func (r *Recorder) ObserveTransition(from, to entities.Stage) {
	r.transitions.WithLabelValues(from.String(), to.String()).Inc()
}
