package history

import "github.com/prometheus/client_golang/prometheus"

// PromObserver counts history transitions in Prometheus.
type PromObserver struct {
	transitions *prometheus.CounterVec
	evicted     prometheus.Counter
	discarded   prometheus.Counter
}

// NewPromObserver creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewPromObserver(reg prometheus.Registerer) *PromObserver {
	o := &PromObserver{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadmap_history_transitions_total",
			Help: "History transitions by operation",
		}, []string{"op"}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadmap_history_evictions_total",
			Help: "Snapshots evicted because the timeline was full",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadmap_history_discarded_total",
			Help: "Redo snapshots discarded by a new edit",
		}),
	}
	if reg != nil {
		reg.MustRegister(o.transitions, o.evicted, o.discarded)
	}
	return o
}

func (o *PromObserver) Added()          { o.transitions.WithLabelValues("add").Inc() }
func (o *PromObserver) Evicted()        { o.evicted.Inc() }
func (o *PromObserver) Discarded(n int) { o.discarded.Add(float64(n)) }
func (o *PromObserver) Undone()         { o.transitions.WithLabelValues("undo").Inc() }
func (o *PromObserver) Redone()         { o.transitions.WithLabelValues("redo").Inc() }
func (o *PromObserver) Cleared()        { o.transitions.WithLabelValues("clear").Inc() }
