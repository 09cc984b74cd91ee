package library

import "github.com/prometheus/client_golang/prometheus"

// Reasons a borrow request can be turned down, used as the "reason" label.
const (
	rejectBookNotFound   = "book_not_found"
	rejectMemberNotFound = "member_not_found"
	rejectIneligible     = "member_ineligible"
	rejectNoCopy         = "no_copy"
)

// Metrics holds the circulation counters exported by a LibraryService.
type Metrics struct {
	LoansCreated   prometheus.Counter
	LoansReturned  prometheus.Counter
	LateReturns    prometheus.Counter
	BorrowRejected *prometheus.CounterVec
	ActiveLoans    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoansCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "loans_created_total",
			Help:      "Loans opened by a successful borrow.",
		}),
		LoansReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "loans_returned_total",
			Help:      "Loans closed by a return.",
		}),
		LateReturns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "late_returns_total",
			Help:      "Returns that happened after the due date.",
		}),
		BorrowRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "borrow_rejected_total",
			Help:      "Borrow requests refused, by reason.",
		}, []string{"reason"}),
		ActiveLoans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "library",
			Name:      "active_loans",
			Help:      "Loans currently out.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.LoansCreated, m.LoansReturned, m.LateReturns, m.BorrowRejected, m.ActiveLoans)
	}
	return m
}
