package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	Instantiations  Counter
	ScoresUpdated   Counter
	UpdatesRejected Counter
	QueriesServed   Counter
	QueriesNotFound Counter
	StorageFailures Counter
	TxRejected      Counter
	EventsDropped   Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		Instantiations:  n,
		ScoresUpdated:   n,
		UpdatesRejected: n,
		QueriesServed:   n,
		QueriesNotFound: n,
		StorageFailures: n,
		TxRejected:      n,
		EventsDropped:   n,
	}
}
