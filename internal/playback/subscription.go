package playback

const eventBufferSize = 16

// Subscription receives the events of one service. Each channel is
// buffered; events that find it full are dropped. Done is closed when the
// service closes.
type Subscription struct {
	StateChanged    <-chan StateChange
	SourceChanged   <-chan SourceChange
	PositionChanged <-chan PositionChange
	Completed       <-chan Completed
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	state     chan StateChange
	source    chan SourceChange
	position  chan PositionChange
	completed chan Completed
	errs      chan ErrorEvent
	done      chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		state:     make(chan StateChange, eventBufferSize),
		source:    make(chan SourceChange, eventBufferSize),
		position:  make(chan PositionChange, eventBufferSize),
		completed: make(chan Completed, eventBufferSize),
		errs:      make(chan ErrorEvent, eventBufferSize),
		done:      make(chan struct{}),
	}
	s.StateChanged = s.state
	s.SourceChanged = s.source
	s.PositionChanged = s.position
	s.Completed = s.completed
	s.Error = s.errs
	s.Done = s.done
	return s
}

// deliver routes e to its channel without blocking.
func (s *Subscription) deliver(e any) {
	switch e := e.(type) {
	case StateChange:
		offer(s.state, e)
	case SourceChange:
		offer(s.source, e)
	case PositionChange:
		offer(s.position, e)
	case Completed:
		offer(s.completed, e)
	case ErrorEvent:
		offer(s.errs, e)
	}
}

func (s *Subscription) close() {
	close(s.done)
}

func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
