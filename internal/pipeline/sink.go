package pipeline

import "sync"

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a function.
type FuncSink func(Event)

func (f FuncSink) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

// Emit sends evt to sink when there is one.
func Emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

// Counter tallies terminal events per status.
type Counter struct {
	mu     sync.Mutex
	counts map[Status]int
	diags  int
}

func (c *Counter) OnEvent(evt Event) {
	if !evt.Status.Finished() || evt.File == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[Status]int, 3)
	}
	c.counts[evt.Status]++
	c.diags += evt.Diagnostics
}

// Count returns how many files finished with status.
func (c *Counter) Count(status Status) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[status]
}

// Diagnostics returns the total reported by terminal events.
func (c *Counter) Diagnostics() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diags
}

// Multi fans events out to several sinks; nil sinks are skipped.
func Multi(sinks ...ProgressSink) ProgressSink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multiSink []ProgressSink

func (m multiSink) OnEvent(evt Event) {
	for _, s := range m {
		s.OnEvent(evt)
	}
}
