// eventBus
package component

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// BusEvent is what subscribers receive from the system bus.
type BusEvent struct {
	Topic     string
	Data      any
	Timestamp time.Time
}

// internal book-keeping
type busSubscriber struct {
	id     string
	regexp *regexp.Regexp
	filter func(any) bool
	fn     func(BusEvent)
}

// event bus - not much to it really!
type EventBus struct {
	sync.Mutex
	filter      func(any) bool
	subscribers []busSubscriber
}

func NewEventBus(filter func(any) bool) EventBus {
	return EventBus{filter: filter, subscribers: make([]busSubscriber, 0)}
}

// Subscribe a handler function to the bus. The pattern is a regexp
// matched against the topic; an empty pattern matches every topic. The
// id identifies the subscription for Unsubscribe.
func (bus *EventBus) Subscribe(id string, pattern string, filter func(any) bool, fn func(BusEvent)) error {
	bus.Lock()
	defer bus.Unlock()
	for _, subs := range bus.subscribers {
		if subs.id == id {
			return fmt.Errorf("subscriber %v already subscribed", id)
		}
	}
	var rx *regexp.Regexp
	if pattern != "" {
		var err error
		rx, err = regexp.Compile(pattern)
		if err != nil {
			return err
		}
	}
	bus.subscribers = append(bus.subscribers, busSubscriber{id, rx, filter, fn})
	return nil
}

// remove the subscription
func (bus *EventBus) Unsubscribe(id string) {
	bus.Lock()
	defer bus.Unlock()
	for idx, subs := range bus.subscribers {
		if subs.id == id {
			bus.subscribers = append(bus.subscribers[:idx], bus.subscribers[idx+1:]...)
			return
		}
	}
}

// publish to all subscribers
func (bus *EventBus) Publish(topic string, data any) error {
	if bus.filter != nil && !bus.filter(data) {
		return fmt.Errorf("wrong message type for bus")
	}
	be := BusEvent{topic, data, time.Now()}
	bus.Lock()
	subs := make([]busSubscriber, len(bus.subscribers))
	copy(subs, bus.subscribers)
	bus.Unlock()
	for _, s := range subs {
		if (s.regexp == nil || s.regexp.MatchString(topic)) &&
			(s.filter == nil || s.filter(data)) {
			s.fn(be)
		}
	}
	return nil
}
