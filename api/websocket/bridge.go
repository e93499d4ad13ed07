package websocket

import (
	"github.com/ExoPexodus/crimson-cloud-command/internal/events"
	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
)

// EventBridge pipes backend events from the event bus into the hub so
// dashboards see node activity live.
type EventBridge struct {
	bus  *events.EventBus
	hub  *Hub
	done chan struct{}
}

func NewEventBridge(bus *events.EventBus, hub *Hub) *EventBridge {
	return &EventBridge{
		bus:  bus,
		hub:  hub,
		done: make(chan struct{}),
	}
}

func (b *EventBridge) Start() {
	ch := b.bus.SubscribeAll()
	go func() {
		logger.Info("WebSocket event bridge started")
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				b.hub.Broadcast(event)
			case <-b.done:
				return
			}
		}
	}()
}

func (b *EventBridge) Stop() {
	close(b.done)
}
