package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/pulse-generator/internal/logic"
)

const (
	clientID       = "pulse-generator"
	bufferCapacity = 256
	publishTimeout = 5 * time.Second
	retryInterval  = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker.
// Publish and PublishSystem only enqueue; a worker goroutine does the network
// I/O so the control loop never waits on the broker.
type RealPublisher struct {
	client paho.Client
	log    *log.Entry

	mu  sync.Mutex
	buf *ringBuffer

	wake  chan struct{}
	done  chan struct{}
	wg    sync.WaitGroup
	retry time.Duration

	connectedOnce bool
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background and retried until Close.
func NewRealPublisher(broker string) *RealPublisher {
	p := newPublisher(log.WithFields(log.Fields{"component": "mqtt", "broker": broker}))

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.WithError(err).Warn("connection lost")
		})

	client := paho.NewClient(opts)
	p.start(client)
	client.Connect()
	return p
}

func newPublisher(logger *log.Entry) *RealPublisher {
	return &RealPublisher{
		log:   logger,
		buf:   newRingBuffer(bufferCapacity),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		retry: retryInterval,
	}
}

// start runs the publish worker against client.
func (p *RealPublisher) start(client paho.Client) {
	p.client = client
	p.wg.Add(1)
	go p.run()
}

func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	reconnect := p.connectedOnce
	p.connectedOnce = true
	p.mu.Unlock()

	if reconnect {
		p.log.Info("reconnected")
		p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		return
	}
	p.log.Info("connected")
	p.signal()
}

// Publish queues a mode change event.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	p.enqueue(bufferedMsg{topic: Topic, payload: payload})
	return nil
}

// PublishSystem queues a system lifecycle event.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	p.enqueue(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

func (p *RealPublisher) enqueue(msg bufferedMsg) {
	p.mu.Lock()
	p.buf.push(msg)
	p.mu.Unlock()
	p.signal()
}

func (p *RealPublisher) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *RealPublisher) run() {
	defer p.wg.Done()

	// Armed while a send has failed on an open connection.
	var retry <-chan time.Time
	for {
		select {
		case <-p.wake:
		case <-retry:
		case <-p.done:
			p.flush()
			return
		}

		retry = nil
		if !p.flush() {
			retry = time.After(p.retry)
		}
	}
}

// flush sends everything buffered and reports whether it succeeded. Messages
// stay buffered while the broker is unreachable and are retried on the next
// connect.
func (p *RealPublisher) flush() bool {
	if !p.client.IsConnectionOpen() {
		return true
	}

	p.mu.Lock()
	msgs := p.buf.drainAll()
	p.mu.Unlock()

	for i, m := range msgs {
		if err := p.send(m); err != nil {
			p.log.WithError(err).WithField("pending", len(msgs)-i).Warn("publish failed, requeueing")
			p.mu.Lock()
			p.buf.requeue(msgs[i:])
			p.mu.Unlock()
			return false
		}
	}
	return true
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Pending returns the number of queued messages.
func (p *RealPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close flushes what it can and disconnects from the broker.
func (p *RealPublisher) Close() error {
	close(p.done)
	p.wg.Wait()
	if n := p.Pending(); n > 0 {
		p.log.WithField("pending", n).Warn("closing with unsent messages")
	}
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
