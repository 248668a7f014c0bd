package notify

import (
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const topic = "omega:notification"

// Notifier sends a short report to whoever follows the batch jobs.
type Notifier interface {
	Notify(subject, body string) error
}

type Message struct {
	RunID   uuid.UUID
	Subject string
	Body    string
	SentAt  time.Time
}

type Sink func(Message)

// Bus fans notifications out to its subscribed sinks. Every message carries
// the bus run id so one batch run can be traced across sinks.
type Bus struct {
	bus   EventBus.Bus
	runID uuid.UUID
}

func NewBus() *Bus {
	return &Bus{
		bus:   EventBus.New(),
		runID: uuid.New(),
	}
}

func (b *Bus) RunID() uuid.UUID {
	return b.runID
}

func (b *Bus) Subscribe(sink Sink) error {
	if err := b.bus.SubscribeAsync(topic, func(m Message) { sink(m) }, false); err != nil {
		return fmt.Errorf("Bus.Subscribe: %w", err)
	}

	log.Debugf("subscribed to topic %s", topic)
	return nil
}

func (b *Bus) Notify(subject, body string) error {
	if !b.bus.HasCallback(topic) {
		log.Warnf("no sink subscribed, dropping notification %q", subject)
		return nil
	}

	b.bus.Publish(topic, Message{
		RunID:   b.runID,
		Subject: subject,
		Body:    body,
		SentAt:  time.Now().UTC(),
	})

	return nil
}

// Wait blocks until every sink has handled the published messages.
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}

// LogSink writes notifications to the log.
func LogSink(m Message) {
	log.WithFields(log.Fields{
		"run_id":  m.RunID.String(),
		"subject": m.Subject,
	}).Info(m.Body)
}
