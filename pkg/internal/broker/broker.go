package broker

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var Nc *nats.Conn

func NewBroker() error {
	var err error
	Nc, err = nats.Connect(
		viper.GetString("nats.addr"),
		nats.Name("videocall"),
		nats.MaxReconnects(-1),
	)
	return err
}

// Publish sends a domain event for sibling services (notification, analytics).
// Delivery is fire-and-forget; a dead broker never blocks call traffic.
func Publish(subject string, payload any) error {
	if Nc == nil {
		return fmt.Errorf("broker is not connected")
	}

	raw, err := jsoniter.Marshal(payload)
	if err != nil {
		return err
	}

	return Nc.Publish(subject, raw)
}

func PublishQuietly(subject string, payload any) {
	if err := Publish(subject, payload); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("An error occurred when publishing domain event...")
	}
}
