package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/bootstrap"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/config"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/ingest"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/logging"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogFormat(), "ingestor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, false)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer rt.Close()

	handler := ingest.NewHandler(rt.Services.Users, rt.Services.Measurements)
	topic := config.MQTTTopic()

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID(config.MQTTClientID()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	// resubscribe after every (re)connect
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if token := c.Subscribe(topic, 1, handler.OnMessage); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("subscribe failed")
			return
		}
		log.Info().Str("topic", topic).Msg("subscribed")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(30*time.Second) && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	log.Info().Str("broker", config.MQTTBroker()).Msg("ingestor running")
	<-ctx.Done()
	log.Info().Msg("ingestor stopping")
}
