package main

import (
	"encoding/json"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/config"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/ingest"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/logging"
)

// randomValue is uniform in [-100, 100] with two decimals.
func randomValue(r *rand.Rand) decimal.Decimal {
	return decimal.NewFromFloat(r.Float64()*200 - 100).Round(domain.ValueScale)
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogFormat(), "simulator")

	systemID := config.SimulatorSystemID()
	sensorIDs := config.SimulatorSensorIDs()
	if systemID <= 0 || len(sensorIDs) == 0 || config.SimulatorToken() == "" {
		log.Fatal().Msg("SIMULATOR_TOKEN, SIMULATOR_SYSTEM_ID and SIMULATOR_SENSOR_IDS are required")
	}

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID(config.MQTTClientID() + "-simulator")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	topic := ingest.Topic(systemID)
	for i := 0; i < config.SimulatorCount(); i++ {
		sensorID := sensorIDs[i%len(sensorIDs)]
		value := randomValue(r)
		id := domain.LooseID(sensorID)
		payload, err := json.Marshal(ingest.Payload{
			AccessToken: config.SimulatorToken(),
			SensorID:    &id,
			Value:       &value,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("encode payload")
		}
		if token := client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msg("publish failed")
		}
		log.Debug().Int64("sensor_id", sensorID).Str("value", value.StringFixed(domain.ValueScale)).Msg("published")
		time.Sleep(config.SimulatorInterval())
	}
	log.Info().Int("count", config.SimulatorCount()).Msg("simulation done")
}
