package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// environment variable names
const (
	envAddr         = "PARTY_ADDR"
	envLogFile      = "PARTY_LOG_FILE"
	envLogLevel     = "PARTY_LOG_LEVEL"
	envTuningFile   = "PARTY_TUNING_FILE"
	envTrackFile    = "PARTY_TRACK_FILE"
	envStaticDir    = "PARTY_STATIC_DIR"
	envTickRate     = "PARTY_TICK_RATE"
	envMQTTBroker   = "PARTY_MQTT_BROKER"
	envMQTTTopic    = "PARTY_MQTT_TOPIC"
	envMQTTClientID = "PARTY_MQTT_CLIENT_ID"
)

// Settings are the process-level options of the host.
type Settings struct {
	Addr       string
	LogFile    string
	LogLevel   string
	TuningFile string
	// TrackFile is a JSON list of scene nodes; empty means a generated ring.
	TrackFile string
	StaticDir string
	TickRate  int

	// MQTTBroker enables race event publishing when set, e.g. tcp://localhost:1883.
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// DefaultSettings are used for anything the environment leaves unset.
func DefaultSettings() Settings {
	return Settings{
		Addr:         ":8080",
		LogFile:      "app.log",
		LogLevel:     "info",
		TuningFile:   "config/racing.json",
		TickRate:     60,
		MQTTTopic:    "partyrace/events",
		MQTTClientID: "partyrace-host",
	}
}

// LoadSettings reads the given .env files (default ".env"; a missing file is
// fine) and then the environment.
func LoadSettings(envFiles ...string) (Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("config: load env file: %w", err)
	}

	s := DefaultSettings()
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str(envAddr, &s.Addr)
	str(envLogFile, &s.LogFile)
	str(envLogLevel, &s.LogLevel)
	str(envTuningFile, &s.TuningFile)
	str(envTrackFile, &s.TrackFile)
	str(envStaticDir, &s.StaticDir)
	str(envMQTTBroker, &s.MQTTBroker)
	str(envMQTTTopic, &s.MQTTTopic)
	str(envMQTTClientID, &s.MQTTClientID)

	if v := os.Getenv(envTickRate); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Settings{}, fmt.Errorf("config: %s must be a positive integer, got %q", envTickRate, v)
		}
		s.TickRate = n
	}
	return s, nil
}
