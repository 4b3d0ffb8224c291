package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Agrid-Dev/copcalc/internal/heatpump"
	"github.com/Agrid-Dev/copcalc/internal/logger"
)

// EnvPrefix namespaces every environment override, e.g. COPCALC_CONTROLLERS_HTTP_ADDR.
const EnvPrefix = "COPCALC_"

type Config struct {
	DeviceID    string `koanf:"device_id"`
	LogLevel    string `koanf:"log_level"`
	Controllers struct {
		HTTP   HTTPConfig   `koanf:"http"`
		MQTT   MQTTConfig   `koanf:"mqtt"`
		MODBUS ModbusConfig `koanf:"modbus"`
	} `koanf:"controllers"`

	HeatPump HeatPumpConfig `koanf:"heat_pump"`
}

// HeatPumpConfig is the initial operating point of the served unit.
type HeatPumpConfig struct {
	OutdoorTemperature float64 `koanf:"outdoor_temperature"`
	WaterTemperature   float64 `koanf:"water_temperature"`
	HeatLoad           float64 `koanf:"heat_load"`
	Humidity           float64 `koanf:"humidity"`
	IncludeDefrost     bool    `koanf:"include_defrost"`
	IncludeParasitics  bool    `koanf:"include_parasitics"`
	IncludeHexPenalty  bool    `koanf:"include_hex_penalty"`
	IncludePartLoad    bool    `koanf:"include_part_load"`
	SystemEfficiency   float64 `koanf:"system_efficiency"`
	DeltaTSource       float64 `koanf:"delta_t_source"`
	DeltaTSink         float64 `koanf:"delta_t_sink"`
	MaxCapacity        float64 `koanf:"max_capacity"`
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BrokerURL       string        `koanf:"broker_url"`
	ClientID        string        `koanf:"client_id"`
	BaseTopic       string        `koanf:"base_topic"`
	QoS             byte          `koanf:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	UnitID  byte   `koanf:"unit_id"`
}

// DefaultConfig is the bottom layer every file and env override is merged onto.
func DefaultConfig() Config {
	var cfg Config
	cfg.DeviceID = "default"
	cfg.LogLevel = logger.InfoLevel
	cfg.Controllers.HTTP = HTTPConfig{Enabled: true, Addr: ":8080"}
	cfg.Controllers.MQTT = MQTTConfig{PublishInterval: time.Second}
	cfg.Controllers.MODBUS = ModbusConfig{Addr: "127.0.0.1:1502", UnitID: 1}
	cfg.HeatPump = FromInput(heatpump.DefaultInput())
	return cfg
}

// LoadConfig layers defaults, the optional file at path, then COPCALC_* env vars.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return Config{}, err
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(k, EnvPrefix)), v
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Config file missing → use defaults
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config extension %q", ext)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("parse %s: %w", ext, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DeviceID == "" {
		cfg.DeviceID = "default"
	}
	if !logger.ValidLevel(cfg.LogLevel) {
		cfg.LogLevel = logger.InfoLevel
	}
	if cfg.Controllers.HTTP.Addr == "" {
		cfg.Controllers.HTTP.Addr = ":8080"
	}
	if !cfg.Controllers.HTTP.Enabled && !cfg.Controllers.MQTT.Enabled && !cfg.Controllers.MODBUS.Enabled {
		cfg.Controllers.HTTP.Enabled = true
	}
	if cfg.Controllers.MQTT.PublishInterval == 0 {
		cfg.Controllers.MQTT.PublishInterval = 1 * time.Second
	}
	if cfg.Controllers.MODBUS.UnitID == 0 {
		cfg.Controllers.MODBUS.UnitID = 1
	}
}

// ApplyEnvOverrides handles variables outside the COPCALC_ namespace.
func ApplyEnvOverrides(cfg *Config) {
	// Explicit addr prefered, else support PORT (common in containers).
	if os.Getenv(EnvPrefix+"CONTROLLERS_HTTP_ADDR") != "" {
		return
	}
	if v := os.Getenv("PORT"); v != "" {
		// listen on all interfaces on that port
		cfg.Controllers.HTTP.Addr = ":" + v
	}
}

// envKeyTransform maps an upper-snake env key (prefix already stripped) to a
// koanf path: CONTROLLERS_HTTP_ADDR → controllers.http.addr,
// HEAT_PUMP_WATER_TEMPERATURE → heat_pump.water_temperature.
func envKeyTransform(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if rest, ok := strings.CutPrefix(s, "controllers_"); ok {
		parts := strings.SplitN(rest, "_", 2)
		if len(parts) < 2 {
			return s
		}
		return "controllers." + parts[0] + "." + parts[1]
	}
	if rest, ok := strings.CutPrefix(s, "heat_pump_"); ok && rest != "" {
		return "heat_pump." + rest
	}
	return s
}

// Input converts the configured operating point into a calculation input.
func (c HeatPumpConfig) Input() heatpump.Input {
	return heatpump.Input{
		OutdoorTemperature: c.OutdoorTemperature,
		WaterTemperature:   c.WaterTemperature,
		HeatLoad:           c.HeatLoad,
		Humidity:           c.Humidity,
		IncludeDefrost:     c.IncludeDefrost,
		IncludeParasitics:  c.IncludeParasitics,
		IncludeHexPenalty:  c.IncludeHexPenalty,
		IncludePartLoad:    c.IncludePartLoad,
		SystemEfficiency:   c.SystemEfficiency,
		DeltaTSource:       c.DeltaTSource,
		DeltaTSink:         c.DeltaTSink,
		MaxCapacity:        c.MaxCapacity,
	}
}

func FromInput(in heatpump.Input) HeatPumpConfig {
	return HeatPumpConfig{
		OutdoorTemperature: in.OutdoorTemperature,
		WaterTemperature:   in.WaterTemperature,
		HeatLoad:           in.HeatLoad,
		Humidity:           in.Humidity,
		IncludeDefrost:     in.IncludeDefrost,
		IncludeParasitics:  in.IncludeParasitics,
		IncludeHexPenalty:  in.IncludeHexPenalty,
		IncludePartLoad:    in.IncludePartLoad,
		SystemEfficiency:   in.SystemEfficiency,
		DeltaTSource:       in.DeltaTSource,
		DeltaTSink:         in.DeltaTSink,
		MaxCapacity:        in.MaxCapacity,
	}
}
