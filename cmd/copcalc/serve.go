package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/copcalc/cmd/app"
	httpctrl "github.com/Agrid-Dev/copcalc/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/copcalc/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/copcalc/internal/controllers/mqtt"
	"github.com/Agrid-Dev/copcalc/internal/heatpump"
	"github.com/Agrid-Dev/copcalc/internal/logger"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose a live heat pump over HTTP, MQTT and Modbus",
		Long: `Serve holds one heat pump operating point in memory and exposes it through
the controllers enabled in the config file. Every accepted write recomputes
the COP; every reader sees the same snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

type runner interface {
	Run(ctx context.Context) error
}

func serve(ctx context.Context, cfg app.Config) error {
	log := logger.New(cfg.LogLevel).With("device_id", cfg.DeviceID)
	defer func() { _ = log.Sync() }()

	hp, err := heatpump.New(cfg.HeatPump.Input())
	if err != nil {
		return err
	}
	s := hp.Get()
	log.Infow("heat pump ready",
		"outdoor_temperature", s.Input.OutdoorTemperature,
		"water_temperature", s.Input.WaterTemperature,
		"cop", s.Result.COP)

	runners := map[string]runner{}

	if cfg.Controllers.HTTP.Enabled {
		runners["http"] = httpctrl.New(hp, cfg.Controllers.HTTP.Addr, cfg.DeviceID, log)
		log.Infow("http controller enabled", "addr", cfg.Controllers.HTTP.Addr)
	}

	if cfg.Controllers.MQTT.Enabled {
		m := cfg.Controllers.MQTT
		c, err := mqttctrl.New(hp, mqttctrl.Config{
			DeviceID:        cfg.DeviceID,
			BrokerURL:       m.BrokerURL,
			ClientID:        m.ClientID,
			BaseTopic:       m.BaseTopic,
			QoS:             m.QoS,
			RetainSnapshot:  m.RetainSnapshot,
			PublishInterval: m.PublishInterval,
			Username:        m.Username,
			Password:        m.Password,
			Log:             log,
		})
		if err != nil {
			return err
		}
		runners["mqtt"] = c
		log.Infow("mqtt controller enabled", "broker", m.BrokerURL)
	}

	if cfg.Controllers.MODBUS.Enabled {
		m := cfg.Controllers.MODBUS
		c, err := modbusctrl.New(hp, modbusctrl.Config{
			DeviceID: cfg.DeviceID,
			Addr:     m.Addr,
			UnitID:   m.UnitID,
			Log:      log,
		})
		if err != nil {
			return err
		}
		runners["modbus"] = c
		log.Infow("modbus controller enabled", "addr", m.Addr)
	}

	g, ctx := errgroup.WithContext(ctx)
	for name, r := range runners {
		g.Go(func() error {
			err := r.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("controller exited", "controller", name, "error", err)
				return err
			}
			return nil
		})
	}
	err = g.Wait()
	log.Infow("shutdown complete")
	return err
}
