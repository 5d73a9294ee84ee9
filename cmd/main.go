package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kouhin/envflag"
	"github.com/vechain/vrfjury/cmd/juryd"
	"github.com/vechain/vrfjury/config"
)

var (
	networkFlag       = flag.String("network", config.DefaultNetwork, "network preset: hardhat, localhost, goerli, (env var: NETWORK)")
	panelSizeFlag     = flag.Int("panel-size", config.DefaultPanelSize, "jurors per panel, (env var: PANEL_SIZE)")
	candidatesFlag    = flag.Int("candidates", config.DefaultCandidates, "number of generated candidates when no roster is given, (env var: CANDIDATES)")
	rosterFlag        = flag.String("roster", "", "candidates excel file path, (env var: ROSTER)")
	roundsFlag        = flag.Int("rounds", 0, "number of selection rounds, 0 runs until stopped, (env var: ROUNDS)")
	roundIntervalFlag = flag.Duration("round-interval", config.DefaultRoundInterval, "delay between selection rounds, (env var: ROUND_INTERVAL)")
	fulfillDelayFlag  = flag.Duration("fulfill-delay", config.DefaultFulfillDelay, "oracle response latency, (env var: FULFILL_DELAY)")
	callbackGasFlag   = flag.Uint("callback-gas-limit", 0, "override the network callback gas limit, (env var: CALLBACK_GAS_LIMIT)")
	confirmationsFlag = flag.Uint("confirmations", config.DefaultRequestConfirmations, "request confirmations, (env var: CONFIRMATIONS)")
	influxUrlFlag     = flag.String("influx-url", "", "influxdb URL, e.g. "+config.DefaultInfluxDB+", empty disables influxdb, (env var: INFLUX_URL)")
	influxTokenFlag   = flag.String("influx-token", config.DefaultInfluxToken, "influxdb auth token, (env var: INFLUX_TOKEN)")
	influxOrg         = flag.String("influx-org", config.DefaultInfluxOrg, "influxdb organization, (env var: INFLUX_ORG)")
	influxBucket      = flag.String("influx-bucket", config.DefaultInfluxBucket, "influxdb bucket, (env var: INFLUX_BUCKET)")
	exportFlag        = flag.String("export", "", "excel file the panels are written to on shutdown, (env var: EXPORT)")
	metricsAddrFlag   = flag.String("metrics-addr", "", "prometheus listen address, e.g. :2112, (env var: METRICS_ADDR)")
)

func main() {
	if err := parseFlags(); err != nil {
		slog.Error("failed to parse flags", "error", err)
		flag.PrintDefaults()
		os.Exit(1)
	}
	ctx := exitContext()

	cmd, err := juryd.New(ctx, juryd.Options{
		Network:          *networkFlag,
		PanelSize:        *panelSizeFlag,
		Candidates:       *candidatesFlag,
		RosterPath:       *rosterFlag,
		Rounds:           *roundsFlag,
		RoundInterval:    *roundIntervalFlag,
		FulfillDelay:     *fulfillDelayFlag,
		CallbackGasLimit: uint32(*callbackGasFlag),
		Confirmations:    uint16(*confirmationsFlag),
		InfluxURL:        *influxUrlFlag,
		InfluxToken:      *influxTokenFlag,
		InfluxOrg:        *influxOrg,
		InfluxBucket:     *influxBucket,
		ExportPath:       *exportFlag,
		MetricsAddr:      *metricsAddrFlag,
	})
	if err != nil {
		slog.Error("failed to create juryd command", "error", err)
		os.Exit(1)
	}
	cmd.Run()

	select {
	case <-ctx.Done():
	case <-cmd.Done():
	}
	if err := cmd.Stop(); err != nil {
		slog.Error("juryd stopped with error", "error", err)
		os.Exit(1)
	}
}

func parseFlags() error {
	if err := envflag.Parse(); err != nil {
		return err
	}

	if *panelSizeFlag <= 0 {
		return errors.New(config.ErrPanelSizeRequired)
	}
	if *rosterFlag == "" && *candidatesFlag <= 0 {
		return errors.New(config.ErrNoCandidates)
	}
	if *confirmationsFlag > config.MaxRequestConfirmations {
		slog.Warn("confirmations above the coordinator limit, requests will be rejected", "confirmations", *confirmationsFlag, "max", config.MaxRequestConfirmations)
	}
	if *influxUrlFlag != "" && *influxTokenFlag == "" {
		slog.Warn("influxdb URL set without a token", "url", *influxUrlFlag)
	}
	return nil
}

func exitContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		slog.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
