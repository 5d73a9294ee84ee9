package juryd

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vechain/thor/v2/thor"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/vrfjury/common"
	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/excel"
	"github.com/vechain/vrfjury/fulfiller"
	"github.com/vechain/vrfjury/history"
	"github.com/vechain/vrfjury/influxdb"
	"github.com/vechain/vrfjury/jury"
	"github.com/vechain/vrfjury/metrics"
	"github.com/vechain/vrfjury/oracle"
	"github.com/vechain/vrfjury/pubsub"
	"github.com/vechain/vrfjury/types"
)

type Cmd struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan struct{}

	opts       Options
	network    config.Network
	mock       *oracle.Mock
	coord      *jury.Coordinator
	publisher  *pubsub.Publisher
	subscriber *pubsub.Subscriber
	fulfiller  *fulfiller.Fulfiller
	history    *history.History
	influx     *influxdb.DB
	server     *http.Server
}

type Options struct {
	Network          string
	PanelSize        int
	Candidates       int
	RosterPath       string
	Rounds           int
	RoundInterval    time.Duration
	FulfillDelay     time.Duration
	CallbackGasLimit uint32
	Confirmations    uint16
	InfluxURL        string
	InfluxToken      string
	InfluxOrg        string
	InfluxBucket     string
	ExportPath       string
	MetricsAddr      string
}

func New(ctx context.Context, opts Options) (*Cmd, error) {
	slog.Info("initializing juryd",
		"network", opts.Network,
		"panel-size", opts.PanelSize,
		"rounds", opts.Rounds,
		"round-interval", opts.RoundInterval,
		"influx-url", opts.InfluxURL,
		"roster", opts.RosterPath,
	)

	network, ok := config.Networks[opts.Network]
	if !ok {
		return nil, fmt.Errorf(config.ErrUnknownNetwork, opts.Network)
	}
	if !network.Development {
		return nil, errors.Errorf("network %q has no local oracle, only development networks can run juryd", network.Name)
	}
	if opts.PanelSize <= 0 {
		return nil, errors.New(config.ErrPanelSizeRequired)
	}
	if opts.RoundInterval <= 0 {
		opts.RoundInterval = config.DefaultRoundInterval
	}

	candidates, err := loadCandidates(opts)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher, recordChan := pubsub.New(config.DefaultChannelBuffer)

	baseFee, _ := new(big.Int).SetString(config.DefaultBaseFee, 10)
	mock, err := oracle.NewMock(baseFee, big.NewInt(config.DefaultGasPriceLink), oracle.WithSink(publisher))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mock vrf coordinator")
	}

	ownerKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate owner key")
	}
	owner := thor.Address(crypto.PubkeyToAddress(ownerKey.PublicKey))
	consumer := thor.BytesToAddress(thor.Blake2b(owner.Bytes(), []byte("vrfjury")).Bytes())

	subID, err := provisionSubscription(mock, owner, consumer)
	if err != nil {
		return nil, err
	}
	if network.SubscriptionID != 0 && network.SubscriptionID != subID {
		slog.Warn("network subscription id replaced by mock subscription", "preset", network.SubscriptionID, "subscription", subID)
	}

	cfg := jury.ConfigFromNetwork(network, mock.Address(), consumer, subID)
	if opts.CallbackGasLimit != 0 {
		cfg.CallbackGasLimit = opts.CallbackGasLimit
	}
	if opts.Confirmations != 0 {
		cfg.RequestConfirmations = opts.Confirmations
	}
	coord, err := jury.New(cfg, mock, jury.WithSink(publisher), jury.WithMetrics(m))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create jury coordinator")
	}
	for _, c := range candidates {
		if err := coord.AddCandidate(c.Address); err != nil {
			slog.Warn("skipping candidate", "address", c.Address, "name", c.Name, "error", err)
		}
	}

	hist, err := history.New(config.DefaultHistorySize, roundLoader(coord))
	if err != nil {
		return nil, err
	}
	ful := fulfiller.New(mock, opts.FulfillDelay)

	handlers := map[string]pubsub.Handler{
		"history":   hist.Record,
		"fulfiller": ful.Handle,
		"log":       logRecord,
	}

	var influx *influxdb.DB
	if opts.InfluxURL != "" {
		tags := map[string]string{"network": network.Name, "chain_id": fmt.Sprintf("%d", network.ChainID)}
		err := common.RetryIncreasing(ctx, func() error {
			var err error
			influx, err = influxdb.New(opts.InfluxURL, opts.InfluxToken, opts.InfluxOrg, opts.InfluxBucket, tags)
			return err
		}, 100*time.Millisecond, config.DefaultRetryDelay, config.DefaultRetryTimeout)
		if err != nil {
			ful.Close()
			return nil, errors.Wrap(err, "failed to connect to influxdb")
		}
		if round, err := influx.LatestRound(ctx); err != nil {
			slog.Warn("failed to read latest stored round", "error", err)
		} else if round > 0 {
			slog.Info("bucket already holds selections from a previous run", "round", round)
		}
		handlers["influx"] = influx.Write
	}

	var server *http.Server
	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		server = &http.Server{Addr: opts.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	appCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(appCtx)
	return &Cmd{
		ctx:        groupCtx,
		cancel:     cancel,
		group:      group,
		done:       make(chan struct{}),
		opts:       opts,
		network:    network,
		mock:       mock,
		coord:      coord,
		publisher:  publisher,
		subscriber: pubsub.NewSubscriber(recordChan, handlers),
		fulfiller:  ful,
		history:    hist,
		influx:     influx,
		server:     server,
	}, nil
}

// Run starts the subscriber, the selection loop and the metrics server.
func (cmd *Cmd) Run() {
	slog.Info("starting juryd", "oracle", cmd.mock.Address(), "consumer", cmd.coord.Address(), "candidates", cmd.coord.CandidatesLength())

	cmd.group.Go(func() error {
		cmd.subscriber.Subscribe(cmd.ctx)
		return nil
	})
	cmd.group.Go(func() error {
		defer close(cmd.done)
		return cmd.selectRounds(cmd.ctx)
	})
	if cmd.server != nil {
		cmd.group.Go(func() error {
			slog.Info("serving metrics", "addr", cmd.server.Addr)
			if err := cmd.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server failed")
			}
			return nil
		})
		cmd.group.Go(func() error {
			<-cmd.ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return cmd.server.Shutdown(shutdownCtx)
		})
	}
}

// Done is closed once the configured number of rounds completed.
func (cmd *Cmd) Done() <-chan struct{} {
	return cmd.done
}

func (cmd *Cmd) Stop() error {
	slog.Info("stopping juryd")
	cmd.fulfiller.Close()
	cmd.cancel()
	cmd.publisher.Close()
	err := cmd.group.Wait()

	if cmd.opts.ExportPath != "" {
		if exportErr := cmd.export(); exportErr != nil {
			slog.Error("failed to export panels", "path", cmd.opts.ExportPath, "error", exportErr)
			if err == nil {
				err = exportErr
			}
		}
	}
	if cmd.influx != nil {
		cmd.influx.Close()
	}
	return err
}

func (cmd *Cmd) Coordinator() *jury.Coordinator {
	return cmd.coord
}

func (cmd *Cmd) Oracle() *oracle.Mock {
	return cmd.mock
}

func (cmd *Cmd) History() *history.History {
	return cmd.history
}

func (cmd *Cmd) selectRounds(ctx context.Context) error {
	ticker := time.NewTicker(cmd.opts.RoundInterval)
	defer ticker.Stop()

	requested := 0
	for {
		if cmd.opts.Rounds > 0 && requested >= cmd.opts.Rounds {
			if cmd.coord.SelectionCounter() >= uint64(cmd.opts.Rounds) {
				slog.Info("✅ all selection rounds completed", "rounds", cmd.opts.Rounds)
				return nil
			}
		} else {
			count := min(cmd.opts.PanelSize, cmd.coord.CandidatesLength())
			if _, err := cmd.coord.SelectJurors(ctx, count); err != nil {
				slog.Warn("failed to start selection round", "count", count, "error", err)
			} else {
				requested++
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (cmd *Cmd) export() error {
	counter := cmd.coord.SelectionCounter()
	rows := make([]excel.PanelRow, 0, counter)
	for round := uint64(1); round <= counter; round++ {
		e, ok := cmd.history.Panel(round)
		if !ok {
			slog.Warn("round missing from history", "round", round)
			continue
		}
		rows = append(rows, excel.PanelRow{Round: e.Round, RequestID: e.RequestID, Panel: e.Panel, SelectedAt: e.SelectedAt})
	}
	if err := excel.WritePanelsXLSX(cmd.opts.ExportPath, rows); err != nil {
		return err
	}
	slog.Info("📄 panels exported", "path", cmd.opts.ExportPath, "rounds", len(rows))
	return nil
}

func loadCandidates(opts Options) ([]excel.Candidate, error) {
	if opts.RosterPath != "" {
		candidates, err := excel.ParseCandidatesFromXLSX(opts.RosterPath, opts.Network)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, errors.New(config.ErrNoCandidates)
		}
		return candidates, nil
	}
	if opts.Candidates <= 0 {
		return nil, errors.New(config.ErrNoCandidates)
	}

	candidates := make([]excel.Candidate, 0, opts.Candidates)
	for i := 0; i < opts.Candidates; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate candidate key")
		}
		candidates = append(candidates, excel.Candidate{
			Address: thor.Address(crypto.PubkeyToAddress(key.PublicKey)),
			Name:    fmt.Sprintf("candidate-%d", i+1),
			Network: opts.Network,
		})
	}
	return candidates, nil
}

func provisionSubscription(mock *oracle.Mock, owner, consumer thor.Address) (uint64, error) {
	funds, _ := new(big.Int).SetString(config.DefaultSubscriptionFunds, 10)

	subID := mock.CreateSubscription(owner)
	if err := mock.FundSubscription(subID, funds); err != nil {
		return 0, errors.Wrap(err, "failed to fund subscription")
	}
	if err := mock.AddConsumer(subID, consumer); err != nil {
		return 0, errors.Wrap(err, "failed to add consumer")
	}
	return subID, nil
}

// roundLoader resolves rounds evicted from the history from the
// coordinator's request records.
func roundLoader(coord *jury.Coordinator) history.Loader {
	return func(round uint64) (history.Entry, bool) {
		for _, req := range coord.Requests() {
			if req.Status == types.StatusFulfilled && req.Round == round {
				return history.Entry{
					Round:      req.Round,
					RequestID:  req.ID,
					Panel:      req.Panel,
					SelectedAt: req.FulfilledAt,
				}, true
			}
		}
		return history.Entry{}, false
	}
}

func logRecord(rec *types.Record) error {
	switch ev := rec.Event.(type) {
	case types.JurorsSelected:
		slog.Info("📣 panel published", "round", ev.Round, "request_id", ev.RequestID, "size", len(ev.Panel))
	case oracle.RandomWordsFulfilled:
		if !ev.Success {
			slog.Warn("oracle reports failed callback", "request_id", ev.RequestID)
		}
	default:
		slog.Debug("event", "source", rec.Source, "seq", rec.Seq, "name", rec.Event.Name())
	}
	return nil
}
