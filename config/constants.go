package config

import (
	"time"

	"github.com/vechain/thor/v2/thor"
)

// Oracle request constants
const (
	DefaultRequestConfirmations = 3
	DefaultCallbackGasLimit     = 500000

	// Limits enforced by the VRF coordinator
	MaxNumWords             = 500
	MaxRequestConfirmations = 200
	MaxCallbackGasLimit     = 2500000
	MaxConsumers            = 100
)

// Mock coordinator pricing, in juels (1 LINK = 1e18 juels)
const (
	DefaultBaseFee           = "250000000000000000" // 0.25 LINK
	DefaultGasPriceLink      = 1000000000           // 0.000000001 LINK per gas
	DefaultSubscriptionFunds = "100000000000000000000"
)

// Timing constants
const (
	DefaultRoundInterval = 30 * time.Second
	DefaultFulfillDelay  = 2 * time.Second
	DefaultRetryDelay    = 2 * time.Second
	DefaultRetryTimeout  = 30 * time.Second
)

// Concurrency constants
const (
	DefaultWorkerPoolSize = 4
	DefaultTaskQueueSize  = 100
	DefaultChannelBuffer  = 1000
)

// Cache constants
const (
	DefaultHistorySize = 256
)

// Default configuration values
const (
	DefaultNetwork      = "localhost"
	DefaultPanelSize    = 3
	DefaultCandidates   = 12
	DefaultInfluxDB     = "http://localhost:8086"
	DefaultInfluxToken  = ""
	DefaultInfluxOrg    = "vechain"
	DefaultInfluxBucket = "jury"
)

// Error messages
const (
	ErrUnknownNetwork         = "unknown network %q"
	ErrPanelSizeRequired      = "--panel-size or PANEL_SIZE must be positive"
	ErrNoCandidates           = "no candidates: set --roster or --candidates"
	ErrFailedToCreateCache    = "failed to create LRU cache: %w"
	ErrFailedToPingInflux     = "failed to ping influxdb: %w"
	ErrFailedToWritePoints    = "failed to write points: %w"
	ErrFailedToOpenRoster     = "failed to open roster: %w"
	ErrFailedToReadRosterRows = "failed to read roster rows: %w"
	ErrEmptyRoster            = "empty roster sheet"

	// Worker pool error messages
	ErrWorkerPoolShutdown = "worker pool is shutdown"
)

// Measurement names for InfluxDB
const (
	CandidateEventsMeasurement = "candidate_events"
	RequestsMeasurement        = "randomness_requests"
	SelectionsMeasurement      = "jury_selections"
	JurorsMeasurement          = "jurors"
	OracleEventsMeasurement    = "oracle_events"
)

// Field names for InfluxDB
const (
	RoundField     = "round"
	RequestIDField = "request_id"
)

// Spreadsheet names
const (
	CandidatesSheet = "Candidates"
	PanelsSheet     = "Panels"
)

// Network holds the oracle parameters of a deployment target.
type Network struct {
	Name               string
	ChainID            uint64
	KeyHash            thor.Bytes32
	SubscriptionID     uint64
	BlockConfirmations uint64
	CallbackGasLimit   uint32
	VRFCoordinator     thor.Address
	Development        bool
}

var gasLane = thor.MustParseBytes32("0x79d3d8832d904592c0bf9818b621522c988bb8b0c05cdc3b15aea1b6e8db0c15")

// Networks lists the known deployment targets by name.
var Networks = map[string]Network{
	"hardhat": {
		Name:               "hardhat",
		ChainID:            31337,
		KeyHash:            gasLane,
		BlockConfirmations: 1,
		CallbackGasLimit:   DefaultCallbackGasLimit,
		Development:        true,
	},
	"localhost": {
		Name:               "localhost",
		ChainID:            31337,
		KeyHash:            gasLane,
		SubscriptionID:     777,
		BlockConfirmations: 5,
		CallbackGasLimit:   DefaultCallbackGasLimit,
		VRFCoordinator:     thor.MustParseAddress("0x2Ca8E0C643bDe4C2E08ab1fA0da3401AdAD7734D"),
		Development:        true,
	},
	"goerli": {
		Name:               "goerli",
		ChainID:            5,
		KeyHash:            gasLane,
		SubscriptionID:     777,
		BlockConfirmations: 5,
		CallbackGasLimit:   DefaultCallbackGasLimit,
		VRFCoordinator:     thor.MustParseAddress("0x2Ca8E0C643bDe4C2E08ab1fA0da3401AdAD7734D"),
	},
}
