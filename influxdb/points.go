package influxdb

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/oracle"
	"github.com/vechain/vrfjury/types"
)

var juelsPerLink = big.NewFloat(1e18)

// Points maps an event record to the points stored for it. Records without
// a mapping yield no points.
func Points(rec *types.Record, defaultTags map[string]string) []*write.Point {
	tags := func(extra ...string) map[string]string {
		out := make(map[string]string, len(defaultTags)+2+len(extra)/2)
		for k, v := range defaultTags {
			out[k] = v
		}
		out["source"] = rec.Source
		out["event"] = rec.Event.Name()
		for i := 0; i+1 < len(extra); i += 2 {
			out[extra[i]] = extra[i+1]
		}
		return out
	}

	switch ev := rec.Event.(type) {
	case types.CandidateAdded:
		return []*write.Point{influxdb2.NewPoint(config.CandidateEventsMeasurement, tags(), map[string]any{
			"address": ev.Address.String(),
			"seq":     rec.Seq,
		}, rec.Timestamp)}

	case types.CandidateRemoved:
		return []*write.Point{influxdb2.NewPoint(config.CandidateEventsMeasurement, tags(), map[string]any{
			"address": ev.Address.String(),
			"index":   ev.Index,
			"seq":     rec.Seq,
		}, rec.Timestamp)}

	case types.RandomWordsRequested:
		return []*write.Point{influxdb2.NewPoint(config.RequestsMeasurement, tags(), map[string]any{
			config.RequestIDField: uint64(ev.RequestID),
			"count":               ev.Count,
		}, rec.Timestamp)}

	case types.JurorsSelected:
		points := make([]*write.Point, 0, len(ev.Panel)+1)
		points = append(points, influxdb2.NewPoint(config.SelectionsMeasurement, tags(), map[string]any{
			config.RoundField:     ev.Round,
			config.RequestIDField: uint64(ev.RequestID),
			"panel_size":          len(ev.Panel),
			"panel":               strings.Join(ev.Panel.Strings(), ","),
		}, rec.Timestamp))
		for pos, juror := range ev.Panel {
			points = append(points, influxdb2.NewPoint(config.JurorsMeasurement, tags("juror", juror.String()), map[string]any{
				config.RoundField: ev.Round,
				"position":        pos + 1,
			}, rec.Timestamp))
		}
		return points

	case oracle.RequestReceived:
		return []*write.Point{influxdb2.NewPoint(config.OracleEventsMeasurement, tags(), map[string]any{
			config.RequestIDField: uint64(ev.RequestID),
			"subscription_id":     ev.SubscriptionID,
			"key_hash":            hexutil.Encode(ev.KeyHash.Bytes()),
			"pre_seed":            hexutil.Encode(ev.PreSeed.Bytes()),
			"num_words":           ev.NumWords,
			"callback_gas_limit":  ev.CallbackGasLimit,
			"confirmations":       ev.RequestConfirmations,
			"sender":              ev.Sender.String(),
		}, rec.Timestamp)}

	case oracle.RandomWordsFulfilled:
		return []*write.Point{influxdb2.NewPoint(config.OracleEventsMeasurement, tags(), map[string]any{
			config.RequestIDField: uint64(ev.RequestID),
			"output_seed":         hexutil.Encode(ev.OutputSeed.Bytes()),
			"payment_link":        toLink(ev.Payment),
			"success":             ev.Success,
		}, rec.Timestamp)}

	case oracle.SubscriptionFunded:
		return []*write.Point{influxdb2.NewPoint(config.OracleEventsMeasurement, tags(), map[string]any{
			"subscription_id": ev.SubscriptionID,
			"balance_link":    toLink(ev.NewBalance),
		}, rec.Timestamp)}
	}
	return nil
}

func toLink(juels *big.Int) float64 {
	if juels == nil {
		return 0
	}
	f := new(big.Float).SetInt(juels)
	link, _ := f.Quo(f, juelsPerLink).Float64()
	return link
}
