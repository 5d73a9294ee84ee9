package influxdb

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/vechain/vrfjury/config"
	"github.com/vechain/vrfjury/types"
)

type DB struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	org         string
	bucket      string
	defaultTags map[string]string
}

func New(url, token, org, bucket string, defaultTags map[string]string) (*DB, error) {
	influx := influxdb2.NewClient(url, token)

	_, err := influx.Ping(context.Background())
	if err != nil {
		slog.Error("failed to ping influxdb", "error", err)
		influx.Close()
		return nil, fmt.Errorf(config.ErrFailedToPingInflux, err)
	}

	return &DB{
		client:      influx,
		writeAPI:    influx.WriteAPIBlocking(org, bucket),
		org:         org,
		bucket:      bucket,
		defaultTags: defaultTags,
	}, nil
}

// Write stores the points of one event record. It is a pubsub handler.
func (i *DB) Write(rec *types.Record) error {
	points := Points(rec, i.defaultTags)
	if len(points) == 0 {
		return nil
	}
	return i.WritePoints(context.Background(), points...)
}

func (i *DB) WritePoints(ctx context.Context, points ...*write.Point) error {
	if err := i.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf(config.ErrFailedToWritePoints, err)
	}
	return nil
}

// LatestRound returns the highest selection round stored in the bucket, or 0
// when none was written yet.
func (i *DB) LatestRound(ctx context.Context) (uint64, error) {
	queryAPI := i.client.QueryAPI(i.org)
	query := fmt.Sprintf(`from(bucket: %q)
	  |> range(start: 2015-01-01T00:00:00Z, stop: 2100-01-01T00:00:00Z)
	  |> filter(fn: (r) => r["_measurement"] == %q)
	  |> filter(fn: (r) => r["_field"] == %q)
	  |> group()
	  |> max()`, i.bucket, config.SelectionsMeasurement, config.RoundField)
	res, err := queryAPI.Query(ctx, query)
	if err != nil {
		return 0, err
	}
	defer res.Close()

	if res.Next() {
		switch v := res.Record().Value().(type) {
		case uint64:
			return v, nil
		case int64:
			return uint64(v), nil
		default:
			slog.Warn("failed to cast round to uint64", "value", v)
			return 0, nil
		}
	}

	if err := res.Err(); err != nil {
		slog.Error("error in result", "error", err)
		return 0, err
	}
	return 0, nil
}

func (i *DB) Close() {
	i.client.Close()
}
