package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/groupbalance/core/metrics"
	"github.com/kilianp07/groupbalance/infra/logger"
)

// InfluxSink writes one point per search run to an InfluxDB instance.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails, so a missing database never blocks a search.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// SearchPoint builds the line-protocol point for a run summary. Only the
// bounded settings are tags; run id and seed are fields.
func SearchPoint(sum coremetrics.SearchSummary) *write.Point {
	return write.NewPointWithMeasurement("group_search").
		AddTag("group_size", strconv.Itoa(sum.GroupSize)).
		AddTag("workers", strconv.Itoa(sum.Workers)).
		AddField("run_id", sum.RunID).
		AddField("seed", sum.Seed).
		AddField("roster_size", sum.RosterSize).
		AddField("groups", sum.Groups).
		AddField("iterations", sum.Iterations).
		AddField("improvements", sum.Improvements).
		AddField("fitness", round6(sum.Fitness)).
		AddField("duration_ms", round6(float64(sum.Duration)/float64(time.Millisecond))).
		SetTime(sum.Time)
}

// RecordSearch writes the run summary.
func (s *InfluxSink) RecordSearch(sum coremetrics.SearchSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, SearchPoint(sum))
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
