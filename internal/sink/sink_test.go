package sink

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"dashboard-service/internal/store"
	"dashboard-service/pkg/models"

	"github.com/go-redis/redis/v8"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)

func sampleSnapshot(id int) models.RealtimeData {
	return models.RealtimeData{
		Stats: models.DashboardStats{SystemStatus: models.StatusHealthy, Uptime: 99.9},
		Metrics: models.SystemMetrics{
			ID:          id,
			Timestamp:   now,
			CPUUsage:    68.5,
			MemoryUsage: 45.2,
			DiskUsage:   82.1,
			NetworkIO:   124.5,
		},
		RecentDeployments: []models.Deployment{},
		ActiveAlerts:      []models.Alert{},
	}
}

// Redis

type fakeRedis struct {
	hashes    map[string]map[string]interface{}
	published map[string][]interface{}
	err       error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		hashes:    make(map[string]map[string]interface{}),
		published: make(map[string][]interface{}),
	}
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]interface{})
		f.hashes[key] = h
	}
	for i := 0; i+1 < len(values); i += 2 {
		h[values[i].(string)] = values[i+1]
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.published[channel] = append(f.published[channel], message)
	return redis.NewIntResult(1, nil)
}

func TestRedisSink_Write(t *testing.T) {
	client := newFakeRedis()
	s := NewRedisSink(client)
	assert.Equal(t, "redis", s.Name())

	require.NoError(t, s.Write(context.Background(), sampleSnapshot(7)))

	h := client.hashes[LatestMetricsKey]
	require.NotNil(t, h)
	assert.Equal(t, "7", h["id"])
	assert.Equal(t, "68.5", h["cpuUsage"])
	assert.Equal(t, "124.5", h["networkIO"])
	assert.Equal(t, "2026-03-01T12:30:45Z", h["timestamp"])

	require.Len(t, client.published[UpdatesChannel], 1)
	payload, ok := client.published[UpdatesChannel][0].([]byte)
	require.True(t, ok)
	assert.Contains(t, string(payload), `"type":"dashboard_update"`)
}

func TestRedisSink_WriteError(t *testing.T) {
	client := newFakeRedis()
	client.err = errors.New("connection refused")

	err := NewRedisSink(client).Write(context.Background(), sampleSnapshot(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, client.err)
}

// Postgres

type execCall struct {
	query string
	args  []interface{}
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, execCall{query: query, args: args})
	return nil, nil
}

func TestPostgresSink_EnsureSchema(t *testing.T) {
	db := &fakeExecer{}
	require.NoError(t, NewPostgresSink(db).EnsureSchema(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].query, "CREATE TABLE IF NOT EXISTS system_metrics")
}

func TestPostgresSink_WritesEachSampleOnce(t *testing.T) {
	ctx := context.Background()
	db := &fakeExecer{}
	s := NewPostgresSink(db)
	assert.Equal(t, "postgres", s.Name())

	require.NoError(t, s.Write(ctx, sampleSnapshot(3)))
	require.NoError(t, s.Write(ctx, sampleSnapshot(3)))
	require.NoError(t, s.Write(ctx, sampleSnapshot(4)))

	require.Len(t, db.calls, 2)
	assert.Contains(t, db.calls[0].query, "INSERT INTO system_metrics")
	assert.Equal(t, []interface{}{3, now, 68.5, 45.2, 82.1, 124.5}, db.calls[0].args)
	assert.Equal(t, 4, db.calls[1].args[0])
}

func TestPostgresSink_SkipsPlaceholder(t *testing.T) {
	db := &fakeExecer{}
	require.NoError(t, NewPostgresSink(db).Write(context.Background(), sampleSnapshot(0)))
	assert.Empty(t, db.calls)
}

func TestPostgresSink_ErrorRetriesSameSample(t *testing.T) {
	ctx := context.Background()
	db := &fakeExecer{err: errors.New("deadlock")}
	s := NewPostgresSink(db)

	require.Error(t, s.Write(ctx, sampleSnapshot(5)))

	db.err = nil
	require.NoError(t, s.Write(ctx, sampleSnapshot(5)))
	assert.Len(t, db.calls, 1)
}

// Archive

type putCall struct {
	bucket string
	object string
	body   []byte
	opts   minio.PutObjectOptions
}

type fakePutter struct {
	puts []putCall
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if int64(len(body)) != objectSize {
		return minio.UploadInfo{}, errors.New("size mismatch")
	}
	f.puts = append(f.puts, putCall{bucket: bucketName, object: objectName, body: body, opts: opts})
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

type staticSnapshots struct{ data models.RealtimeData }

func (s staticSnapshots) RealtimeData(ctx context.Context) (models.RealtimeData, error) {
	return s.data, nil
}

func decodeLines[T any](t *testing.T, body []byte) []T {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer zr.Close()

	var out []T
	scanner := bufio.NewScanner(zr)
	for scanner.Scan() {
		var v T
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &v))
		out = append(out, v)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "system-logs/2026/03/01/123045.json.gz", ObjectName("system-logs", now))
	local := now.In(time.FixedZone("UTC+2", 2*60*60))
	assert.Equal(t, "snapshots/2026/03/01/123045.json.gz", ObjectName("snapshots", local))
}

func TestEncodeJSONLines(t *testing.T) {
	buf, err := EncodeJSONLines([]map[string]int{{"a": 1}, {"b": 2}})
	require.NoError(t, err)

	lines := decodeLines[map[string]int](t, buf.Bytes())
	assert.Equal(t, []map[string]int{{"a": 1}, {"b": 2}}, lines)
}

func TestArchiver_UploadsNewLogsOnly(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.WithClock(func() time.Time { return now }))
	for _, msg := range []string{"started", "ready"} {
		_, err := s.CreateSystemLog(ctx, models.SystemLog{Timestamp: now, Level: models.LevelInfo, Service: "api-gateway", Message: msg})
		require.NoError(t, err)
	}

	client := &fakePutter{}
	a := NewArchiver(client, "dashboard-archive", s, staticSnapshots{data: sampleSnapshot(1)})

	res, err := a.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.LogsArchived)
	assert.Equal(t, "system-logs/2026/03/01/123045.json.gz", res.LogsObject)
	assert.Equal(t, "snapshots/2026/03/01/123045.json.gz", res.SnapshotObject)

	require.Len(t, client.puts, 2)
	assert.Equal(t, "dashboard-archive", client.puts[0].bucket)
	assert.Equal(t, "application/gzip", client.puts[0].opts.ContentType)

	logs := decodeLines[models.SystemLog](t, client.puts[0].body)
	require.Len(t, logs, 2)
	assert.Equal(t, "started", logs[0].Message)
	assert.Equal(t, "ready", logs[1].Message)

	snaps := decodeLines[models.RealtimeData](t, client.puts[1].body)
	require.Len(t, snaps, 1)
	assert.Equal(t, 68.5, snaps[0].Metrics.CPUUsage)

	// second run: no new logs, snapshot only
	res, err = a.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.LogsArchived)
	assert.Empty(t, res.LogsObject)
	assert.Len(t, client.puts, 3)

	_, err = s.CreateSystemLog(ctx, models.SystemLog{Timestamp: now, Level: models.LevelError, Service: "user-service", Message: "boom"})
	require.NoError(t, err)

	res, err = a.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LogsArchived)
	logs = decodeLines[models.SystemLog](t, client.puts[3].body)
	require.Len(t, logs, 1)
	assert.Equal(t, "boom", logs[0].Message)
}

func TestArchiver_UploadFailureKeepsWatermark(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.WithClock(func() time.Time { return now }))
	_, err := s.CreateSystemLog(ctx, models.SystemLog{Timestamp: now, Level: models.LevelWarn, Service: "auth-service", Message: "slow"})
	require.NoError(t, err)

	client := &fakePutter{err: errors.New("bucket unavailable")}
	a := NewArchiver(client, "dashboard-archive", s, staticSnapshots{data: sampleSnapshot(1)})

	_, err = a.Archive(ctx)
	require.Error(t, err)

	client.err = nil
	res, err := a.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LogsArchived)
}
