package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testRecord() domain.ForecastRecord {
	wave := 1.25
	return domain.ForecastRecord{
		Requested: domain.Coordinate{Latitude: 54.544587, Longitude: 10.227487},
		Report: domain.MarineReport{
			WeatherData:  map[string]*float64{"wave_height": &wave, "wave_period": nil},
			Latitude:     54.544587,
			Longitude:    10.227487,
			EndpointUsed: "marine",
			FetchedAt:    time.Date(2024, 6, 19, 14, 0, 0, 0, time.UTC),
		},
	}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(testRecord())
	require.NoError(t, err)

	assert.Equal(t, []byte("54.5446,10.2275"), msg.Key)
	assert.Contains(t, string(msg.Value), `"wave_height":1.25`)
	assert.Contains(t, string(msg.Value), `"wave_period":null`)
	assert.Contains(t, string(msg.Value), `"endpoint_used":"marine"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "endpoint_used", msg.Headers[0].Key)
	assert.Equal(t, []byte("marine"), msg.Headers[0].Value)
	assert.Equal(t, "fetched_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-06-19T14:00:00Z"), msg.Headers[1].Value)
}

func TestWriter_Publish(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Publish(context.Background(), testRecord()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("54.5446,10.2275"), fw.msgs[0].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_PublishError(t *testing.T) {
	cause := errors.New("leader not available")
	w := &Writer{writer: &fakeWriter{err: cause}, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Publish(context.Background(), testRecord())
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write forecast record")
}
