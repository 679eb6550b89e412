package forecastapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var testCoord = domain.Coordinate{Latitude: 54.544587, Longitude: 10.227487}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serveJSON(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, WeatherPath, r.URL.Path)
		assert.Equal(t, "54.544587", r.URL.Query().Get("latitude"))
		assert.Equal(t, "10.227487", r.URL.Query().Get("longitude"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, `{"weather_data":{"temp":1,"wave":5,"ocean_current_velocity":null},"endpoint_used":"marine"}`)
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Fetch(context.Background(), testCoord)
	require.NoError(t, err)

	assert.Equal(t, domain.ForecastResult{"temp": 1, "wave": 5}, result)
}

func TestClient_Fetch_TrailingSlashBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, WeatherPath, r.URL.Path)
		_, _ = io.WriteString(w, `{"weather_data":{}}`)
	}))
	defer srv.Close()

	result, err := testClient(srv.URL+"/").Fetch(context.Background(), testCoord)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestClient_Fetch_LegacyLandSentinel(t *testing.T) {
	srv := serveJSON(t, http.StatusInternalServerError, `{"error":"bad number 4294967382 for type uint32"}`)

	_, err := testClient(srv.URL).Fetch(context.Background(), testCoord)
	assert.ErrorIs(t, err, domain.ErrLandCoordinate)
}

func TestClient_Fetch_LandCode(t *testing.T) {
	srv := serveJSON(t, http.StatusBadRequest, `{"error":"You selected a land area where data cannot be fetched.","code":"land_selected"}`)

	_, err := testClient(srv.URL).Fetch(context.Background(), testCoord)
	assert.ErrorIs(t, err, domain.ErrLandCoordinate)
}

func TestClient_Fetch_ServerMessage(t *testing.T) {
	srv := serveJSON(t, http.StatusGatewayTimeout, `{"error":"timeout"}`)

	_, err := testClient(srv.URL).Fetch(context.Background(), testCoord)
	require.Error(t, err)

	var fe *domain.ForecastError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "timeout", fe.Message)
	assert.Equal(t, http.StatusGatewayTimeout, fe.StatusCode)
	assert.False(t, errors.Is(err, domain.ErrLandCoordinate))
}

func TestClient_Fetch_NonJSONErrorBody(t *testing.T) {
	srv := serveJSON(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := testClient(srv.URL).Fetch(context.Background(), testCoord)

	var fe *domain.ForecastError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.MsgFetchFailed, fe.Message)
}

func TestClient_Fetch_MalformedSuccessBody(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"weather_data":`)

	_, err := testClient(srv.URL).Fetch(context.Background(), testCoord)

	var fe *domain.ForecastError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.MsgFetchFailed, fe.Message)
}

func TestClient_Fetch_MissingWeatherData(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"latitude":1}`)

	_, err := testClient(srv.URL).Fetch(context.Background(), testCoord)
	assert.Equal(t, domain.MsgFetchFailed, domain.UserMessage(err))
}

func TestClient_Fetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testClient(url).Fetch(context.Background(), testCoord)

	var fe *domain.ForecastError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.MsgFetchFailed, fe.Message)
	assert.Zero(t, fe.StatusCode)
	assert.NotNil(t, fe.Err)
}

func TestClient_Fetch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Fetch(ctx, testCoord)
	assert.ErrorIs(t, err, context.Canceled)
}
