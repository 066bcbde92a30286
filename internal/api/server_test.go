package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"devicehub/internal/infrastructure/config"
	"devicehub/internal/infrastructure/logging"
	"devicehub/internal/registry"
)

// testServer creates a Server backed by a fresh in-memory registry.
func testServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()

	reg := registry.New()
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Site: config.SiteConfig{
			ID:       "test-site",
			Timezone: "UTC",
		},
		Logger:   log,
		Registry: reg,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Initialise hub for tests
	srv.hub = NewHub(srv.wsCfg, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.hub.Run(ctx)

	return srv, reg
}

func decodeEnvelope(t *testing.T, body []byte) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal envelope: %v (body %q)", err, body)
	}
	return resp
}

// ─── Registration Tests ────────────────────────────────────────────

func TestRegisterDevice(t *testing.T) {
	srv, reg := testServer(t)
	router := srv.buildRouter()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/device/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("successful registration", func(t *testing.T) {
		w := post(`{"ip_address":"10.0.0.5","device_name":"garage-relay","device_type":"relay","relay_pin":15}`)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body)
		}
		resp := decodeEnvelope(t, w.Body.Bytes())
		if resp.Status != StatusSuccess {
			t.Errorf("envelope status = %q, want %q", resp.Status, StatusSuccess)
		}
		if resp.Message != "Device registered successfully" {
			t.Errorf("envelope message = %q", resp.Message)
		}

		stored, err := reg.Get("10.0.0.5")
		if err != nil {
			t.Fatalf("Get after register: %v", err)
		}
		if stored["device_name"] != "garage-relay" {
			t.Errorf("device_name = %v", stored["device_name"])
		}
		if _, ok := stored[registry.RegisteredAtField].(string); !ok {
			t.Error("registered_at was not stamped")
		}
	})

	t.Run("re-registration replaces the record", func(t *testing.T) {
		post(`{"ip_address":"10.0.0.6","device_name":"old","extra_field":"stale"}`)
		post(`{"ip_address":"10.0.0.6","device_name":"new"}`)

		stored, err := reg.Get("10.0.0.6")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if stored["device_name"] != "new" {
			t.Errorf("device_name = %v, want new", stored["device_name"])
		}
		if _, ok := stored["extra_field"]; ok {
			t.Error("extra_field survived re-registration; replace must not merge")
		}
	})

	t.Run("missing ip_address", func(t *testing.T) {
		before := reg.Count()
		w := post(`{"device_name":"nameless"}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		resp := decodeEnvelope(t, w.Body.Bytes())
		if resp.Status != StatusError {
			t.Errorf("envelope status = %q, want %q", resp.Status, StatusError)
		}
		if reg.Count() != before {
			t.Error("registry changed on rejected registration")
		}
	})

	t.Run("empty ip_address", func(t *testing.T) {
		w := post(`{"ip_address":""}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("non-string ip_address", func(t *testing.T) {
		w := post(`{"ip_address":12345}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		before := reg.Count()
		w := post(`{"ip_address": "10.0.0.7"`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if reg.Count() != before {
			t.Error("registry changed on malformed body")
		}
	})

	t.Run("JSON array body", func(t *testing.T) {
		w := post(`["not","an","object"]`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		w := post("")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// ─── Device Listing Tests ──────────────────────────────────────────

func TestListDevices(t *testing.T) {
	srv, reg := testServer(t)
	router := srv.buildRouter()

	t.Run("empty registry yields empty array", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/devices", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := strings.TrimSpace(w.Body.String()); got != "[]" {
			t.Errorf("body = %q, want bare empty array", got)
		}
	})

	t.Run("returns all records", func(t *testing.T) {
		if _, err := reg.Upsert(registry.Record{"ip_address": "10.0.0.1", "device_type": "relay"}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if _, err := reg.Upsert(registry.Record{"ip_address": "10.0.0.2", "device_type": "sensor"}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/devices", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var devices []map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &devices); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(devices) != 2 {
			t.Fatalf("got %d devices, want 2", len(devices))
		}
		for _, dev := range devices {
			if _, ok := dev["registered_at"]; !ok {
				t.Errorf("device %v missing registered_at", dev["ip_address"])
			}
		}
	})
}

// ─── Time Endpoint Tests ───────────────────────────────────────────

func TestTime(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	before := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/time", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	after := time.Now()

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp TimeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	parsed, err := time.Parse("2006-01-02T15:04:05.000Z", resp.ISO)
	if err != nil {
		t.Fatalf("iso field %q did not parse: %v", resp.ISO, err)
	}
	if parsed.Before(before.Add(-time.Second)) || parsed.After(after.Add(time.Second)) {
		t.Errorf("iso %v outside request window [%v, %v]", parsed, before, after)
	}

	if resp.Timestamp < before.UnixMilli() || resp.Timestamp > after.UnixMilli() {
		t.Errorf("timestamp %d outside request window", resp.Timestamp)
	}

	// Site timezone is UTC in tests, so offset must be zero.
	if resp.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", resp.Timezone)
	}
	if resp.Offset != 0 {
		t.Errorf("offset = %d, want 0 for UTC", resp.Offset)
	}
	if resp.Local == "" {
		t.Error("local field is empty")
	}
}

func TestTimeNonUTCOffset(t *testing.T) {
	srv, _ := testServer(t)
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}
	srv.location = loc
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/time", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp TimeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// New York is west of Greenwich: -300 (EST) or -240 (EDT) minutes.
	if resp.Offset != -300 && resp.Offset != -240 {
		t.Errorf("offset = %d, want -300 or -240", resp.Offset)
	}
	if resp.Timezone != "America/New_York" {
		t.Errorf("timezone = %q", resp.Timezone)
	}
}

// ─── Health and Metrics Tests ──────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, reg := testServer(t)
	router := srv.buildRouter()

	if _, err := reg.Upsert(registry.Record{"ip_address": "10.0.0.1"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Version != "test" {
		t.Errorf("version = %q, want test", resp.Version)
	}
	if resp.Devices != 1 {
		t.Errorf("devices = %d, want 1", resp.Devices)
	}
}

func TestMetrics(t *testing.T) {
	srv, reg := testServer(t)
	router := srv.buildRouter()

	if _, err := reg.Upsert(registry.Record{"ip_address": "10.0.0.1", "device_type": "relay"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var metrics SystemMetrics
	if err := json.Unmarshal(w.Body.Bytes(), &metrics); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if metrics.Version != "test" {
		t.Errorf("version = %q", metrics.Version)
	}
	if metrics.Runtime.Goroutines <= 0 {
		t.Error("goroutine count missing")
	}
	if metrics.Devices.Total != 1 {
		t.Errorf("devices.total = %d, want 1", metrics.Devices.Total)
	}
	if metrics.Devices.ByType["relay"] != 1 {
		t.Errorf("devices.by_type[relay] = %d, want 1", metrics.Devices.ByType["relay"])
	}
	// Integrations are nil in tests, so both report disabled.
	if metrics.MQTT.Enabled || metrics.InfluxDB.Enabled {
		t.Error("nil integrations must report disabled")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestIDMiddleware(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	t.Run("generates request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("no X-Request-ID header on response")
		}
	})

	t.Run("echoes client request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "client-supplied-id")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-ID"); got != "client-supplied-id" {
			t.Errorf("X-Request-ID = %q, want client-supplied-id", got)
		}
	})
}

func TestCORSMiddleware(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/device/register", nil)
		req.Header.Set("Origin", "http://dashboard.local")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
			t.Errorf("Allow-Methods = %q, want POST included", got)
		}
	})

	t.Run("no origin header, no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("disallowed origin", func(t *testing.T) {
		srv.cfg.CORS.AllowedOrigins = []string{"http://dashboard.local"}
		defer func() { srv.cfg.CORS.AllowedOrigins = nil }()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty for disallowed origin", got)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	srv, _ := testServer(t)

	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	})
	handler := srv.recoveryMiddleware(panicking)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	resp := decodeEnvelope(t, w.Body.Bytes())
	if resp.Status != StatusError {
		t.Errorf("envelope status = %q, want %q", resp.Status, StatusError)
	}
}

func TestBodySizeLimit(t *testing.T) {
	srv, reg := testServer(t)
	router := srv.buildRouter()

	// 2 MB of padding pushes the body past the 1 MB cap.
	oversized := `{"ip_address":"10.0.0.9","padding":"` + strings.Repeat("x", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/device/register", strings.NewReader(oversized))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if reg.Count() != 0 {
		t.Error("oversized body reached the registry")
	}
}

// ─── WebSocket Tests ───────────────────────────────────────────────

func TestWebSocketRegistrationEvents(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Subscribe to registration events
	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelDeviceRegistered}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	var ack WSMessage
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read subscribe ack: %v", err)
	}
	if ack.Type != WSTypeResponse || ack.ID != "sub-1" {
		t.Fatalf("ack = %+v, want response for sub-1", ack)
	}

	// Register a device over HTTP and expect the broadcast
	body := `{"ip_address":"10.0.0.42","device_name":"ws-test","device_type":"relay"}`
	resp, err := http.Post(ts.URL+"/device/register", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()

	var event WSMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != WSTypeEvent {
		t.Errorf("event type = %q, want %q", event.Type, WSTypeEvent)
	}
	if event.EventType != ChannelDeviceRegistered {
		t.Errorf("event channel = %q, want %q", event.EventType, ChannelDeviceRegistered)
	}

	payload, ok := event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T", event.Payload)
	}
	if payload["ip_address"] != "10.0.0.42" {
		t.Errorf("payload ip_address = %v", payload["ip_address"])
	}
	if _, ok := payload["registered_at"]; !ok {
		t.Error("broadcast payload missing registered_at stamp")
	}
}

func TestWebSocketPing(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "ping-1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	var pong WSMessage
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong.Type != WSTypePong || pong.ID != "ping-1" {
		t.Errorf("pong = %+v", pong)
	}
}

func TestWebSocketUnsubscribedClientGetsNothing(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the hub to register the connection before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	srv.hub.Broadcast(ChannelDeviceRegistered, map[string]any{"ip_address": "10.0.0.1"})

	if err := conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Errorf("unsubscribed client received %+v", msg)
	}
}

// ─── Server Lifecycle Tests ────────────────────────────────────────

func TestNewRequiresDependencies(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	t.Run("missing logger", func(t *testing.T) {
		_, err := New(Deps{Registry: registry.New()})
		if err == nil {
			t.Error("New() accepted nil logger")
		}
	})

	t.Run("missing registry", func(t *testing.T) {
		_, err := New(Deps{Logger: log})
		if err == nil {
			t.Error("New() accepted nil registry")
		}
	})

	t.Run("bad timezone", func(t *testing.T) {
		_, err := New(Deps{
			Logger:   log,
			Registry: registry.New(),
			Site:     config.SiteConfig{Timezone: "Mars/Olympus_Mons"},
		})
		if err == nil {
			t.Error("New() accepted unknown timezone")
		}
	})

	t.Run("empty timezone defaults to UTC", func(t *testing.T) {
		srv, err := New(Deps{Logger: log, Registry: registry.New()})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if srv.location != time.UTC {
			t.Errorf("location = %v, want UTC", srv.location)
		}
	})
}

func TestStartAndClose(t *testing.T) {
	srv, _ := testServer(t)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() after Start: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestCloseBeforeStart(t *testing.T) {
	srv, _ := testServer(t)
	if err := srv.Close(); err != nil {
		t.Errorf("Close() before Start error: %v", err)
	}
}
