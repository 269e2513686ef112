package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smazurov/audionode/internal/api/models"
	"github.com/smazurov/audionode/internal/pulse"
	"github.com/smazurov/audionode/internal/reconciler"
	"github.com/smazurov/audionode/pkg/linuxaudio/alsa"
)

type fakeSoundServer struct {
	sinks       []pulse.Sink
	defaultSink string
}

func (f *fakeSoundServer) ListSinks(_ context.Context) ([]pulse.Sink, error) {
	return f.sinks, nil
}

func (f *fakeSoundServer) Info(_ context.Context) (pulse.ServerInfo, error) {
	return pulse.ServerInfo{ServerName: "PulseAudio (on PipeWire 1.2.0)", DefaultSinkName: f.defaultSink}, nil
}

type fakeReconciler struct {
	result *reconciler.Result
	err    error
	runs   int
}

func (f *fakeReconciler) Run(_ context.Context) (*reconciler.Result, error) {
	f.runs++
	return f.result, f.err
}

func (f *fakeReconciler) CombinedName() string { return reconciler.CombinedSinkName }

type fakeVolume struct {
	runs int
	err  error
}

func (f *fakeVolume) Run(_ context.Context) error {
	f.runs++
	return f.err
}

func newTestServer(t *testing.T, opts *Options) *httptest.Server {
	t.Helper()
	srv := NewServer(opts)
	ts := httptest.NewServer(srv.GetMux())
	t.Cleanup(ts.Close)
	return ts
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestHealthEndpoint_NoAuthRequired(t *testing.T) {
	ts := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		SoundServer:  &fakeSoundServer{},
	})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body models.HealthData
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestEndpoints_RequiresAuth(t *testing.T) {
	ts := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		SoundServer:  &fakeSoundServer{},
	})

	resp, err := http.Get(ts.URL + "/api/endpoints")
	if err != nil {
		t.Fatalf("GET /api/endpoints: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got == "" {
		t.Error("missing WWW-Authenticate header")
	}
}

func TestEndpoints_ListsSinksWithFlags(t *testing.T) {
	server := &fakeSoundServer{
		sinks: []pulse.Sink{
			{Index: 1, Name: "alsa_output.usb-one", State: "RUNNING"},
			{Index: 2, Name: "alsa_output.usb-two", State: "IDLE"},
			{Index: 3, Name: reconciler.CombinedSinkName, State: "RUNNING"},
		},
		defaultSink: reconciler.CombinedSinkName,
	}
	ts := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		SoundServer:  server,
		Reconciler:   &fakeReconciler{},
	})

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/endpoints", nil)
	req.Header.Set("Authorization", basicAuth("admin", "secret"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/endpoints: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body models.EndpointsData
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 3 {
		t.Fatalf("count = %d, want 3", body.Count)
	}
	if body.DefaultSink != reconciler.CombinedSinkName {
		t.Errorf("default sink = %q", body.DefaultSink)
	}
	if body.Endpoints[0].Synthetic {
		t.Error("real sink flagged synthetic")
	}
	if !body.Endpoints[2].Synthetic {
		t.Error("combined sink not flagged synthetic")
	}
	if !body.Endpoints[2].IsDefault {
		t.Error("default sink not flagged")
	}
}

func TestReconcileEndpoint_ReturnsResult(t *testing.T) {
	rec := &fakeReconciler{
		result: &reconciler.Result{
			Generation: 3,
			Before:     []string{"sink_a", "sink_b"},
			After:      []string{"sink_a", "sink_b", reconciler.CombinedSinkName},
			Members:    []string{"sink_a", "sink_b"},
			Combined:   true,
		},
	}
	ts := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		SoundServer:  &fakeSoundServer{},
		Reconciler:   rec,
	})

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/reconcile", nil)
	req.Header.Set("Authorization", basicAuth("admin", "secret"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/reconcile: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if rec.runs != 1 {
		t.Fatalf("reconciler ran %d times, want 1", rec.runs)
	}

	var body models.ReconcileData
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Combined || body.Generation != 3 {
		t.Errorf("unexpected result: %+v", body)
	}
}

func TestStatusEndpoint_CountsRealSinks(t *testing.T) {
	server := &fakeSoundServer{
		sinks: []pulse.Sink{
			{Index: 1, Name: "alsa_output.usb-one", State: "RUNNING"},
			{Index: 2, Name: reconciler.FallbackSinkName, State: "IDLE"},
			{Index: 3, Name: reconciler.CombinedSinkName, State: "RUNNING"},
		},
		defaultSink: reconciler.CombinedSinkName,
	}
	ts := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		SoundServer:  server,
		Reconciler:   &fakeReconciler{},
	})

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/status", nil)
	req.Header.Set("Authorization", basicAuth("admin", "secret"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()

	var body models.StatusData
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.EndpointCount != 1 {
		t.Errorf("endpoint count = %d, want 1 (reserved names excluded)", body.EndpointCount)
	}
	if !body.CombinedActive {
		t.Error("combined sink not reported active")
	}
}

func TestVolumeAdjustEndpoint(t *testing.T) {
	vol := &fakeVolume{}
	ts := newTestServer(t, &Options{
		AuthUsername:   "admin",
		AuthPassword:   "secret",
		SoundServer:    &fakeSoundServer{},
		VolumeAdjuster: vol,
	})

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/volume/adjust", nil)
	req.Header.Set("Authorization", basicAuth("admin", "secret"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/volume/adjust: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if vol.runs != 1 {
		t.Errorf("volume adjuster ran %d times, want 1", vol.runs)
	}
}

func TestCardsEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		SoundServer:  &fakeSoundServer{},
		CardLister: func() ([]alsa.Card, error) {
			return []alsa.Card{
				{Number: 0, ID: "PCH", Name: "HDA Intel PCH", Driver: "HDA-Intel"},
				{Number: 1, ID: "Device", Name: "USB Audio Device", Driver: "USB-Audio", IsUSB: true},
			}, nil
		},
	})

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/cards", nil)
	req.Header.Set("Authorization", basicAuth("admin", "secret"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/cards: %v", err)
	}
	defer resp.Body.Close()

	var body models.SoundCardsData
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if !body.Cards[1].IsUSB {
		t.Error("USB card not flagged")
	}
}

func TestQueryParamAuthFallback(t *testing.T) {
	ts := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		SoundServer:  &fakeSoundServer{defaultSink: "sink_a"},
		Reconciler:   &fakeReconciler{},
	})

	token := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	resp, err := http.Get(ts.URL + "/api/status?auth=" + token)
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
