package pulse

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// fakeRunner returns canned responses keyed by the joined argument string.
type fakeRunner struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeRunner) run(_ context.Context, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if out, ok := f.responses[key]; ok {
		return []byte(out), nil
	}
	return nil, fmt.Errorf("unexpected pactl invocation: %s", key)
}

func newFakeClient(responses map[string]string, errs map[string]error) (*Client, *fakeRunner) {
	fr := &fakeRunner{responses: responses, errs: errs}
	return &Client{runner: fr}, fr
}

func TestListEndpoints(t *testing.T) {
	client, _ := newFakeClient(map[string]string{
		"--format=json list sinks": `[
			{"index":0,"name":"alsa_output.hdmi","state":"RUNNING"},
			{"index":1,"name":"alsa_output.usb","state":"IDLE"}
		]`,
	}, nil)

	names, err := client.ListEndpoints(context.Background())
	if err != nil {
		t.Fatalf("ListEndpoints: %v", err)
	}
	want := []string{"alsa_output.hdmi", "alsa_output.usb"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ListEndpoints = %v, want %v", names, want)
	}
}

func TestListEndpointsParseError(t *testing.T) {
	client, _ := newFakeClient(map[string]string{
		"--format=json list sinks": "not json",
	}, nil)

	if _, err := client.ListEndpoints(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateCombined(t *testing.T) {
	client, fr := newFakeClient(map[string]string{
		"load-module module-combine-sink sink_name=auto_combined slaves=alsa_output.hdmi,alsa_output.usb": "536870913\n",
	}, nil)

	err := client.CreateCombined(context.Background(), "auto_combined",
		[]string{"alsa_output.hdmi", "alsa_output.usb"})
	if err != nil {
		t.Fatalf("CreateCombined: %v", err)
	}
	if len(fr.calls) != 1 {
		t.Errorf("calls = %v", fr.calls)
	}
}

func TestCreateCombinedNoMembers(t *testing.T) {
	client, _ := newFakeClient(nil, nil)
	if err := client.CreateCombined(context.Background(), "auto_combined", nil); err == nil {
		t.Fatal("expected error for empty members")
	}
}

func TestDestroyCombinedUnloadsOwningModule(t *testing.T) {
	client, fr := newFakeClient(map[string]string{
		"--format=json list modules": `[
			{"index":3,"name":"module-null-sink","argument":"sink_name=auto_null"},
			{"index":17,"name":"module-combine-sink","argument":"sink_name=auto_combined slaves=a,b"},
			{"index":18,"name":"module-combine-sink","argument":"sink_name=other_combined slaves=c,d"}
		]`,
		"unload-module 17": "",
	}, nil)

	if err := client.DestroyCombined(context.Background(), "auto_combined"); err != nil {
		t.Fatalf("DestroyCombined: %v", err)
	}

	for _, call := range fr.calls {
		if call == "unload-module 18" {
			t.Error("unloaded module owning a different sink")
		}
	}
	found := false
	for _, call := range fr.calls {
		if call == "unload-module 17" {
			found = true
		}
	}
	if !found {
		t.Error("owning module was not unloaded")
	}
}

func TestDestroyCombinedNotFoundIsBenign(t *testing.T) {
	client, fr := newFakeClient(map[string]string{
		"--format=json list modules": `[]`,
	}, nil)

	if err := client.DestroyCombined(context.Background(), "auto_combined"); err != nil {
		t.Fatalf("DestroyCombined on missing sink: %v", err)
	}
	if len(fr.calls) != 1 {
		t.Errorf("unexpected extra calls: %v", fr.calls)
	}
}

func TestSetDefaultPropagatesError(t *testing.T) {
	wantErr := errors.New("No such entity")
	client, _ := newFakeClient(nil, map[string]error{
		"set-default-sink auto_combined": wantErr,
	})

	err := client.SetDefault(context.Background(), "auto_combined")
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("SetDefault error = %v, want wrapped %v", err, wantErr)
	}
}

func TestModuleArgHasSinkName(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"sink_name=auto_combined slaves=a,b", true},
		{"slaves=a,b sink_name=auto_combined", true},
		{"sink_name=auto_combined_2 slaves=a,b", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := moduleArgHasSinkName(tt.arg, "sink_name=auto_combined"); got != tt.want {
			t.Errorf("moduleArgHasSinkName(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestInfo(t *testing.T) {
	client, _ := newFakeClient(map[string]string{
		"--format=json info": `{"server_name":"PipeWire","default_sink_name":"auto_combined"}`,
	}, nil)

	info, err := client.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.DefaultSinkName != "auto_combined" {
		t.Errorf("DefaultSinkName = %q", info.DefaultSinkName)
	}
}
