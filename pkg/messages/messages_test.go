package messages

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage([]byte("temperature: 21.5"))
	if msg.MessageID == "" {
		t.Error("expected a generated message ID")
	}
	other := NewMessage(nil)
	if msg.MessageID == other.MessageID {
		t.Error("message IDs must be unique")
	}
}

func TestMessageWithProperty(t *testing.T) {
	msg := (&Message{}).WithProperty("region", "eu-west").WithProperty("severity", "low")
	if msg.Properties["region"] != "eu-west" || msg.Properties["severity"] != "low" {
		t.Errorf("unexpected properties: %v", msg.Properties)
	}
}

func TestMessageIsExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"no expiry", time.Time{}, false},
		{"future expiry", now.Add(time.Minute), false},
		{"past expiry", now.Add(-time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &Message{ExpiresAt: tt.expires}
			if got := msg.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTwinCollectionJSON(t *testing.T) {
	raw := []byte(`{"$version":7,"telemetryInterval":30,"thresholds":{"high":80}}`)

	var tc TwinCollection
	if err := json.Unmarshal(raw, &tc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tc.Version != 7 {
		t.Errorf("version = %d, want 7", tc.Version)
	}
	if _, ok := tc.Get("$version"); ok {
		t.Error("$version must not appear among values")
	}
	if v, _ := tc.Get("telemetryInterval"); v != float64(30) {
		t.Errorf("telemetryInterval = %v", v)
	}
	thresholds, ok := tc.Get("thresholds")
	if !ok {
		t.Fatal("missing nested object")
	}
	if m, ok := thresholds.(map[string]interface{}); !ok || m["high"] != float64(80) {
		t.Errorf("nested object = %v", thresholds)
	}

	out, err := json.Marshal(&tc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var round map[string]interface{}
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if round["$version"] != float64(7) {
		t.Errorf("marshal dropped $version: %v", round)
	}
}

func TestTwinCollectionSet(t *testing.T) {
	var tc TwinCollection // zero value, no Values map yet
	tc.Set("mode", "eco")
	if v, ok := tc.Get("mode"); !ok || v != "eco" {
		t.Errorf("Set on zero value failed: %v", tc.Values)
	}
	if tc.Len() != 1 {
		t.Errorf("Len = %d, want 1", tc.Len())
	}
}

func TestNewTwin(t *testing.T) {
	twin := NewTwin("dev1")
	if twin.DeviceID != "dev1" {
		t.Errorf("device ID = %q", twin.DeviceID)
	}
	if twin.Properties.Desired == nil || twin.Properties.Reported == nil {
		t.Error("expected initialized property collections")
	}
}

func TestMethodResponseCorrelation(t *testing.T) {
	req := NewMethodRequest("reboot", []byte(`{"delay":5}`))
	if req.RequestID == "" {
		t.Fatal("expected a generated request ID")
	}
	resp := NewMethodResponse(req, 200, []byte(`{"ok":true}`))
	if resp.RequestID != req.RequestID {
		t.Errorf("response not correlated: %q vs %q", resp.RequestID, req.RequestID)
	}
	if resp.Status != 200 {
		t.Errorf("status = %d", resp.Status)
	}
}
