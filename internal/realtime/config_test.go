package realtime

import (
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}
	if cfg.ICEServers != nil {
		t.Error("ICEServers should be nil by default")
	}
	if cfg.GatherTimeout != 0 {
		t.Error("GatherTimeout should be 0 by default")
	}
}

func TestICEServerConfig(t *testing.T) {
	ice := ICEServerConfig{
		URLs:       []string{"stun:stun.l.google.com:19302"},
		Username:   "user",
		Credential: "pass",
	}
	if len(ice.URLs) != 1 {
		t.Errorf("expected 1 URL, got %d", len(ice.URLs))
	}
	if ice.Username != "user" {
		t.Errorf("expected username 'user', got %s", ice.Username)
	}
	if ice.Credential != "pass" {
		t.Errorf("expected credential 'pass', got %s", ice.Credential)
	}
}

func TestDataChannelLabel(t *testing.T) {
	if DataChannelLabel != "oai-events" {
		t.Errorf("expected data channel label 'oai-events', got %s", DataChannelLabel)
	}
}
