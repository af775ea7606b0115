package realtime

import (
	"log/slog"
	"time"
)

// DataChannelLabel is the channel the realtime API expects for JSON events.
const DataChannelLabel = "oai-events"

type Config struct {
	ICEServers    []ICEServerConfig
	PortRange     PortRange
	BufferSizes   BufferSizes
	GatherTimeout time.Duration
	// IncludeLoopback gathers 127.0.0.1 candidates, for hosts whose only
	// interface is loopback.
	IncludeLoopback bool
	// Logger receives pion's internal logs. Nil keeps pion's own stderr logger.
	Logger *slog.Logger
}

type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}

type PortRange struct {
	Min int
	Max int
}

type BufferSizes struct {
	Events int
}
