package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/eleven-am/realtime-client/internal/openaiapi"
	"github.com/eleven-am/realtime-client/internal/session"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	OpenAIBaseURL string

	Model        string
	Voice        string
	Instructions string

	CredentialTimeout time.Duration
	SignalingTimeout  time.Duration

	RTCICEServers      []ICEServerConfig
	RTCPortMin         int
	RTCPortMax         int
	RTCGatherTimeout   time.Duration
	RTCIncludeLoopback bool

	EventBuffer int

	ConnectRate  float64
	ConnectBurst int
}

type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", openaiapi.DefaultBaseURL),

		Model:        getEnv("REALTIME_MODEL", session.DefaultModel),
		Voice:        getEnv("REALTIME_VOICE", session.DefaultVoice),
		Instructions: getEnv("REALTIME_INSTRUCTIONS", ""),

		CredentialTimeout: getEnvDuration("CREDENTIAL_TIMEOUT", 30*time.Second),
		SignalingTimeout:  getEnvDuration("SIGNALING_TIMEOUT", 30*time.Second),

		RTCICEServers: parseICEServers(
			getEnv("RTC_ICE_SERVERS", "stun:stun.l.google.com:19302"),
			getEnv("RTC_ICE_USERNAME", ""),
			getEnv("RTC_ICE_CREDENTIAL", ""),
		),
		RTCPortMin:         getEnvInt("RTC_PORT_MIN", 0),
		RTCPortMax:         getEnvInt("RTC_PORT_MAX", 0),
		RTCGatherTimeout:   getEnvDuration("RTC_GATHER_TIMEOUT", 10*time.Second),
		RTCIncludeLoopback: getEnv("RTC_INCLUDE_LOOPBACK", "false") == "true",

		EventBuffer: getEnvInt("EVENT_BUFFER", 64),

		ConnectRate:  getEnvFloat("CONNECT_RATE", 1),
		ConnectBurst: getEnvInt("CONNECT_BURST", 3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// parseICEServers splits a comma separated URL list. The shared username and
// credential only apply to turn: and turns: URLs.
func parseICEServers(envValue, username, credential string) []ICEServerConfig {
	fallback := []ICEServerConfig{{URLs: []string{"stun:stun.l.google.com:19302"}}}
	if envValue == "" {
		return fallback
	}

	var servers []ICEServerConfig
	for _, url := range strings.Split(envValue, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		server := ICEServerConfig{URLs: []string{url}}
		if strings.HasPrefix(url, "turn:") || strings.HasPrefix(url, "turns:") {
			server.Username = username
			server.Credential = credential
		}
		servers = append(servers, server)
	}

	if len(servers) == 0 {
		return fallback
	}
	return servers
}
