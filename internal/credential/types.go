package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type Credential struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the credential is past its expiry. A zero ExpiresAt
// means the server did not say, and is treated as still valid.
func (c Credential) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}

type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

// SessionConfig is the response of the session endpoint. Only ClientSecret is
// required; everything else is informational.
type SessionConfig struct {
	ID                      string       `json:"id"`
	Object                  string       `json:"object"`
	Model                   string       `json:"model"`
	Modalities              []string     `json:"modalities"`
	Instructions            string       `json:"instructions"`
	Voice                   string       `json:"voice"`
	InputAudioFormat        string       `json:"input_audio_format"`
	OutputAudioFormat       string       `json:"output_audio_format"`
	ToolChoice              string       `json:"tool_choice"`
	Temperature             float64      `json:"temperature"`
	MaxResponseOutputTokens TokenLimit   `json:"max_response_output_tokens"`
	ClientSecret            ClientSecret `json:"client_secret"`
}

func (s *SessionConfig) Credential() Credential {
	c := Credential{Value: s.ClientSecret.Value}
	if s.ClientSecret.ExpiresAt > 0 {
		c.ExpiresAt = time.Unix(s.ClientSecret.ExpiresAt, 0)
	}
	return c
}

// TokenLimit is either a positive count or "inf".
type TokenLimit struct {
	Value    int
	Infinite bool
}

func (t *TokenLimit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = TokenLimit{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "inf" {
			*t = TokenLimit{Infinite: true}
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("token limit: %q is neither a number nor \"inf\"", s)
		}
		*t = TokenLimit{Value: n}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("token limit: %w", err)
	}
	*t = TokenLimit{Value: n}
	return nil
}

func (t TokenLimit) MarshalJSON() ([]byte, error) {
	if t.Infinite {
		return []byte(`"inf"`), nil
	}
	return json.Marshal(t.Value)
}

func (t TokenLimit) String() string {
	if t.Infinite {
		return "inf"
	}
	return strconv.Itoa(t.Value)
}

type sessionRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Instructions string `json:"instructions"`
}
