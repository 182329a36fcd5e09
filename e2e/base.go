package e2e

import (
	"bytes"
	"direct-chat/domain/event"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("CHAT_SERVER_ADDR is not set")
	}
	s.client = &http.Client{Timeout: 5 * time.Second}
}

// Step prints a colorized header for a scenario step
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call performs a JSON request against the API and decodes the response into out.
func (s *BaseSuite) Call(method, path, token string, in, out any) int {
	var body io.Reader
	var raw []byte
	if in != nil {
		var err error
		raw, err = json.Marshal(in)
		s.Require().NoError(err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, "http://"+s.Config.ServerAddr+path, body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.T().Logf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		s.T().Logf("REQUEST: %s\nRESPONSE: %s", raw, respBody)
	}
	if out != nil && len(respBody) > 0 {
		s.Require().NoError(json.Unmarshal(respBody, out))
	}
	return resp.StatusCode
}

// Connect opens the push channel of the user owning token.
func (s *BaseSuite) Connect(token string) *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws",
		RawQuery: url.Values{"token": {token}}.Encode()}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "Failed to connect to "+u.String())
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

type Frame struct {
	Type    event.Kind      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WaitFor reads frames until one of the wanted kind matches, or fails after timeout.
func (s *BaseSuite) WaitFor(conn *websocket.Conn, kind event.Kind, timeout time.Duration, match func(json.RawMessage) bool) {
	deadline := time.Now().Add(timeout)
	for {
		s.Require().NoError(conn.SetReadDeadline(deadline))
		var frame Frame
		s.Require().NoError(conn.ReadJSON(&frame), "no %s frame received", kind)
		if frame.Type == kind && match(frame.Payload) {
			return
		}
	}
}
