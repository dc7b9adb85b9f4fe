package viewer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"tank-arena/internal/config"
	"tank-arena/internal/geom"
	"tank-arena/internal/sim"
)

func testConfig() config.ViewerConfig {
	return config.ViewerConfig{BroadcastRate: 1000, MaxConns: 8, MaxConnsPerIP: 4}
}

// startHub runs h behind an httptest server and returns the websocket URL.
func startHub(t *testing.T, h *Hub) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sampleFrame(tick uint64) sim.Frame {
	return sim.Frame{
		Tick: tick,
		Time: float64(tick) / 60,
		Sprites: []sim.Sprite{
			{ID: 7, Kind: sim.KindPlayer2, Position: geom.Vec3{12, 12, 0}, Yaw: 1.5, Glyph: '█', Color: "#ef4444", Accent: '▲', Size: 1, Layer: 2},
			{ID: 9, Kind: sim.KindProjectile, Position: geom.Vec3{4, 5, 0.5}, Glyph: '•', Size: 0.085, Layer: 3},
		},
	}
}

func TestEncodeFrameRoundTrip(t *testing.T) {
	data, err := EncodeFrame(sampleFrame(42))
	require.NoError(t, err)

	var msg FrameMsg
	require.NoError(t, msgpack.Unmarshal(data, &msg))
	assert.Equal(t, uint64(42), msg.Tick)
	require.Len(t, msg.Sprites, 2)
	assert.Equal(t, SpriteMsg{
		ID: 7, Kind: "player2", X: 12, Y: 12, Z: 0, Yaw: 1.5,
		Glyph: "█", Color: "#ef4444", Accent: "▲", Size: 1, Layer: 2,
	}, msg.Sprites[0])
	assert.Equal(t, "projectile", msg.Sprites[1].Kind)
	assert.Empty(t, msg.Sprites[1].Accent)
}

func TestSpectatorReceivesFrames(t *testing.T) {
	h := NewHub(testConfig(), zerolog.Nop())
	conn := dialWS(t, startHub(t, h))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for tick := uint64(1); ; tick++ {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
				h.Present(sampleFrame(tick))
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)
	var msg FrameMsg
	require.NoError(t, msgpack.Unmarshal(raw, &msg))
	assert.Positive(t, msg.Tick)
	assert.Len(t, msg.Sprites, 2)
}

func TestPresentNeverBlocks(t *testing.T) {
	h := NewHub(testConfig(), zerolog.Nop())
	for i := range 100 {
		h.Present(sampleFrame(uint64(i)))
	}
	_, dropped := h.Stats()
	assert.Equal(t, uint64(100-frameQueueSize), dropped)
}

func TestTokenRequiredWhenSecretSet(t *testing.T) {
	c := testConfig()
	c.Secret = "s3cret"
	h := NewHub(c, zerolog.Nop())
	wsURL := startHub(t, h)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	other, err := IssueToken([]byte("other"), "alice", time.Minute)
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token="+other, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := IssueToken([]byte("s3cret"), "alice", time.Minute)
	require.NoError(t, err)
	dialWS(t, wsURL+"?token="+token)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestPerIPLimit(t *testing.T) {
	c := testConfig()
	c.MaxConnsPerIP = 1
	h := NewHub(c, zerolog.Nop())
	wsURL := startHub(t, h)

	dialWS(t, wsURL)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestValidateToken(t *testing.T) {
	secret := []byte("k")
	token, err := IssueToken(secret, "bob", time.Minute)
	require.NoError(t, err)
	sub, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "bob", sub)

	expired, err := IssueToken(secret, "bob", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken(secret, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = IssueToken(nil, "bob", time.Minute)
	assert.Error(t, err)
}

func TestSpectatorURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8090/ws", SpectatorURL(":8090", ""))
	assert.Equal(t, "ws://10.0.0.2:8090/ws?token=abc", SpectatorURL("10.0.0.2:8090", "abc"))
}

func TestQRCode(t *testing.T) {
	s, err := QRCode("ws://localhost:8090/ws")
	require.NoError(t, err)
	assert.Greater(t, strings.Count(s, "\n"), 10)
}

func TestServeStopsWithContext(t *testing.T) {
	h := NewHub(testConfig(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Serve(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestConcurrentConnectsRespectLimits(t *testing.T) {
	c := testConfig()
	c.MaxConns = 3
	c.MaxConnsPerIP = 2
	h := NewHub(c, zerolog.Nop())

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ip := "10.0.0.1"
			if i%2 == 1 {
				ip = "10.0.0.2"
			}
			if h.tryConnect(ip) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), accepted.Load())
	assert.LessOrEqual(t, h.ipConns["10.0.0.1"], 2)
	assert.LessOrEqual(t, h.ipConns["10.0.0.2"], 2)

	h.trackDisconnect("10.0.0.1")
	assert.True(t, h.tryConnect("10.0.0.3"))
	assert.False(t, h.tryConnect("10.0.0.3"))
}
