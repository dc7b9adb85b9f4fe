package viewer

import (
	"github.com/vmihailenco/msgpack/v5"

	"tank-arena/internal/sim"
)

// FrameMsg is one presented frame as sent to spectators, msgpack-encoded in
// a binary websocket message.
type FrameMsg struct {
	Tick    uint64      `msgpack:"t"`
	Time    float64     `msgpack:"s"`
	Sprites []SpriteMsg `msgpack:"e"`
}

// SpriteMsg is the wire form of sim.Sprite.
type SpriteMsg struct {
	ID     uint64  `msgpack:"id"`
	Kind   string  `msgpack:"k"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Z      float64 `msgpack:"z"`
	Yaw    float64 `msgpack:"r"`
	Glyph  string  `msgpack:"g"`
	Color  string  `msgpack:"c"`
	Accent string  `msgpack:"a,omitempty"`
	Size   float64 `msgpack:"sz"`
	Layer  int     `msgpack:"l"`
}

// ToFrameMsg converts a frame to its wire form.
func ToFrameMsg(f sim.Frame) FrameMsg {
	msg := FrameMsg{
		Tick:    f.Tick,
		Time:    f.Time,
		Sprites: make([]SpriteMsg, 0, len(f.Sprites)),
	}
	for _, s := range f.Sprites {
		sm := SpriteMsg{
			ID:    uint64(s.ID),
			Kind:  s.Kind.String(),
			X:     s.Position.X(),
			Y:     s.Position.Y(),
			Z:     s.Position.Z(),
			Yaw:   s.Yaw,
			Color: s.Color,
			Size:  s.Size,
			Layer: s.Layer,
		}
		if s.Glyph != 0 {
			sm.Glyph = string(s.Glyph)
		}
		if s.Accent != 0 {
			sm.Accent = string(s.Accent)
		}
		msg.Sprites = append(msg.Sprites, sm)
	}
	return msg
}

// EncodeFrame returns the binary payload for f.
func EncodeFrame(f sim.Frame) ([]byte, error) {
	return msgpack.Marshal(ToFrameMsg(f))
}
