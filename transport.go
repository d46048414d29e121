package yuv

import "fmt"

// PlayerHandle is the opaque control channel of a media player.
type PlayerHandle interface {
	Send(command string, args ...float64) error
}

// Transport forwards playback control to a player. It carries no state of
// its own; the player owns pause, mute, volume and position.
type Transport interface {
	Quit() error
	TogglePause() error
	ToggleMute() error
	VolumeUp() error
	VolumeDown() error
	SetVolume(v float64) error
	Seek(args ...float64) error
	SeekTo(position float64) error
	SetSpeed(v float64) error
}

// Player commands.
const (
	CommandQuit   = "quit"
	CommandPause  = "pause"
	CommandMute   = "mute"
	CommandVolume = "volume"
	CommandSeek   = "seek"
	CommandSpeed  = "speed"
)

// Volume and seek modes sent as the first argument.
const (
	volumeStepUp   = 1
	volumeStepDown = -1
	volumeAbsolute = 2
	seekAbsolute   = 0
	speedAbsolute  = 0
)

type transport struct {
	player PlayerHandle
}

// NewTransport returns a Transport sending commands to the player.
func NewTransport(player PlayerHandle) Transport {
	return &transport{player: player}
}

func (t *transport) send(command string, args ...float64) error {
	if err := t.player.Send(command, args...); err != nil {
		return fmt.Errorf("yuv: player command %s: %w", command, err)
	}
	return nil
}

func (t *transport) Quit() error        { return t.send(CommandQuit) }
func (t *transport) TogglePause() error { return t.send(CommandPause) }
func (t *transport) ToggleMute() error  { return t.send(CommandMute) }
func (t *transport) VolumeUp() error    { return t.send(CommandVolume, volumeStepUp) }
func (t *transport) VolumeDown() error  { return t.send(CommandVolume, volumeStepDown) }

func (t *transport) SetVolume(v float64) error {
	return t.send(CommandVolume, volumeAbsolute, v)
}

// Seek passes its arguments through unchanged. The player interprets them,
// typically as a relative offset in seconds.
func (t *transport) Seek(args ...float64) error {
	return t.send(CommandSeek, args...)
}

func (t *transport) SeekTo(position float64) error {
	return t.send(CommandSeek, seekAbsolute, position)
}

func (t *transport) SetSpeed(v float64) error {
	return t.send(CommandSpeed, speedAbsolute, v)
}
