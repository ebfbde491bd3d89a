package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Event type discriminators as they appear in the "type" field.
const (
	TypeWarning          = "warning"
	TypeError            = "error"
	TypeAlreadyExists    = "already_exists"
	TypeLocation         = "location"
	TypeProgress         = "progress"
	TypeStartingPlaylist = "starting_playlist"
	TypePlaylistIndex    = "playlist_index"
)

// ErrUnknownEventType is returned by ParseEvent for an unrecognized "type".
var ErrUnknownEventType = errors.New("unknown event type")

// Event is one classified chunk of downloader output.
type Event interface {
	EventType() string
}

// Warning is a "WARNING:" line from the downloader.
type Warning struct {
	Message string `json:"message"`
}

// Error is an "ERROR:" line from the downloader.
type Error struct {
	Message string `json:"message"`
}

// AlreadyExists reports that the target file was downloaded before.
type AlreadyExists struct{}

// Location is the destination path of the current download.
type Location struct {
	Location string `json:"location"`
}

// Progress is a fragment progress line. All fields are the raw captured text.
type Progress struct {
	Percent   string `json:"percent"`
	TotalSize string `json:"total_size"`
	Speed     string `json:"speed"`
	ETA       string `json:"eta"`
}

// StartingPlaylist announces a playlist download.
type StartingPlaylist struct {
	PlaylistName string `json:"playlist_name"`
}

// PlaylistIndex is the position of the current item within a playlist.
type PlaylistIndex struct {
	Index      string `json:"index"`
	TotalIndex string `json:"total_index"`
}

func (Warning) EventType() string          { return TypeWarning }
func (Error) EventType() string            { return TypeError }
func (AlreadyExists) EventType() string    { return TypeAlreadyExists }
func (Location) EventType() string         { return TypeLocation }
func (Progress) EventType() string         { return TypeProgress }
func (StartingPlaylist) EventType() string { return TypeStartingPlaylist }
func (PlaylistIndex) EventType() string    { return TypePlaylistIndex }

// The plain* conversions drop the MarshalJSON method so the field set can be
// encoded without recursion.

func (e Warning) MarshalJSON() ([]byte, error) {
	type plain Warning
	return marshalTagged(e, plain(e))
}

func (e Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return marshalTagged(e, plain(e))
}

func (e AlreadyExists) MarshalJSON() ([]byte, error) {
	type plain AlreadyExists
	return marshalTagged(e, plain(e))
}

func (e Location) MarshalJSON() ([]byte, error) {
	type plain Location
	return marshalTagged(e, plain(e))
}

func (e Progress) MarshalJSON() ([]byte, error) {
	type plain Progress
	return marshalTagged(e, plain(e))
}

func (e StartingPlaylist) MarshalJSON() ([]byte, error) {
	type plain StartingPlaylist
	return marshalTagged(e, plain(e))
}

func (e PlaylistIndex) MarshalJSON() ([]byte, error) {
	type plain PlaylistIndex
	return marshalTagged(e, plain(e))
}

// marshalTagged encodes fields as a JSON object with the event's "type" key
// spliced in first.
func marshalTagged(e Event, fields any) ([]byte, error) {
	body, err := marshalRaw(fields)
	if err != nil {
		return nil, err
	}
	typ, err := marshalRaw(e.EventType())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(typ) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// marshalRaw encodes v as JSON without HTML escaping and without the
// encoder's trailing newline.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ParseEvent decodes one serialized event.
func ParseEvent(data []byte) (Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}

	var (
		ev  Event
		err error
	)
	switch probe.Type {
	case TypeWarning:
		var v Warning
		err = json.Unmarshal(data, &v)
		ev = v
	case TypeError:
		var v Error
		err = json.Unmarshal(data, &v)
		ev = v
	case TypeAlreadyExists:
		ev = AlreadyExists{}
	case TypeLocation:
		var v Location
		err = json.Unmarshal(data, &v)
		ev = v
	case TypeProgress:
		var v Progress
		err = json.Unmarshal(data, &v)
		ev = v
	case TypeStartingPlaylist:
		var v StartingPlaylist
		err = json.Unmarshal(data, &v)
		ev = v
	case TypePlaylistIndex:
		var v PlaylistIndex
		err = json.Unmarshal(data, &v)
		ev = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, probe.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", probe.Type, err)
	}
	return ev, nil
}
