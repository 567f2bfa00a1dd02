package bot

import "strings"

// Kind discriminates inbound event variants.
type Kind int

const (
	// KindText is a plain text message (including reply-keyboard presses).
	KindText Kind = iota
	// KindPhoto is a message carrying a photo.
	KindPhoto
	// KindButton is an inline button press.
	KindButton
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindButton:
		return "button"
	default:
		return "unknown"
	}
}

// Event is the closed union of inbound updates the bot models. Exactly one
// of Text, PhotoID, or Payload is meaningful, selected by Kind; transports
// may deliver many other update types, which never reach this layer.
type Event struct {
	UserID int64
	ChatID int64
	Kind   Kind

	// Text is set for KindText.
	Text string
	// PhotoID is the opaque content handle for KindPhoto.
	PhotoID string
	// Payload is the button data for KindButton.
	Payload string
}

// Inline button payload keys for the upload visibility choice. The full
// payload is "<key>:<fileID>".
const (
	PayloadPublishAll = "publish-all"
	PayloadPublishVIP = "publish-vip"
)

// ButtonPayload joins a button key and its data into the canonical
// "<key>:<data>" payload form.
func ButtonPayload(key, data string) string {
	return key + ":" + data
}

// splitPayload separates a button payload into its key and file id.
func splitPayload(payload string) (key, fileID string) {
	key, fileID, _ = strings.Cut(payload, ":")
	return key, fileID
}
