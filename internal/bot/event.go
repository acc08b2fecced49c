// Package bot implements the route weather conversation: it turns inbound chat
// events into session transitions and, once a route is complete, fans out the
// forecast requests and assembles the replies.
package bot

import "context"

// EventKind tells what the user sent.
type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventText
	EventLocation
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventLocation:
		return "location"
	case EventButton:
		return "button"
	default:
		return "unknown"
	}
}

// Commands understood by the engine.
const (
	CommandStart   = "start"
	CommandHelp    = "help"
	CommandWeather = "weather"
	CommandCancel  = "cancel"
)

// Button tokens.
const (
	ButtonYes = "yes"
	ButtonNo  = "no"
)

// Event is one inbound message from a user.
type Event struct {
	Kind   EventKind
	UserID int64
	ChatID int64

	// Text is the command name without the slash, the message text or the
	// button token, depending on Kind.
	Text string

	Lat float64
	Lon float64
}

// ReplyKind tells how a reply is delivered.
type ReplyKind int

const (
	ReplyText ReplyKind = iota + 1
	ReplyImage
)

// Keyboard selects the markup attached to a reply.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	// KeyboardLocation offers a "share location" button.
	KeyboardLocation
	// KeyboardConfirm offers yes/no buttons.
	KeyboardConfirm
	// KeyboardDays offers 1, 3 and 5 day buttons.
	KeyboardDays
	// KeyboardRemove hides any reply keyboard.
	KeyboardRemove
)

// Reply is one outbound message. Text is MarkdownV2 and already escaped; for
// images it is the caption.
type Reply struct {
	Kind      ReplyKind
	Text      string
	ImagePath string
	Keyboard  Keyboard
}

func textReply(text string, kb Keyboard) Reply {
	return Reply{Kind: ReplyText, Text: text, Keyboard: kb}
}

func imageReply(path, caption string) Reply {
	return Reply{Kind: ReplyImage, ImagePath: path, Text: caption}
}

// Messenger delivers replies to a chat.
type Messenger interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
}
