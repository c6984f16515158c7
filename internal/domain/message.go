package domain

import "time"

// InboundMessage is a text message received from a chat transport.
type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	Content   string
	Timestamp time.Time
}

// OutboundMessage is a reply addressed to one recipient on one channel.
// It is consumed exactly once by the channel's outbound handler.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
}
