package core

// Client is the channel-backed handle the room uses to reach one connected
// session. The transport drains Events; the room never blocks on a slow one.
type Client struct {
	Events chan *Event
}

// NewClient constructs a client with a buffered event channel.
func NewClient() *Client {
	return &Client{Events: make(chan *Event, 32)}
}

func (c *Client) push(ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}
