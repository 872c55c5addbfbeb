package websocket

import "github.com/rs/zerolog/log"

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Messages for every client.
	Broadcast chan []byte

	// Messages for the clients subscribed to one guild.
	guildcast chan guildMessage

	// Messages for a single client.
	direct chan directMessage

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of guild IDs to a set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool

	done chan struct{}
}

type guildMessage struct {
	guildID string
	data    []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte),
		guildcast:     make(chan guildMessage),
		direct:        make(chan directMessage),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			if client.GuildID != "" {
				h.addSubscription(client, client.GuildID)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				h.send(client, message)
			}
		case msg := <-h.guildcast:
			for client := range h.subscriptions[msg.guildID] {
				h.send(client, msg.data)
			}
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.send(msg.client, msg.data)
			}
		}
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Join registers a client unless the hub has stopped.
func (h *Hub) Join(client *Client) {
	select {
	case h.Register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Leave unregisters a client unless the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Reply sends a message to one registered client.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.direct <- directMessage{client: client, data: message}:
	case <-h.done:
	}
}

// BroadcastTo sends a message to all clients subscribed to a specific guild ID.
func (h *Hub) BroadcastTo(guildID string, message []byte) {
	select {
	case h.guildcast <- guildMessage{guildID: guildID, data: message}:
	case <-h.done:
	}
}

// Publish sends a message to every client unless the hub has stopped.
func (h *Hub) Publish(message []byte) {
	select {
	case h.Broadcast <- message:
	case <-h.done:
	}
}

// send drops clients whose buffer is full.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client, guildID string) {
	if h.subscriptions[guildID] == nil {
		h.subscriptions[guildID] = make(map[*Client]bool)
	}
	h.subscriptions[guildID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for guildID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, guildID)
			}
		}
	}
}
