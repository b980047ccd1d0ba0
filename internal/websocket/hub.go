package websocket

import (
	"context"
	"encoding/json"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "companion_events"

type clusterEnvelope struct {
	Origin  string          `json:"origin"`
	Subject string          `json:"subject"`
	Message json.RawMessage `json:"message"`
}

// Hub fans new companions out to websocket clients. Each client watches one
// subject, or the sentinel for every subject.
type Hub struct {
	// subject filter -> clients
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	count      chan countRequest
	done       chan struct{}

	sentinel string
	origin   string

	// Redis connection for cross-instance communication
	rdb *redis.Client

	logger logger.ILogger
}

type delivery struct {
	subject string
	data    []byte
}

type countRequest struct {
	subject string
	reply   chan int
}

func NewHub(rdb *redis.Client, sentinel string, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 64),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
		sentinel:   sentinel,
		origin:     uuid.NewString(),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns the client map until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.Send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			return

		case client := <-h.register:
			set, ok := h.clients[client.Subject]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.Subject] = set
			}
			set[client] = struct{}{}
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"subject": client.Subject})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.fanOut(d)

		case req := <-h.count:
			req.reply <- len(h.clients[req.subject])
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.Subject]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.Subject)
	}
	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"subject": client.Subject})
}

// fanOut runs on the Run goroutine only.
func (h *Hub) fanOut(d delivery) {
	targets := []string{h.sentinel}
	if d.subject != h.sentinel {
		targets = append(targets, d.subject)
	}
	for _, subject := range targets {
		for client := range h.clients[subject] {
			select {
			case client.Send <- d.data:
			default:
				h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"subject": subject})
				h.remove(client)
			}
		}
	}
}

// BroadcastCompanion delivers a newly created companion locally and to
// other instances through Redis.
func (h *Hub) BroadcastCompanion(companion *dto.CompanionResponse) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "companion_created",
		"data": companion,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode companion", map[string]interface{}{"error": err.Error()})
		return
	}

	h.send(delivery{subject: companion.Subject, data: data})

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterEnvelope{
			Origin:  h.origin,
			Subject: companion.Subject,
			Message: data,
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports how many clients watch subject.
func (h *Hub) ClientCount(subject string) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countRequest{subject: subject, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) send(d delivery) {
	select {
	case h.deliver <- d:
	case <-h.done:
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			// our own broadcasts were already delivered locally
			if env.Origin == h.origin {
				continue
			}
			h.send(delivery{subject: env.Subject, data: env.Message})
		}
	}
}
