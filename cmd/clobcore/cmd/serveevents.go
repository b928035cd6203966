package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/eventqueue"
)

// upgrader mirrors the teacher's websocket.Upgrader: generous buffers, no
// origin checking since this demo never leaves localhost.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const eventPollInterval = 250 * time.Millisecond

// wireEvent is the JSON projection pushed to connected clients. It exists
// only as a stable demo wire format; the trie/event-queue wire layout
// documented in eventqueue/layout.go stays binary.
type wireEvent struct {
	Kind      string `json:"kind"`
	Side      string `json:"side,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	BaseSize  uint64 `json:"base_size,omitempty"`
	QuoteSize uint64 `json:"quote_size,omitempty"`
	Delete    bool   `json:"delete,omitempty"`
}

func toWireEvent(ev eventqueue.Event) wireEvent {
	switch ev.Tag {
	case eventqueue.EventFill:
		f := ev.Fill
		return wireEvent{
			Kind:      "fill",
			Side:      clobtypes.Side(f.TakerSide).String(),
			OrderID:   fmt.Sprintf("%d:%d", f.MakerOrderID.Hi, f.MakerOrderID.Lo),
			BaseSize:  f.BaseSize,
			QuoteSize: f.QuoteSize,
		}
	default:
		o := ev.Out
		return wireEvent{
			Kind:     "out",
			Side:     clobtypes.Side(o.Side).String(),
			OrderID:  fmt.Sprintf("%d:%d", o.OrderID.Hi, o.OrderID.Lo),
			BaseSize: o.BaseSize,
			Delete:   o.Delete,
		}
	}
}

// newServeEventsCmd runs a tiny websocket server that polls this demo
// market's events.bin off disk and streams newly-appended Fill/Out events
// to every connected client, in pushed order. It stands in for a host
// event subscriber: a real host reads the same queue out of shared memory
// instead of a polled file, but the peek_at semantics this exercises are
// identical. It only reads the queue; it never consumes events.
func newServeEventsCmd(logger log.Logger) *cobra.Command {
	var addr string

	c := &cobra.Command{
		Use:   "serve-events",
		Short: "stream newly pushed Fill/Out events over a websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")

			hub := newEventHub(logger)
			go hub.run()
			go hub.pollLoop(dataDir)

			mux := http.NewServeMux()
			mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
				conn, err := upgrader.Upgrade(w, r, nil)
				if err != nil {
					logger.Error("websocket upgrade failed", "err", err)
					return
				}
				hub.register(conn)
			})

			logger.Info("serving events", "addr", addr, "data_dir", dataDir)
			fmt.Fprintf(cmd.OutOrStdout(), "listening on ws://%s/events\n", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
	c.Flags().StringVar(&addr, "addr", "127.0.0.1:8089", "address to listen on")
	return c
}

// eventHub fans out newly observed events to every connected websocket
// client. It has no subscription channels, unlike the teacher's Hub: this
// demo has exactly one topic.
type eventHub struct {
	logger     log.Logger
	clients    map[*websocket.Conn]chan []byte
	registerCh chan *websocket.Conn
	broadcast  chan []byte
}

func newEventHub(logger log.Logger) *eventHub {
	return &eventHub{
		logger:     logger,
		clients:    make(map[*websocket.Conn]chan []byte),
		registerCh: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 256),
	}
}

func (h *eventHub) register(conn *websocket.Conn) {
	h.registerCh <- conn
}

func (h *eventHub) run() {
	for {
		select {
		case conn := <-h.registerCh:
			send := make(chan []byte, 64)
			h.clients[conn] = send
			go h.writePump(conn, send)
		case msg := <-h.broadcast:
			for _, send := range h.clients {
				select {
				case send <- msg:
				default:
				}
			}
		}
	}
}

func (h *eventHub) writePump(conn *websocket.Conn, send chan []byte) {
	defer func() {
		delete(h.clients, conn)
		conn.Close()
	}()
	for msg := range send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// pollLoop rereads events.bin on a fixed interval and broadcasts any
// events not seen on a prior poll, identified by event kind plus order id.
// order bounds memory by dropping the oldest keys once it grows past four
// times the demo queue capacity.
func (h *eventHub) pollLoop(dataDir string) {
	seen := make(map[string]bool)
	var order []string

	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		_, eventsBuf, _, _, err := marketBuffers(dataDir)
		if err != nil {
			h.logger.Error("serve-events: read buffers", "err", err)
			continue
		}
		eq, err := eventqueue.FromBuffer(eventsBuf, demoCallbackInfoLen)
		if err != nil {
			continue
		}

		eq.Iterate(func(i uint64, ev eventqueue.Event, ownerInfo, takerInfo []byte) bool {
			we := toWireEvent(ev)
			key := we.Kind + we.OrderID
			if seen[key] {
				return true
			}
			seen[key] = true
			order = append(order, key)
			if len(order) > 4*demoEventCap {
				drop := order[0]
				order = order[1:]
				delete(seen, drop)
			}

			payload, err := json.Marshal(we)
			if err != nil {
				return true
			}
			select {
			case h.broadcast <- payload:
			default:
			}
			return true
		})
	}
}
