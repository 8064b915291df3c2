package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/registry"
	"github.com/mingainspire/better-bolt/internal/relay"
	"github.com/mingainspire/better-bolt/internal/session"
	"github.com/mingainspire/better-bolt/internal/utils"
)

// WSHandler runs one chat session per WebSocket connection. The session
// controller owns history and single-flight streaming; this handler is only
// the frame transport.
type WSHandler struct {
	reg      *registry.Registry
	relay    *relay.Relay
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(reg *registry.Registry, rel *relay.Relay, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		reg:   reg,
		relay: rel,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type     string `json:"type"` // send|stop|set_provider|set_model
	Message  string `json:"message,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

type wsServerMsg struct {
	Type      string `json:"type"` // chunk|done|error|state
	Content   string `json:"content,omitempty"`
	Notice    string `json:"notice,omitempty"`
	Code      string `json:"code,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Streaming bool   `json:"streaming"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(msg wsServerMsg) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) ChatWS(c *gin.Context) {
	// Client keys are snapshotted from the cookie before the upgrade hijacks
	// the connection; after that point no cookie can be written, so a corrupt
	// record must be dropped while headers are still open.
	keys := keyStore(c, h.log)
	creds := map[string]string{}
	for _, p := range h.reg.Providers() {
		if k, ok := keys.Get(p); ok {
			creds[p] = k
		}
	}

	// The upgrader writes the handshake response itself, so any cookie drop
	// from the snapshot has to ride along as a response header.
	var respHdr http.Header
	if sc := c.Writer.Header().Values("Set-Cookie"); len(sc) > 0 {
		respHdr = http.Header{"Set-Cookie": sc}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHdr)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ctrl := session.New(ctx, h.reg, h.relay, func(provider string) (string, bool) {
		k, ok := creds[provider]
		return k, ok
	}, h.log)

	state := func() wsServerMsg {
		provider, model := ctrl.Selection()
		return wsServerMsg{
			Type:      "state",
			Provider:  provider,
			Model:     model.Name,
			Streaming: ctrl.Streaming(),
		}
	}
	_ = wc.write(state())

	sinks := session.Sinks{
		OnChunk: func(accumulated string) {
			_ = wc.write(wsServerMsg{Type: "chunk", Content: accumulated, Streaming: true})
		},
		OnDone: func(final string) {
			_ = wc.write(wsServerMsg{Type: "done", Content: final})
		},
		OnFailure: func(notice string) {
			_ = wc.write(wsServerMsg{Type: "error", Notice: notice})
		},
	}

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			ctrl.Stop()
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.write(wsServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Notice: "invalid json"})
			continue
		}

		switch msg.Type {
		case "send":
			go func(text string) {
				if serr := ctrl.Send(ctx, text, sinks); serr != nil && utils.IsCode(serr, utils.CodeInvalidArgument) {
					_ = wc.write(wsServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Notice: "message is empty"})
				}
			}(msg.Message)

		case "stop":
			ctrl.Stop()
			_ = wc.write(state())

		case "set_provider":
			if serr := ctrl.SetProvider(ctx, msg.Provider); serr != nil {
				_ = wc.write(wsServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Notice: "unknown provider"})
				continue
			}
			_ = wc.write(state())

		case "set_model":
			if serr := ctrl.SetModel(ctx, msg.Model); serr != nil {
				_ = wc.write(wsServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Notice: "invalid model selection"})
				continue
			}
			_ = wc.write(state())

		default:
			_ = wc.write(wsServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Notice: "unknown message type"})
		}
	}
}
