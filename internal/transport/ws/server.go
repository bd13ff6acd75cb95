package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	validator *protocol.Validator
	upgrader  websocket.Upgrader

	// JoinTimeout bounds the wait for the world to answer a HELLO. A world
	// that is not stepping never drains its join queue.
	JoinTimeout time.Duration
}

const defaultJoinTimeout = 5 * time.Second

// NewServer builds the agent endpoint. validator may be nil, in which case
// messages are only checked by decoding.
func NewServer(w *world.World, logger *log.Logger, validator *protocol.Validator) *Server {
	return &Server{
		world:       w,
		log:         logger,
		validator:   validator,
		JoinTimeout: defaultJoinTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(r.Context(), conn)
		if sessionID == "" {
			return
		}
		if s.log != nil {
			s.log.Printf("agent joined session=%s", sessionID)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Replies from the reader (ERROR messages) share the writer with OBS.
		replies := make(chan []byte, 8)

		// Writer goroutine.
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-replies:
				case msg, ok := <-out:
					if !ok {
						return
					}
					b = msg
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			act, code, detail := s.decodeAct(msg)
			if code != "" {
				if b, err := json.Marshal(errorMsg(code, detail)); err == nil {
					select {
					case replies <- b:
					default:
					}
				}
				continue
			}
			select {
			case s.world.Inbox() <- world.ActionEnvelope{SessionID: sessionID, Act: act}:
			default:
				// Inbox full: the slot falls back to its policy this tick.
			}
		}

		// Cleanup.
		s.leave(sessionID)
		if s.log != nil {
			s.log.Printf("agent left session=%s", sessionID)
		}
	}
}

// decodeAct parses one client message. A non-empty code means the message
// was rejected and should be answered with ERROR.
func (s *Server) decodeAct(msg []byte) (protocol.ActMsg, string, string) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.ActMsg{}, protocol.ErrProtoBadRequest, "invalid json"
	}
	if base.Type != protocol.TypeAct {
		return protocol.ActMsg{}, protocol.ErrProtoBadRequest, "expected ACT"
	}
	if base.ProtocolVersion != protocol.Version {
		return protocol.ActMsg{}, protocol.ErrProtoVersion, "bad protocol_version"
	}
	if s.validator != nil {
		if err := s.validator.Validate(protocol.TypeAct, msg); err != nil {
			return protocol.ActMsg{}, protocol.ErrBadAction, err.Error()
		}
	}
	var act protocol.ActMsg
	if err := json.Unmarshal(msg, &act); err != nil {
		return protocol.ActMsg{}, protocol.ErrBadAction, err.Error()
	}
	return act, "", ""
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		s.refuse(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return "", nil
	}
	if base.ProtocolVersion != protocol.Version {
		s.refuse(conn, protocol.ErrProtoVersion, "bad protocol_version")
		return "", nil
	}
	if s.validator != nil {
		if err := s.validator.Validate(protocol.TypeHello, msg); err != nil {
			s.refuse(conn, protocol.ErrBadSlot, err.Error())
			return "", nil
		}
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		s.refuse(conn, protocol.ErrProtoBadRequest, "bad HELLO")
		return "", nil
	}
	hello.AgentName = strings.TrimSpace(hello.AgentName)
	if hello.AgentName == "" {
		hello.AgentName = "agent"
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan world.JoinResponse, 1)
	select {
	case s.world.Join() <- world.JoinRequest{
		Name: hello.AgentName,
		Slot: world.Slot{Team: world.Team(hello.Team), Index: hello.Index},
		Out:  out,
		Resp: respCh,
	}:
	default:
		s.refuse(conn, protocol.ErrMatchBusy, "server busy")
		return "", nil
	}
	timeout := s.JoinTimeout
	if timeout <= 0 {
		timeout = defaultJoinTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var resp world.JoinResponse
	select {
	case resp = <-respCh:
	case <-ctx.Done():
		go s.dropLateJoin(respCh, timeout)
		return "", nil
	case <-timer.C:
		go s.dropLateJoin(respCh, timeout)
		s.refuse(conn, protocol.ErrMatchBusy, "join timed out")
		return "", nil
	}
	if resp.Code != "" {
		s.refuse(conn, resp.Code, "join refused")
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.leave(resp.Welcome.SessionID)
		return "", nil
	}
	return resp.Welcome.SessionID, out
}

// dropLateJoin releases a slot the world granted after the client gave up.
// It waits at most a few join timeouts; a world that stopped stepping
// never answers.
func (s *Server) dropLateJoin(respCh <-chan world.JoinResponse, timeout time.Duration) {
	select {
	case resp := <-respCh:
		if resp.Code == "" && resp.Welcome.SessionID != "" {
			s.leave(resp.Welcome.SessionID)
		}
	case <-time.After(4 * timeout):
	}
}

func (s *Server) leave(sessionID string) {
	select {
	case s.world.Leave() <- sessionID:
	case <-time.After(defaultJoinTimeout):
		if s.log != nil {
			s.log.Printf("leave dropped session=%s", sessionID)
		}
	}
}

// refuse sends ERROR and closes the connection.
func (s *Server) refuse(conn *websocket.Conn, code, detail string) {
	_ = writeJSON(conn, errorMsg(code, detail))
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code), time.Now().Add(time.Second))
}

func errorMsg(code, detail string) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         detail,
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
