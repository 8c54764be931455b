// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/middleware"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Service is the subset of the assembly service reachable over the socket
type Service interface {
	CalculateQuorum(ctx context.Context, p auth.Principal, assemblyID string) (*models.QuorumResult, error)
	RegisterAttendance(ctx context.Context, p auth.Principal, assemblyID string, req models.RegisterAttendanceRequest, ipHash *string) (*models.AttendanceResponse, error)
	CastVote(ctx context.Context, p auth.Principal, voteID string, req models.CastVoteRequest, ipHash *string) (*models.CastVoteResponse, error)
}

// Gateway upgrades authenticated requests to WebSocket connections and
// dispatches client events to the service
type Gateway struct {
	hub      *Hub
	svc      Service
	secret   string
	salt     string
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewGateway(hub *Hub, svc Service, jwtSecret, ipHashSalt string, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		hub:    hub,
		svc:    svc,
		secret: jwtSecret,
		salt:   ipHashSalt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are not restricted; the bearer token authenticates the caller
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// inbound is a client frame; Data is decoded per event
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := middleware.Authenticate(r, g.secret)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid or missing bearer token")
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		g.log.Warn("websocket upgrade failed", "user_id", p.UserID, "error", err)
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), g.salt)
	c := NewClient(p)
	g.hub.Register(c)
	g.log.Info("websocket connected", "client_id", c.ID, "user_id", p.UserID, "tenant_id", p.TenantID)

	go g.writePump(conn, c)
	g.readPump(conn, c, ipHash)
}

func (g *Gateway) readPump(conn *websocket.Conn, c *Client, ipHash string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		g.hub.Unregister(c)
		conn.Close()
		g.log.Info("websocket disconnected", "client_id", c.ID, "user_id", c.Principal.UserID)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warn("websocket read failed", "client_id", c.ID, "error", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			g.sendError(c, "Invalid message")
			continue
		}
		g.dispatch(ctx, c, msg, ipHash)
	}
}

func (g *Gateway) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, c *Client, msg inbound, ipHash string) {
	switch msg.Event {
	case models.EventJoinAssembly:
		var in models.JoinAssemblyMessage
		if err := json.Unmarshal(msg.Data, &in); err != nil || in.AssemblyID == "" {
			g.sendError(c, "assemblyId is required")
			return
		}
		q, err := g.svc.CalculateQuorum(ctx, c.Principal, in.AssemblyID)
		if err != nil {
			g.sendServiceError(c, err)
			return
		}
		g.hub.Join(c, in.AssemblyID)
		g.hub.SendToClient(c.ID, models.Event{Event: models.EventQuorumUpdate, Data: q})

	case models.EventLeaveAssembly:
		var in models.JoinAssemblyMessage
		if err := json.Unmarshal(msg.Data, &in); err != nil || in.AssemblyID == "" {
			g.sendError(c, "assemblyId is required")
			return
		}
		g.hub.Leave(c, in.AssemblyID)

	case models.EventRegisterAttendance:
		var in models.RegisterAttendanceMessage
		if err := json.Unmarshal(msg.Data, &in); err != nil || in.AssemblyID == "" {
			g.sendError(c, "assemblyId is required")
			return
		}
		resp, err := g.svc.RegisterAttendance(ctx, c.Principal, in.AssemblyID, models.RegisterAttendanceRequest{UnitID: in.UnitID}, &ipHash)
		if err != nil {
			g.sendServiceError(c, err)
			return
		}
		// The room broadcast went out before this client was subscribed
		if g.hub.Join(c, in.AssemblyID) {
			g.hub.SendToClient(c.ID, models.Event{Event: models.EventQuorumUpdate, Data: resp.Quorum})
		}

	case models.EventSubmitVote:
		var in models.SubmitVoteMessage
		if err := json.Unmarshal(msg.Data, &in); err != nil || in.VoteID == "" {
			g.sendError(c, "voteId is required")
			return
		}
		if _, err := g.svc.CastVote(ctx, c.Principal, in.VoteID, models.CastVoteRequest{UnitID: in.UnitID, Option: in.Option}, &ipHash); err != nil {
			g.sendServiceError(c, err)
		}

	default:
		g.sendError(c, "Unknown event: "+msg.Event)
	}
}

func (g *Gateway) sendServiceError(c *Client, err error) {
	if service.IsDomainError(err) {
		g.sendError(c, err.Error())
		return
	}
	g.sendError(c, "Internal error")
}

func (g *Gateway) sendError(c *Client, message string) {
	g.hub.SendToClient(c.ID, models.Event{Event: models.EventError, Data: models.ErrorMessage{Message: message}})
}
