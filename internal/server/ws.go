package server

import (
	"errors"
	"net/http"
	"time"

	"grocery-sales/internal/preprocess"
	"grocery-sales/internal/record"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsReadLimit  = 64 << 10
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsWriteWait  = 10 * time.Second
)

// handlePredictWS upgrades to a websocket. Each text message is a raw JSON
// record; each reply is a prediction or an error response. A bad message
// does not close the stream.
func (s *Server) handlePredictWS(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(s.opts.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.WSConnections.Inc()
		defer s.metrics.WSConnections.Dec()
	}

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	ctx := r.Context()
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("request_id", reqID).Msg("Websocket closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		if msgType != websocket.TextMessage {
			continue
		}

		var (
			reply  any
			scored bool
		)
		recs, batch, err := record.Decode(msg)
		switch {
		case err != nil:
			reply = newErrorResponse(err, reqID)
		case batch:
			reply = newErrorResponse(errors.New("send one record per message"), reqID)
		default:
			reply, scored = s.scoreMessage(r, recs[0], reqID)
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Debug().Err(err).Msg("Websocket write failed")
			return
		}
		if scored && s.metrics != nil {
			s.metrics.WSMessagesScored.Inc()
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *Server) scoreMessage(r *http.Request, raw record.Record, reqID string) (any, bool) {
	rec := preprocess.Normalize(raw)
	s.countNormalized(1)

	value, confidence, err := s.predictor.Predict(r.Context(), rec)
	if err != nil {
		return newErrorResponse(err, reqID), false
	}
	return newPredictionResponse(value, confidence, reqID), true
}

// pingLoop keeps the connection alive. gorilla allows one concurrent writer
// plus control frames via WriteControl, so pings do not race WriteJSON.
func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
