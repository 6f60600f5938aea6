// Package server exposes the game over a small HTTP API so a remote
// front-end can play against the trained agent. One session per game,
// identified by a uuid; the agent replies within the same request.
package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hilaryKChen/q-learning-tic-tac-toe/policies"
	"github.com/hilaryKChen/q-learning-tic-tac-toe/tictactoe"
)

// AgentFactory builds the agent policy for a session's non-human seat.
type AgentFactory func(marker tictactoe.Cell) policies.Policy

type session struct {
	// serializes move handling, one request per game at a time
	mu    sync.Mutex
	board *tictactoe.Board
	agent policies.Policy
	human tictactoe.Cell
	state tictactoe.State
	info  tictactoe.Info
	over  bool
	// winner from the first seat's perspective once over
	outcome int
}

// Server owns the sessions and the HTTP routing.
type Server struct {
	log        *logrus.Logger
	newAgent   AgentFactory
	rows       int
	cols       int
	winLen     int
	lock       sync.Mutex
	sessions   map[string]*session
	httpServer *http.Server
}

func New(addr string, rows, cols, winLen int, newAgent AgentFactory, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{
		log:      log,
		newAgent: newAgent,
		rows:     rows,
		cols:     cols,
		winLen:   winLen,
		sessions: make(map[string]*session),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.POST("/games", s.handleNewGame)
	r.POST("/games/:id/moves", s.handleMove)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("serving tic-tac-toe api")
	return s.httpServer.ListenAndServe()
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type newGameRequest struct {
	// Seat of the human player, 1 or 2. Defaults to 1.
	Seat int `json:"seat"`
}

type gameResponse struct {
	ID           string               `json:"id"`
	Cells        []int8               `json:"cells"`
	Rows         int                  `json:"rows"`
	Cols         int                  `json:"cols"`
	OnMove       int                  `json:"onMove"`
	Terminated   bool                 `json:"terminated"`
	Outcome      string               `json:"outcome,omitempty"`
	WinningCells []tictactoe.Position `json:"winningCells,omitempty"`
}

func (s *Server) respond(id string, sess *session) gameResponse {
	cells := make([]int8, len(sess.state.Cells))
	for i, c := range sess.state.Cells {
		cells[i] = int8(c)
	}
	resp := gameResponse{
		ID:           id,
		Cells:        cells,
		Rows:         sess.state.Rows,
		Cols:         sess.state.Cols,
		OnMove:       int(sess.info.OnMove),
		Terminated:   sess.over,
		WinningCells: sess.info.WinningCells,
	}
	if sess.over {
		resp.Outcome = outcomeForHuman(sess.outcome, sess.human)
	}
	return resp
}

func outcomeForHuman(outcome int, human tictactoe.Cell) string {
	if outcome == 0 {
		return "draw"
	}
	if outcome == int(human) {
		return "win"
	}
	return "lose"
}

// agentPly lets the agent move when it holds the turn.
func (s *Server) agentPly(sess *session) error {
	if sess.over || sess.info.OnMove == sess.human {
		return nil
	}
	action, err := sess.agent.Decide(sess.state)
	if err != nil {
		return fmt.Errorf("agent decide: %w", err)
	}
	state, reward, terminated, info, err := sess.board.Step(sess.agent.Marker(), action)
	if err != nil {
		return fmt.Errorf("agent move: %w", err)
	}
	sess.state, sess.info, sess.over = state, info, terminated
	if terminated {
		sess.outcome = int(reward.First)
	}
	return nil
}

func (s *Server) handleNewGame(c *gin.Context) {
	req := newGameRequest{Seat: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
			return
		}
	}
	human := tictactoe.First
	if req.Seat == 2 {
		human = tictactoe.Second
	} else if req.Seat != 0 && req.Seat != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seat must be 1 or 2"})
		return
	}

	board, err := tictactoe.NewBoard(s.rows, s.cols, s.winLen)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	state, info := board.Reset()
	sess := &session{
		board: board,
		agent: s.newAgent(human.Opponent()),
		human: human,
		state: state,
		info:  info,
	}
	if err := s.agentPly(sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// snapshot the response before the session is visible to other requests
	id := uuid.NewString()
	resp := s.respond(id, sess)
	s.lock.Lock()
	s.sessions[id] = sess
	s.lock.Unlock()

	s.log.WithFields(logrus.Fields{"game": id, "seat": req.Seat}).Info("new game")
	c.JSON(http.StatusOK, resp)
}

type moveRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s *Server) handleMove(c *gin.Context) {
	id := c.Param("id")
	s.lock.Lock()
	sess, ok := s.sessions[id]
	s.lock.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
		return
	}

	req := moveRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.over {
		c.JSON(http.StatusConflict, gin.H{"error": "game already over"})
		return
	}

	state, reward, terminated, info, err := sess.board.Step(sess.human, tictactoe.Position{Row: req.Row, Col: req.Col})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess.state, sess.info, sess.over = state, info, terminated
	if terminated {
		sess.outcome = int(reward.First)
	}

	if err := s.agentPly(sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.log.WithFields(logrus.Fields{"game": id, "row": req.Row, "col": req.Col, "over": sess.over}).Info("move")
	c.JSON(http.StatusOK, s.respond(id, sess))
}
