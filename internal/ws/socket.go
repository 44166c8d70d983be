package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/27180781/trivia-master-offline/internal/config"
	"github.com/27180781/trivia-master-offline/internal/game"
	"github.com/27180781/trivia-master-offline/internal/input"
)

type ConnCtx struct {
	Code  string
	Token string
	Role  string // "host" | "screen"
}

// Server fans session state, sound cues, and countdown ticks out to the
// connected presentation screens, and feeds host keystrokes into the
// phase machine. The countdown lifecycle lives here: the machine only
// emits start/stop effects, the server owns the goroutines.
type Server struct {
	RM     *game.Manager
	config config.Config

	mu         sync.Mutex
	members    map[string]map[string]socketio.Conn // sessionCode -> socketID -> Conn
	countdowns map[string]*game.Countdown          // sessionCode -> running countdown
}

func New(rm *game.Manager, cfg config.Config) *Server {
	return &Server{
		RM:         rm,
		config:     cfg,
		members:    make(map[string]map[string]socketio.Conn),
		countdowns: make(map[string]*game.Countdown),
	}
}

// Mount attaches the Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// presenter:join attaches a connection to the active session. A
	// screen joins read-only; the host must present the host token.
	io.OnEvent("/", "presenter:join", func(s socketio.Conn, payload struct {
		Role      string `json:"role"`
		HostToken string `json:"hostToken"`
	}) map[string]any {
		code, sess := srv.RM.Active()
		if sess == nil {
			return srv.err(s, "session_not_found", "No active session")
		}
		role := "screen"
		if payload.Role == "host" {
			if _, err := srv.RM.Authorize(code, payload.HostToken); err != nil {
				return srv.err(s, "unauthorized", "Invalid host token")
			}
			role = "host"
		}
		s.SetContext(&ConnCtx{Code: code, Token: payload.HostToken, Role: role})
		s.Join(code)
		srv.addMember(code, s)
		log.Info().Str("sid", s.ID()).Str("code", code).Str("role", role).Msg("presenter:join")
		s.Emit("game:state", sess.State())
		return map[string]any{"sessionCode": code, "state": sess.State()}
	})

	// control:key is the host keyboard. Keys are routed against the
	// current phase, so standby swallows everything but advance.
	io.OnEvent("/", "control:key", func(s socketio.Conn, payload struct {
		Key string `json:"key"`
	}) map[string]any {
		ctx, sess, errResp := srv.hostSession(s)
		if errResp != nil {
			return errResp
		}
		cmd := input.Route(payload.Key, sess.Phase())
		if cmd == input.CmdNone {
			return map[string]any{"ok": true}
		}
		if cmd == input.CmdExitFullscreen {
			// Chrome-only concern; the screens handle it themselves.
			srv.broadcast(ctx.Code, "game:exitFullscreen", nil)
			return map[string]any{"ok": true}
		}

		before := sess.Phase()
		var fx []game.SoundEffect
		switch cmd {
		case input.CmdAdvance:
			fx = sess.Advance()
		case input.CmdRetreat:
			fx = sess.Retreat()
		case input.CmdNextQuestion:
			fx = sess.NextQuestion()
		case input.CmdPrevQuestion:
			fx = sess.PrevQuestion()
		}
		after := sess.Phase()
		log.Info().Str("code", ctx.Code).Str("key", payload.Key).
			Str("from", string(before)).Str("to", string(after)).Msg("phase transition")

		srv.applyEffects(ctx.Code, sess, fx)

		if srv.config.ExportEnabled && shouldExportReveal(cmd, before, after) {
			if err := game.ExportReveal(sess, srv.config.ExportFile); err != nil {
				log.Error().Err(err).Str("code", ctx.Code).Msg("failed to export game log")
			}
		}

		srv.broadcast(ctx.Code, "game:state", sess.State())
		return map[string]any{"ok": true}
	})

	// control:reset returns to the first question's standby.
	io.OnEvent("/", "control:reset", func(s socketio.Conn) map[string]any {
		ctx, sess, errResp := srv.hostSession(s)
		if errResp != nil {
			return errResp
		}
		fx := sess.Reset()
		log.Info().Str("code", ctx.Code).Msg("control:reset")
		srv.applyEffects(ctx.Code, sess, fx)
		srv.broadcast(ctx.Code, "game:state", sess.State())
		return map[string]any{"ok": true}
	})

	// control:mute flips audio suppression. Stop cues still pass while
	// muted so nothing keeps ringing after unmute.
	io.OnEvent("/", "control:mute", func(s socketio.Conn) map[string]any {
		ctx, sess, errResp := srv.hostSession(s)
		if errResp != nil {
			return errResp
		}
		muted := sess.ToggleMute()
		log.Info().Str("code", ctx.Code).Bool("muted", muted).Msg("control:mute")
		if muted {
			srv.broadcast(ctx.Code, "game:sound", map[string]any{"effect": game.SoundStopAll})
		}
		srv.broadcast(ctx.Code, "game:state", sess.State())
		return map[string]any{"muted": muted}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Code != "" {
			srv.removeMember(ctx.Code, s)
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// NotifySeeded is called after an upload replaces a session's questions,
// so screens pick up the fresh deck without reconnecting.
func (srv *Server) NotifySeeded(code string) {
	sess, err := srv.RM.Get(code)
	if err != nil {
		return
	}
	srv.stopCountdown(code)
	srv.broadcast(code, "game:sound", map[string]any{"effect": game.SoundStopAll})
	srv.broadcast(code, "game:state", sess.State())
}

// applyEffects forwards sound cues to the room and manages the countdown
// goroutine. Mute drops the start cues but lets stops through, keeping
// the screens' audio state consistent with the machine's bookkeeping.
func (srv *Server) applyEffects(code string, sess *game.Session, fx []game.SoundEffect) {
	muted := sess.Muted()
	for _, effect := range fx {
		switch effect {
		case game.SoundStartTick:
			srv.startCountdown(code, sess)
		case game.SoundStopTick, game.SoundStopAll:
			srv.stopCountdown(code)
		}
		if muted && (effect == game.SoundStartTick || effect == game.SoundStartReveal) {
			continue
		}
		srv.broadcast(code, "game:sound", map[string]any{"effect": effect})
	}
}

func (srv *Server) startCountdown(code string, sess *game.Session) {
	st := sess.State()
	if st.Question == nil || st.Question.TimeLimit <= 0 {
		return
	}
	srv.stopCountdown(code)

	cd := game.NewCountdown(st.Question.TimeLimit)
	srv.mu.Lock()
	srv.countdowns[code] = cd
	srv.mu.Unlock()

	go func() {
		cd.Run(game.DefaultTickInterval, func(u game.CountdownUpdate) {
			srv.broadcast(code, "game:timer", u)
			if u.Done {
				// Zero freezes the display; advancing stays a host action.
				fx := sess.TickFinished()
				for _, effect := range fx {
					srv.broadcast(code, "game:sound", map[string]any{"effect": effect})
				}
			}
		})
		srv.mu.Lock()
		if srv.countdowns[code] == cd {
			delete(srv.countdowns, code)
		}
		srv.mu.Unlock()
	}()
}

func (srv *Server) stopCountdown(code string) {
	srv.mu.Lock()
	cd := srv.countdowns[code]
	delete(srv.countdowns, code)
	srv.mu.Unlock()
	if cd != nil {
		cd.Stop()
	}
}

// shouldExportReveal limits the game log to forward entry into reveal.
// Retreating back into an already-revealed question must not append a
// duplicate entry.
func shouldExportReveal(cmd input.Command, before, after game.Phase) bool {
	return cmd == input.CmdAdvance && after == game.PhaseReveal && before != game.PhaseReveal
}

func (srv *Server) hostSession(s socketio.Conn) (*ConnCtx, *game.Session, map[string]any) {
	ctx, _ := s.Context().(*ConnCtx)
	if ctx == nil || ctx.Role != "host" {
		return nil, nil, srv.err(s, "unauthorized", "Host role required")
	}
	sess, err := srv.RM.Authorize(ctx.Code, ctx.Token)
	if err != nil {
		return nil, nil, srv.err(s, "session_not_found", "Session not found")
	}
	return ctx, sess, nil
}

func (srv *Server) addMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][c.ID()] = c
}

func (srv *Server) removeMember(code string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[code]; m != nil {
		delete(m, c.ID())
	}
}

func (srv *Server) broadcast(code, event string, payload any) {
	srv.mu.Lock()
	conns := make([]socketio.Conn, 0, len(srv.members[code]))
	for _, c := range srv.members[code] {
		conns = append(conns, c)
	}
	srv.mu.Unlock()
	for _, c := range conns {
		c.Emit(event, payload)
	}
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}
