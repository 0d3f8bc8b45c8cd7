package main

import (
	"errors"
	"html/template"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aquoric/aquoric-dev/internal/content"
	"github.com/aquoric/aquoric-dev/internal/diag"
	"github.com/aquoric/aquoric-dev/internal/page"
	"github.com/aquoric/aquoric-dev/internal/session"
	"github.com/aquoric/aquoric-dev/internal/skill"
)

const sessionHeader = "X-Session-ID"

type server struct {
	cfg        Config
	site       *content.Site
	sessions   *session.Store
	failures   *diag.Store
	log        *zap.Logger
	tmpl       *template.Template
	adminToken string
	now        func() time.Time
}

func newServer(cfg Config, site *content.Site, failures *diag.Store, log *zap.Logger) (*server, error) {
	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}

	defs := make([]skill.Def, len(site.Skills))
	for i, s := range site.Skills {
		defs[i] = skill.Def{Title: s.Title, Detail: s.Detail}
	}
	s := &server{
		cfg:      cfg,
		site:     site,
		failures: failures,
		log:      log,
		tmpl:     tmpl,
		now:      time.Now,
	}
	s.sessions = session.NewStore(session.Config{
		Sources:     site.Audio,
		Skills:      defs,
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.SessionMax,
		Recorder:    failures.Recorder,
	}, log.Named("session"))
	s.initAdminToken()
	return s, nil
}

func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.SetHTMLTemplate(s.tmpl)

	static, _ := fs.Sub(assets, "static")
	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.handleIndex)

	g := r.Group("/", s.requireSession())
	g.POST("/enter", s.handleEnter)
	g.POST("/audio/mute", s.handleMute)
	g.POST("/audio/played", s.handlePlayed)
	g.POST("/audio/error", s.handleAudioError)
	g.POST("/skills/:id/toggle", s.handleSkillToggle)

	s.setupAdminRoutes(r)
	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// requireSession resolves the session named by the page's session header.
func (s *server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.sessions.Get(c.GetHeader(sessionHeader))
		if err != nil {
			c.HTML(http.StatusNotFound, "expired.html", nil)
			c.Abort()
			return
		}
		c.Set("session", sess)
		c.Next()
	}
}

func sessionOf(c *gin.Context) *session.Session {
	return c.MustGet("session").(*session.Session)
}

func (s *server) view(snap session.Snapshot, particles int) page.View {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return page.Compose(s.site, snap, page.Particles(particles, rng), s.now())
}

// Every page load is a new session, so a reload restarts the source sequence.
func (s *server) handleIndex(c *gin.Context) {
	sess := s.sessions.Create(c.GetHeader("DNT") == "1")
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "index.html", s.view(sess.Snapshot(), s.cfg.ParticleCount))
}

func (s *server) handleEnter(c *gin.Context) {
	sess := sessionOf(c)
	if !sess.Enter() {
		s.log.Debug("gate already open", zap.String("session", sess.ID))
	}
	v := s.view(sess.Snapshot(), 0)
	v.OOB = true
	c.HTML(http.StatusOK, "enter", v)
}

func (s *server) handleMute(c *gin.Context) {
	sess := sessionOf(c)
	sess.ToggleMute()
	s.renderPlayer(c, sess)
}

type playReport struct {
	Seq    uint64 `form:"seq" binding:"required"`
	OK     bool   `form:"ok"`
	Reason string `form:"reason"`
}

func (s *server) handlePlayed(c *gin.Context) {
	var rep playReport
	if err := c.ShouldBind(&rep); err != nil {
		c.String(http.StatusBadRequest, "bad play report")
		return
	}
	sess := sessionOf(c)
	var cause error
	if !rep.OK {
		cause = reportError(rep.Reason)
	}
	if err := sess.ReportPlay(rep.Seq, cause); err != nil {
		s.log.Debug("ignoring play report", zap.Uint64("seq", rep.Seq), zap.Error(err))
	}
	s.renderPlayer(c, sess)
}

type errorReport struct {
	Index  *int   `form:"index" binding:"required"`
	Reason string `form:"reason"`
}

func (s *server) handleAudioError(c *gin.Context) {
	var rep errorReport
	if err := c.ShouldBind(&rep); err != nil {
		c.String(http.StatusBadRequest, "bad error report")
		return
	}
	sess := sessionOf(c)
	if err := sess.ReportError(*rep.Index, reportError(rep.Reason)); err != nil {
		s.log.Debug("ignoring error report", zap.Int("index", *rep.Index), zap.Error(err))
	}
	s.renderPlayer(c, sess)
}

func (s *server) handleSkillToggle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "bad skill id")
		return
	}
	st, err := sessionOf(c).ToggleSkill(id)
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return
	}
	c.HTML(http.StatusOK, "skill", page.SkillOf(st))
}

func (s *server) renderPlayer(c *gin.Context, sess *session.Session) {
	c.HTML(http.StatusOK, "player", s.view(sess.Snapshot(), 0))
}

func reportError(reason string) error {
	if reason == "" {
		reason = "unknown"
	}
	return errors.New(reason)
}
