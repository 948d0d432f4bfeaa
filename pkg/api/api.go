// Package api implements the HTTP JSON API over the formula engine, the sheet
// engine and the chat formatter.
package api

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lemonberrylabs/webrpg-engine/pkg/chat"
	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
	"github.com/lemonberrylabs/webrpg-engine/pkg/formula"
	"github.com/lemonberrylabs/webrpg-engine/pkg/metrics"
	"github.com/lemonberrylabs/webrpg-engine/pkg/ruleset"
	"github.com/lemonberrylabs/webrpg-engine/pkg/sheet"
	"github.com/lemonberrylabs/webrpg-engine/pkg/store"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// Server is the HTTP API server.
type Server struct {
	app         *fiber.App
	store       *store.Store
	metrics     *metrics.Metrics
	defaultMode chat.Mode
	newSource   func() dice.Source
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request outcomes in m and serves it at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithDefaultMode sets the dice mode of sessions created without one.
func WithDefaultMode(mode chat.Mode) Option {
	return func(s *Server) { s.defaultMode = mode }
}

// WithDiceSource sets the factory for the per-request random source.
func WithDiceSource(newSource func() dice.Source) Option {
	return func(s *Server) { s.newSource = newSource }
}

// New creates a new API server.
func New(st *store.Store, opts ...Option) *Server {
	srv := &Server{
		store:       st,
		defaultMode: chat.ModeAdditive,
		newSource:   dice.Fresh,
	}
	for _, opt := range opts {
		opt(srv)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	app.Use(recover.New())

	// Rule sets
	app.Get("/v1/rulesets", srv.listRuleSets)
	app.Get("/v1/rulesets/:id", srv.getRuleSet)

	// Formulas
	app.Post("/v1/evaluate", srv.evaluate)

	// Characters
	app.Post("/v1/characters", srv.createCharacter)
	app.Get("/v1/characters", srv.listCharacters)
	app.Get("/v1/characters/:id", srv.getCharacter)
	app.Patch("/v1/characters/:id", srv.updateCharacter)
	app.Delete("/v1/characters/:id", srv.deleteCharacter)

	// Chat sessions
	app.Post("/v1/sessions", srv.createSession)
	app.Get("/v1/sessions/:id", srv.getSession)
	app.Post("/v1/sessions/:id/messages", srv.createMessage)
	app.Get("/v1/sessions/:id/messages", srv.listMessages)

	if srv.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(srv.metrics.Handler()))
	}

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// --- Rule Set Handlers ---

func (s *Server) listRuleSets(c *fiber.Ctx) error {
	ruleSets := s.store.ListRuleSets()

	items := make([]fiber.Map, len(ruleSets))
	for i, rs := range ruleSets {
		items[i] = fiber.Map{
			"id":     rs.ID,
			"title":  rs.Title,
			"tables": len(rs.Tables),
		}
	}

	return c.JSON(fiber.Map{
		"rulesets": items,
	})
}

func (s *Server) getRuleSet(c *fiber.Ctx) error {
	rs, err := s.store.GetRuleSet(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(rs)
}

// --- Formula Handlers ---

type evaluateRequest struct {
	Formula string           `json:"formula"`
	Attrs   types.Attributes `json:"attrs"`
	Roll    bool             `json:"roll"`
	Seed    *int64           `json:"seed"`
}

func (s *Server) evaluate(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if strings.TrimSpace(req.Formula) == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "formula is required")
	}

	var (
		value  types.Value
		tokens []formula.Token
		err    error
	)
	if req.Roll {
		var rolled formula.Rolled
		rolled, err = formula.Roll(req.Formula, s.source(req.Seed))
		value, tokens = rolled.Total, rolled.Tokens
	} else {
		value, err = formula.Evaluate(req.Formula, req.Attrs)
	}
	s.metrics.ObserveEvaluation(err)

	return c.JSON(evaluationToJSON(value, tokens, err))
}

// evaluationToJSON renders an evaluation result. A calculation failure is a
// result, not a request error: value is null and error describes why.
func evaluationToJSON(value types.Value, tokens []formula.Token, err error) fiber.Map {
	result := fiber.Map{
		"value": value,
	}
	if tokens != nil {
		result["rolled"] = formula.Join(tokens)
	}
	if err != nil {
		result["value"] = types.Null
		result["error"] = err.Error()
		var calcErr *types.CalculationError
		if errors.As(err, &calcErr) {
			result["tags"] = calcErr.Tags
		}
	}
	return result
}

// --- Character Handlers ---

type createCharacterRequest struct {
	RuleSet string           `json:"rule_set"`
	Attrs   types.Attributes `json:"attrs"`
}

func (s *Server) createCharacter(c *fiber.Ctx) error {
	var req createCharacterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.RuleSet == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "rule_set is required")
	}

	ch, err := s.store.CreateCharacter(req.RuleSet, req.Attrs)
	if err != nil {
		return storeError(c, err)
	}

	body, err := s.characterWithSheet(ch)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(201).JSON(body)
}

func (s *Server) listCharacters(c *fiber.Ctx) error {
	characters := s.store.ListCharacters()

	items := make([]fiber.Map, 0, len(characters))
	for _, ch := range characters {
		rs, err := s.store.GetRuleSet(ch.RuleSet)
		if err != nil {
			continue
		}
		items = append(items, fiber.Map{
			"id":       ch.ID,
			"rule_set": ch.RuleSet,
			"title":    sheet.Title(rs, ch.Attrs),
		})
	}

	return c.JSON(fiber.Map{
		"characters": items,
	})
}

func (s *Server) getCharacter(c *fiber.Ctx) error {
	ch, err := s.store.GetCharacter(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}

	body, err := s.characterWithSheet(ch)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(body)
}

type updateCharacterRequest struct {
	Tables []sheet.Table `json:"tables"`
}

// updateCharacter stores the editable values of a submitted sheet, replacing
// the character's attributes, and returns the recomputed sheet.
func (s *Server) updateCharacter(c *fiber.Ctx) error {
	var req updateCharacterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	ch, err := s.store.GetCharacter(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	current, err := s.computeSheet(ch)
	if err != nil {
		return storeError(c, err)
	}

	// Editability comes from the rule set, not from the submitted sheet.
	submitted := &sheet.Sheet{Tables: req.Tables}
	for ti := range submitted.Tables {
		for ri := range submitted.Tables[ti].Rows {
			row := &submitted.Tables[ti].Rows[ri]
			for ci := range row.Columns {
				cell := &row.Columns[ci]
				known := current.Cell(cell.ID)
				cell.Editable = known != nil && known.Editable
			}
		}
	}

	ch, err = s.store.UpdateCharacter(ch.ID, sheet.Extract(submitted))
	if err != nil {
		return storeError(c, err)
	}

	body, err := s.characterWithSheet(ch)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(body)
}

func (s *Server) deleteCharacter(c *fiber.Ctx) error {
	if err := s.store.DeleteCharacter(c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{})
}

func (s *Server) computeSheet(ch *store.Character) (*sheet.Sheet, error) {
	rs, err := s.store.GetRuleSet(ch.RuleSet)
	if err != nil {
		return nil, err
	}

	computed, err := sheet.NewEngine(sheet.WithLogger(log.Default())).Compute(rs, ch.Attrs)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSheet()
	return computed, nil
}

func (s *Server) characterWithSheet(ch *store.Character) (fiber.Map, error) {
	computed, err := s.computeSheet(ch)
	if err != nil {
		return nil, err
	}

	return fiber.Map{
		"id":         ch.ID,
		"rule_set":   ch.RuleSet,
		"title":      computed.Title,
		"attrs":      ch.Attrs,
		"tables":     computed.Tables,
		"createTime": ch.CreateTime.Format(time.RFC3339),
		"updateTime": ch.UpdateTime.Format(time.RFC3339),
	}, nil
}

// --- Session Handlers ---

type createSessionRequest struct {
	Title string `json:"title"`
	Mode  string `json:"mode"`
}

func (s *Server) createSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	mode := s.defaultMode
	if req.Mode != "" {
		m, err := chat.ParseMode(req.Mode)
		if err != nil {
			return errorJSON(c, 400, "INVALID_ARGUMENT", err.Error())
		}
		mode = m
	}

	sess := s.store.CreateSession(req.Title, mode)
	return c.Status(201).JSON(sess)
}

func (s *Server) getSession(c *fiber.Ctx) error {
	sess, err := s.store.GetSession(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(sess)
}

type createMessageRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	Seed   *int64 `json:"seed"`
}

func (s *Server) createMessage(c *fiber.Ctx) error {
	var req createMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "text is required")
	}

	sess, err := s.store.GetSession(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}

	segments := chat.NewFormatter(s.source(req.Seed)).Format(req.Text, sess.Mode)
	s.metrics.ObserveMessage(sess.Mode)

	msg, err := s.store.AddMessage(sess.ID, req.Author, req.Text, segments)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(201).JSON(messageToJSON(msg))
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	msgs, err := s.store.ListMessages(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}

	items := make([]fiber.Map, len(msgs))
	for i, msg := range msgs {
		items[i] = messageToJSON(msg)
	}
	return c.JSON(fiber.Map{
		"messages": items,
	})
}

func messageToJSON(msg *store.Message) fiber.Map {
	return fiber.Map{
		"id":         msg.ID,
		"session_id": msg.SessionID,
		"author":     msg.Author,
		"text":       msg.Text,
		"segments":   msg.Segments,
		"plain":      chat.PlainText(msg.Segments),
		"html":       chat.RenderHTML(msg.Segments),
		"createTime": msg.CreateTime.Format(time.RFC3339),
	}
}

// --- Directory Loading ---

var validRuleSetID = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// LoadDir loads all .yaml, .yml and .json rule-set files from dir. A document
// without an id takes its file name. Files that fail to load are logged and
// skipped.
func (s *Server) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading rule sets directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}

		rs, err := ruleset.LoadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not load %q: %v", name, err)
			continue
		}

		if id := strings.ToLower(rs.ID); id != rs.ID {
			log.Printf("Warning: lowercased rule set ID %q (from file %q)", id, name)
			rs.ID = id
		}
		if !validRuleSetID.MatchString(rs.ID) || len(rs.ID) > 128 {
			log.Printf("Warning: skipping file %q: invalid rule set ID %q", name, rs.ID)
			continue
		}

		if err := s.store.AddRuleSet(rs); err != nil {
			log.Printf("Warning: could not register %q: %v", name, err)
			continue
		}

		loaded++
		log.Printf("Loaded rule set %q from %s", rs.ID, name)
	}

	log.Printf("Loaded %d rule set(s) from %s", loaded, dir)
	return nil
}

// --- Helpers ---

func (s *Server) source(seed *int64) dice.Source {
	if seed != nil {
		return dice.NewSeeded(*seed)
	}
	return s.newSource()
}

func errorJSON(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorJSON(c, 404, "NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return errorJSON(c, 409, "ALREADY_EXISTS", err.Error())
	default:
		return errorJSON(c, 500, "INTERNAL", err.Error())
	}
}
