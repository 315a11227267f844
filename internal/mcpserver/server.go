// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Pinpoint deck tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pinpoint/internal/apperr"
	"github.com/starford/pinpoint/internal/layout"
	"github.com/starford/pinpoint/internal/markup"
	"github.com/starford/pinpoint/internal/parser"
	"github.com/starford/pinpoint/internal/presenter"
	"github.com/starford/pinpoint/internal/storage"
)

const deckFormatURI = "pinpoint://deck-format"

// Server wraps the MCP server with Pinpoint tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *presenter.Service
	store storage.Provider
}

// New creates a new MCP server with all Pinpoint tools registered.
func New(svc *presenter.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Pinpoint",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("parse_deck",
		mcp.WithDescription("Parse deck source into global options and slides without resolving them. "+
			"Any text that could not be parsed is returned as \"remainder\"."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Deck source text")),
	), s.parseDeck)

	s.mcp.AddTool(mcp.NewTool("resolve_deck",
		mcp.WithDescription("Parse and resolve deck source into backgrounds, positions and sized text spans."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Deck source text")),
		mcp.WithNumber("width", mcp.Description("Canvas width in pixels (default: server canvas)")),
		mcp.WithNumber("height", mcp.Description("Canvas height in pixels (default: server canvas)")),
	), s.resolveDeck)

	s.mcp.AddTool(mcp.NewTool("parse_markup",
		mcp.WithDescription("Split slide text with <b>, <i>, <u>, <s>, <sup>, <sub> and <span> tags into styled runs."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Slide text with inline markup")),
	), s.parseMarkup)

	s.mcp.AddTool(mcp.NewTool("get_slide",
		mcp.WithDescription("Get one resolved slide of the loaded deck."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based slide index")),
	), s.getSlide)

	s.mcp.AddTool(mcp.NewTool("get_slide_command",
		mcp.WithDescription("Get the command= option attached to a slide of the loaded deck."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based slide index")),
	), s.getSlideCommand)

	s.mcp.AddTool(mcp.NewTool("update_deck",
		mcp.WithDescription("Replace the loaded deck file with new source and reload it. "+
			"Read the format via get_deck_format or the "+deckFormatURI+" resource first."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Complete new deck source")),
	), s.updateDeck)

	s.mcp.AddTool(mcp.NewTool("get_deck_format",
		mcp.WithDescription("Returns the Pinpoint deck format. "+
			"Call this before writing deck source to ensure correct structure."),
	), s.getDeckFormat)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Save a background image into the presentation directory. "+
			"Returns the option to put on a slide header."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or base64 data URI of a png, jpg or gif image")),
		mcp.WithString("filename", mcp.Description("Optional file name (derived from the URL otherwise)")),
	), s.uploadAsset)

	s.mcp.AddResource(
		mcp.NewResource(deckFormatURI, "Deck Format",
			mcp.WithResourceDescription("The Pinpoint deck text format: slides, options and inline markup."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDeckFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotLoaded):
		return mcp.NewToolResultError("no deck is loaded")
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) canvas() layout.Config {
	if s.svc == nil {
		return layout.DefaultConfig()
	}
	return s.svc.Canvas()
}

func (s *Server) parseDeck(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deck, rest := parser.ParseDetailed(source)
	return jsonResult(map[string]any{
		"deck":      deck,
		"remainder": rest,
	})
}

func (s *Server) resolveDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg := s.canvas()
	cfg.Width = float32(req.GetFloat("width", float64(cfg.Width)))
	cfg.Height = float32(req.GetFloat("height", float64(cfg.Height)))
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return mcp.NewToolResultError("width and height must be positive"), nil
	}

	dir := ""
	if s.store != nil {
		dir = s.store.Root()
	}
	workers := 0
	if s.svc != nil {
		workers = s.svc.Workers()
	}
	resolved, err := layout.ResolveDeckParallel(ctx, parser.Parse(source), dir, cfg, workers)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resolved)
}

func (s *Server) parseMarkup(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	runs := markup.Parse(text)
	if runs == nil {
		runs = []markup.Run{}
	}
	return jsonResult(runs)
}

func (s *Server) getSlide(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.svc == nil {
		return errorResult(apperr.ErrNotLoaded), nil
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slide, err := s.svc.Slide(index)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(slide)
}

func (s *Server) getSlideCommand(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.svc == nil {
		return errorResult(apperr.ErrNotLoaded), nil
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cmd, err := s.svc.Command(index)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(cmd), nil
}

func (s *Server) updateDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.svc == nil || s.store == nil {
		return errorResult(apperr.ErrNotLoaded), nil
	}
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.Write(s.svc.DeckPath(), []byte(source)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write deck: %v", err)), nil
	}
	if _, err := s.svc.Load(ctx); err != nil {
		return errorResult(err), nil
	}
	snap, err := s.svc.Snapshot()
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{
		"path":      s.svc.DeckPath(),
		"checksum":  snap.Checksum,
		"slides":    len(snap.Deck.Slides),
		"remainder": snap.Remainder,
	})
}

func (s *Server) getDeckFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DeckFormatContract), nil
}

func (s *Server) readDeckFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      deckFormatURI,
			MIMEType: "text/markdown",
			Text:     DeckFormatContract,
		},
	}, nil
}
