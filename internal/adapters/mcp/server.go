// Package mcpadapter exposes the haiku pipeline as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/core/usecase"
)

const (
	serverName    = "haiku-studio"
	serverVersion = "1.0.0"

	defaultListLimit = 20
)

type Server struct {
	newPipeline func() ports.Pipeline
	gateway     ports.ArtifactGateway
	blobs       ports.ObjectStorage
}

func New(newPipeline func() ports.Pipeline, gateway ports.ArtifactGateway, blobs ports.ObjectStorage) *Server {
	return &Server{newPipeline: newPipeline, gateway: gateway, blobs: blobs}
}

func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))
	srv.AddTool(mcp.NewTool("generate_haiku",
		mcp.WithDescription("Detect the language of a word, write a haiku about it and illustrate it. Optionally save the result."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word in English or Japanese")),
		mcp.WithBoolean("save", mcp.Description("Persist the haiku to the storage backend")),
	), s.generateHaiku)
	srv.AddTool(mcp.NewTool("list_haikus",
		mcp.WithDescription("List saved haikus, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of haikus to return")),
	), s.listHaikus)
	return srv
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.MCPServer())
}

type generateResult struct {
	Word     string             `json:"word"`
	Language domain.Language    `json:"language"`
	Haiku    domain.Haiku       `json:"haiku"`
	Image    domain.ImageHandle `json:"image,omitempty"`
	Saved    bool               `json:"saved"`

	Outcomes map[domain.Stage]domain.OutcomeKind `json:"outcomes,omitempty"`
}

func (s *Server) generateHaiku(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pipeline := s.newPipeline()
	defer func() { usecase.ReleaseImages(ctx, s.blobs, pipeline.Images()) }()
	state, err := pipeline.Submit(ctx, word)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetBool("save", false) {
		state, err = pipeline.Save(ctx)
		if err != nil {
			slog.Warn("mcp_save_failed", "word", state.Word, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return jsonResult(generateResult{
		Word:     state.Word,
		Language: state.Language,
		Haiku:    state.Haiku,
		Image:    state.Image,
		Saved:    state.Phase == domain.PhaseSaved,
		Outcomes: state.Outcomes,
	})
}

type listedHaiku struct {
	ID        int64           `json:"id"`
	InputWord string          `json:"input_word"`
	Language  domain.Language `json:"language"`
	HaikuText string          `json:"haiku_text"`
	HasImage  bool            `json:"has_image"`
	CreatedAt string          `json:"created_at"`
}

// listHaikus omits image payloads; they are too large for a tool result.
func (s *Server) listHaikus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}
	items := s.gateway.List(ctx)
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]listedHaiku, 0, len(items))
	for _, item := range items {
		out = append(out, listedHaiku{
			ID:        item.ID,
			InputWord: item.InputWord,
			Language:  item.Language,
			HaikuText: item.HaikuText,
			HasImage:  item.ImageData != "",
			CreatedAt: item.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
