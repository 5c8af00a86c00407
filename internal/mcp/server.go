package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/repstrain/internal/catalog"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepStrain", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepStrain muscle fatigue and recovery server. Query per-muscle fatigue, readiness classifications, recovery projections, training volume, and personal records. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetMuscleStatus, Handler: h.getMuscleStatus},
		server.ServerTool{Tool: toolGetRecoveryTimeline, Handler: h.getRecoveryTimeline},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetTrainingVolume, Handler: h.getTrainingVolume},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	s.AddResources(
		server.ServerResource{Resource: resReadiness, Handler: h.readiness},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resReadiness = mcp.NewResource(
	"repstrain://readiness",
	"Training Readiness",
	mcp.WithResourceDescription("Current per-muscle fatigue and readiness classification, with projected recovery times"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) readiness(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	states, err := h.ds.CurrentStates(ctx, uid, time.Now())
	if err != nil {
		return nil, err
	}

	byStatus := map[string][]catalog.Muscle{}
	for _, s := range states {
		byStatus[string(s.Status)] = append(byStatus[string(s.Status)], s.Muscle)
	}

	summary := map[string]any{
		"date":      time.Now().Format("2006-01-02"),
		"muscles":   states,
		"by_status": byStatus,
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// parseMuscleArg resolves a tool's muscle argument.
func parseMuscleArg(name string) (catalog.Muscle, error) {
	m, ok := catalog.ParseMuscle(name)
	if !ok {
		return "", fmt.Errorf("unknown muscle %q", name)
	}
	return m, nil
}
