// Package mcpserver exposes food analysis, nutrition history, and the
// nutrition assistant as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vbonduro/nutriscan/internal/analysis"
	"github.com/vbonduro/nutriscan/internal/nutrition"
	"github.com/vbonduro/nutriscan/internal/service"
	"github.com/vbonduro/nutriscan/internal/upload"
)

// Deps holds the services behind the MCP tools.
type Deps struct {
	Food  *service.FoodService
	Chats *service.ChatService
}

// New creates an MCP server with all nutriscan tools registered.
func New(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"nutriscan",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("nutriscan identifies food in photos, looks up its nutrition, and answers nutrition questions."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("analyze_food_photo",
			mcp.WithDescription("Identify the food in a photo on disk, look up its nutrition, and save it to history."),
			mcp.WithString("path", mcp.Description("Path to a JPEG, PNG, GIF or WebP photo"), mcp.Required()),
		),
		analyzeFoodPhoto(deps),
	)

	s.AddTool(
		mcp.NewTool("list_nutrition_history",
			mcp.WithDescription("List saved nutrition entries, newest first, with their essential nutrients."),
		),
		listNutritionHistory(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_nutrition_entry",
			mcp.WithDescription("Delete a saved nutrition entry."),
			mcp.WithString("id", mcp.Description("Entry id from list_nutrition_history"), mcp.Required()),
		),
		deleteNutritionEntry(deps),
	)

	s.AddTool(
		mcp.NewTool("ask_nutrition_assistant",
			mcp.WithDescription("Ask the nutrition assistant a question. Pass chat_id to continue a conversation."),
			mcp.WithString("text", mcp.Description("The question"), mcp.Required()),
			mcp.WithString("chat_id", mcp.Description("Existing chat id; omit to start a new chat")),
		),
		askNutritionAssistant(deps),
	)

	return s
}

func analyzeFoodPhoto(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}

		photo, err := upload.ReadPhoto(path)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		result, entry, err := deps.Food.AnalyzeAndSave(ctx, photo)
		if err != nil {
			var f *analysis.Failure
			if errors.As(err, &f) || result == nil {
				return mcpJSONError(analysis.OutcomeOf(err)), nil
			}
			return mcpError(fmt.Sprintf("analysis succeeded but saving failed: %v", err)), nil
		}

		return mcpJSON(map[string]any{
			"entryId":            entry.ID,
			"description":        result.Description,
			"confidence":         result.Confidence,
			"imageUrl":           result.ImageURL,
			"essentialNutrients": nutrition.Essential(result.Nutrients),
		}), nil
	}
}

func listNutritionHistory(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := deps.Food.History(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list history: %v", err)), nil
		}

		out := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			out = append(out, map[string]any{
				"id":                 e.ID,
				"foodLabel":          e.FoodLabel,
				"imagePath":          e.ImageURL,
				"savedAt":            e.SavedAt,
				"essentialNutrients": nutrition.Essential(e.Nutrients),
			})
		}
		return mcpJSON(out), nil
	}
}

func deleteNutritionEntry(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil || id == "" {
			return mcpError("id is required"), nil
		}
		if err := deps.Food.DeleteEntry(ctx, id); err != nil {
			return mcpError(fmt.Sprintf("failed to delete entry: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Deleted entry %s", id)), nil
	}
}

func askNutritionAssistant(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		reply, err := deps.Chats.Send(ctx, req.GetString("chat_id", ""), text)
		if errors.Is(err, service.ErrEmptyMessage) {
			return mcpError("text is required"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to send message: %v", err)), nil
		}

		return mcpJSON(map[string]any{
			"chatId": reply.ChatID,
			"reply":  reply.Bot.Text,
			"failed": reply.Failed,
		}), nil
	}
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpJSONError(v any) *mcp.CallToolResult {
	res := mcpJSON(v)
	res.IsError = true
	return res
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
