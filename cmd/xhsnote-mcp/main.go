package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/xhsnote/models"
)

func main() {
	apiURL := os.Getenv("XHS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5005"
	}
	apiKey := os.Getenv("XHS_API_KEY")

	if err := server.ServeStdio(newServer(strings.TrimRight(apiURL, "/"), apiKey)); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"xhsnote",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	extractNoteTool := mcp.NewTool("extract_note",
		mcp.WithDescription("Extract a Xiaohongshu (RED) note from a share link: title, body text, images, author, likes and tags. Renders the page in a headless browser."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Note link: xhslink.com short link, /explore/<id> or /item/<id>"),
		),
		mcp.WithString("cookie",
			mcp.Description("Optional raw Cookie header from a logged-in xiaohongshu.com session, for notes that need a login"),
		),
	)
	s.AddTool(extractNoteTool, handleExtractNote(apiURL, apiKey))

	manualNoteTool := mcp.NewTool("manual_note",
		mcp.WithDescription("Record a note by hand when automatic extraction fails. Title or content must be non-empty."),
		mcp.WithString("title", mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Note body text")),
		mcp.WithArray("images", mcp.Description("Image URLs")),
		mcp.WithString("source_url", mcp.Description("Link the note was copied from")),
	)
	s.AddTool(manualNoteTool, handleManualNote(apiURL, apiKey))

	return s
}

// apiPost sends a POST request to the xhsnote API and decodes the envelope.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) (*models.ExtractResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out models.ExtractResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

func handleExtractNote(apiURL, apiKey string) server.ToolHandlerFunc {
	// Navigation (30s) plus settle time, with headroom.
	client := &http.Client{Timeout: 90 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		resp, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/extract", models.ExtractRequest{
			URL:    url,
			Cookie: request.GetString("cookie", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResult(resp, "extraction failed"), nil
	}
}

func handleManualNote(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/manual", models.ManualRequest{
			Title:     request.GetString("title", ""),
			Content:   request.GetString("content", ""),
			Images:    request.GetStringSlice("images", nil),
			SourceURL: request.GetString("source_url", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResult(resp, "manual entry failed"), nil
	}
}

func toolResult(resp *models.ExtractResponse, fallback string) *mcp.CallToolResult {
	if !resp.Success || resp.Data == nil {
		msg := resp.Error
		if msg == "" {
			msg = fallback
		}
		return mcp.NewToolResultError(msg)
	}
	return mcp.NewToolResultText(formatRecord(resp.Data))
}

// formatRecord renders a note as Markdown for the model to read.
func formatRecord(rec *models.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", rec.Title)
	fmt.Fprintf(&sb, "**Author:** %s  \n**Likes:** %d\n", rec.Author, rec.Likes)
	if len(rec.Tags) > 0 {
		fmt.Fprintf(&sb, "**Tags:** %s\n", strings.Join(rec.Tags, ", "))
	}
	if rec.Content != "" {
		sb.WriteString("\n")
		sb.WriteString(rec.Content)
		sb.WriteString("\n")
	}
	if len(rec.Images) > 0 {
		sb.WriteString("\n## Images\n\n")
		for _, img := range rec.Images {
			fmt.Fprintf(&sb, "- %s\n", img)
		}
	}
	return sb.String()
}
