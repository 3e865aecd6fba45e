// Package mcpadapter exposes the retrieval engine over the Model Context
// Protocol so agent runtimes can search the boards and ask questions as
// tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
)

func NewServer(search ports.SearchService, answers ports.AnswerService, version string) *server.MCPServer {
	if version == "" {
		version = "dev"
	}

	s := server.NewMCPServer(
		"campus-faq",
		version,
		server.WithToolCapabilities(false),
	)

	registerSearchTool(s, search)
	registerAskTool(s, answers)
	return s
}

func registerSearchTool(s *server.MCPServer, search ports.SearchService) {
	tool := mcp.NewTool("campus_search",
		mcp.WithDescription("Search university board documents with hybrid dense+lexical retrieval. Boards: departmental notices (require departments), university-wide notices, student support articles."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, usually in Korean"),
		),
		mcp.WithString("board",
			mcp.Description("Board to search: notices, pnu_notices, or supports (default: pnu_notices)"),
			mcp.Enum("notices", "pnu_notices", "supports"),
		),
		mcp.WithNumber("count",
			mcp.Description("Maximum number of documents to return (default: 5)"),
		),
		mcp.WithString("departments",
			mcp.Description("Comma-separated department names; required for the notices board"),
		),
		mcp.WithString("categories",
			mcp.Description("Comma-separated category names to filter by"),
		),
		mcp.WithNumber("year",
			mcp.Description("Calendar year to restrict results to"),
		),
		mcp.WithString("semester",
			mcp.Description("Semester to restrict results to, as <year>-<term>, e.g. 2025-fall"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		opts, err := searchOptionsFromRequest(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		board := "pnu_notices"
		if b, err := req.RequireString("board"); err == nil && b != "" {
			board = b
		}

		var results []domain.DocumentContext
		switch board {
		case "notices":
			results, err = search.SearchNotices(ctx, query, opts)
		case "pnu_notices":
			results, err = search.SearchPNUNotices(ctx, query, opts)
		case "supports":
			results, err = search.SearchSupports(ctx, query, opts)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown board %q", board)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(results, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerAskTool(s *server.MCPServer, answers ports.AnswerService) {
	tool := mcp.NewTool("campus_ask",
		mcp.WithDescription("Ask a question about university notices and student support. Gathers context across all boards and composes a cited answer."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question, usually in Korean"),
		),
		mcp.WithString("departments",
			mcp.Description("Comma-separated department names to include departmental notices"),
		),
		mcp.WithNumber("year",
			mcp.Description("Calendar year to restrict context to"),
		),
		mcp.WithString("semester",
			mcp.Description("Semester to restrict context to, as <year>-<term>"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError("question is required"), nil
		}

		opts, err := searchOptionsFromRequest(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		answer, err := answers.Ask(ctx, question, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ask error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(answer, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func searchOptionsFromRequest(req mcp.CallToolRequest) (ports.SearchOptions, error) {
	var opts ports.SearchOptions

	if countVal, err := req.RequireFloat("count"); err == nil {
		if count := int(countVal); count > 0 {
			opts.Count = count
		}
	}
	if departments, err := req.RequireString("departments"); err == nil {
		opts.Departments = splitCommaList(departments)
	}
	if categories, err := req.RequireString("categories"); err == nil {
		opts.Categories = splitCommaList(categories)
	}
	if yearVal, err := req.RequireFloat("year"); err == nil {
		if year := int(yearVal); year > 0 {
			opts.Year = year
		}
	}
	if semester, err := req.RequireString("semester"); err == nil && semester != "" {
		key, err := parseSemesterKey(semester)
		if err != nil {
			return ports.SearchOptions{}, err
		}
		opts.Semesters = []domain.SemesterKey{key}
	}
	return opts, nil
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseSemesterKey(s string) (domain.SemesterKey, error) {
	year, term, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return domain.SemesterKey{}, fmt.Errorf("invalid semester %q, want <year>-<term>", s)
	}

	var key domain.SemesterKey
	if _, err := fmt.Sscanf(year, "%d", &key.Year); err != nil {
		return domain.SemesterKey{}, fmt.Errorf("invalid semester year %q", year)
	}

	switch domain.SemesterTerm(term) {
	case domain.TermSpring, domain.TermSummer, domain.TermFall, domain.TermWinter:
		key.Term = domain.SemesterTerm(term)
	default:
		return domain.SemesterKey{}, fmt.Errorf("invalid semester term %q", term)
	}
	return key, nil
}
