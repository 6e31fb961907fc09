// Package mcp exposes the retrieval engine over the Model Context
// Protocol, so AI clients can query an indexed corpus as a tool.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ctxrag/ctxrag/internal/search"
	"github.com/ctxrag/ctxrag/pkg/version"
)

// Server wraps the search engine behind MCP stdio transport.
type Server struct {
	engine *search.Engine
	opts   search.Options
	mcp    *mcp.Server
	logger *slog.Logger
}

// SearchInput is the search_documents tool input.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
}

// SearchOutput is the search_documents tool output.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"list of matching chunks, best first"`
}

// SearchResultOutput is a single result in tool output.
type SearchResultOutput struct {
	DocumentTitle  string  `json:"document_title" jsonschema:"title of the source document"`
	PageNumber     int     `json:"page_number" jsonschema:"page the chunk came from"`
	Content        string  `json:"content" jsonschema:"original chunk text"`
	ContextSummary string  `json:"context_summary,omitempty" jsonschema:"situating summary generated at index time"`
	Score          float64 `json:"score" jsonschema:"combined relevance score between 0 and 1"`
	RerankScore    float64 `json:"rerank_score" jsonschema:"relevance score on a 0-10 scale"`
}

// StatusInput is the index_status tool input (none).
type StatusInput struct{}

// StatusOutput is the index_status tool output.
type StatusOutput struct {
	Ready     bool `json:"ready" jsonschema:"true when an index has been built or loaded"`
	Chunks    int  `json:"chunks" jsonschema:"number of indexed chunks"`
	Documents int  `json:"documents" jsonschema:"number of indexed documents"`
}

// NewServer creates an MCP server over the given engine.
func NewServer(engine *search.Engine, opts search.Options, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: engine,
		opts:   opts,
		logger: logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "ctxrag",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// registerTools registers the tool set with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search the indexed document corpus with hybrid retrieval (semantic embeddings plus keyword matching over contextualized chunks). Returns the most relevant chunks with their source document and page.",
	}, s.searchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Check whether the document index is built and how many chunks it holds. Use before searching to verify the corpus is ready.",
	}, s.statusHandler)

	s.logger.Info("mcp tools registered", "count", 2)
}

// searchHandler serves the search_documents tool.
func (s *Server) searchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if input.Query == "" {
		return nil, SearchOutput{}, errors.New("query parameter is required")
	}

	opts := s.opts
	if input.Limit > 0 {
		opts.KFinal = input.Limit
	}

	results, err := s.engine.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		output.Results = append(output.Results, SearchResultOutput{
			DocumentTitle:  r.Chunk.DocumentTitle,
			PageNumber:     r.Chunk.PageNumber,
			Content:        r.Chunk.OriginalContent,
			ContextSummary: r.Chunk.ContextSummary,
			Score:          r.CombinedScore,
			RerankScore:    r.RerankScore,
		})
	}

	return nil, output, nil
}

// statusHandler serves the index_status tool.
func (s *Server) statusHandler(_ context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	st := s.engine.Store()
	return nil, StatusOutput{
		Ready:     s.engine.Ready(),
		Chunks:    st.Len(),
		Documents: len(st.Documents()),
	}, nil
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
