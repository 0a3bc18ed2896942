package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/colloquy-ai/colloquy/agent"
	"github.com/colloquy-ai/colloquy/core/protocol"
	"github.com/colloquy-ai/colloquy/docindex"
)

// DocumentQAName is the registered name of the per-session document tool.
const DocumentQAName = "document_qa"

// DocumentQA builds the session-conditional document-answering tool. The
// tool retrieves the top-matching chunks from the session's index and
// delegates the answer to the reasoning engine scoped to that context. It
// never mutates session memory; its output is plain tool output.
type DocumentQA struct {
	indexer  *docindex.Indexer
	embedder docindex.Embedder
	engine   agent.Agent
	topK     int
}

// NewDocumentQA creates a DocumentQA factory.
func NewDocumentQA(indexer *docindex.Indexer, embedder docindex.Embedder, engine agent.Agent, topK int) *DocumentQA {
	if topK <= 0 {
		topK = 3
	}
	return &DocumentQA{indexer: indexer, embedder: embedder, engine: engine, topK: topK}
}

// Factory returns the SessionFactory for registry wiring. The entry exists
// only for sessions with an indexed document.
func (d *DocumentQA) Factory() SessionFactory {
	return func(ctx context.Context, sessionID string) (Entry, bool) {
		if !d.indexer.Exists(ctx, sessionID) {
			return Entry{}, false
		}
		return d.entry(sessionID), true
	}
}

func (d *DocumentQA) entry(sessionID string) Entry {
	return Entry{
		Spec: protocol.Tool{
			Name:        DocumentQAName,
			Description: "Answers questions about the document uploaded to this conversation.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The question to answer from the uploaded document.",
					},
				},
				"required": []string{"query"},
			},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (Result, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return Result{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}
			if args.Query == "" {
				return Result{Content: "query is required", IsError: true}, nil
			}
			return d.answer(ctx, sessionID, args.Query)
		},
	}
}

// answer runs the retrieval-augmented round trip: embed the query, rank the
// session's chunks, and ask the engine with only that context in scope.
func (d *DocumentQA) answer(ctx context.Context, sessionID, query string) (Result, error) {
	idx, err := d.indexer.Load(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("loading index: %w", err)
	}

	vector, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("embedding query: %w", err)
	}

	matches := idx.Search(vector, d.topK)
	if len(matches) == 0 {
		return Result{Content: "the document has no content relevant to this question", IsError: true}, nil
	}

	reply, err := d.engine.Chat(ctx, []protocol.Message{
		protocol.NewMessage(protocol.RoleSystem, "Answer the question using only the provided document excerpts. Say so when the excerpts do not contain the answer."),
		protocol.NewMessage(protocol.RoleUser, buildContextPrompt(idx.Document, matches, query)),
	}, nil)
	if err != nil {
		return Result{}, fmt.Errorf("answering from document: %w", err)
	}

	return Result{Content: reply.Content}, nil
}

func buildContextPrompt(document string, matches []docindex.Match, query string) string {
	var sb strings.Builder
	sb.WriteString("Excerpts from ")
	sb.WriteString(document)
	sb.WriteString(":\n\n")
	for _, m := range matches {
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(query)
	return sb.String()
}
