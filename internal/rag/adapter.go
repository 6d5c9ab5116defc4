package rag

import (
	"context"

	"github.com/quillhq/promptforge/internal/executor"
	"github.com/quillhq/promptforge/internal/retrieval/hybrid"
)

// ExecutorRetriever adapts a Service to executor.Retriever, the minimal
// context-fetching surface the Executor needs during prompt assembly
// (spec.md §4.6 step 2).
type ExecutorRetriever struct {
	Service *Service
	Method  hybrid.Method
}

// Query fetches the top-k context snippets for query via the RAG facade.
func (a ExecutorRetriever) Query(ctx context.Context, query string, k int) ([]executor.RetrievedText, error) {
	method := a.Method
	if method == "" {
		method = hybrid.MethodHybrid
	}

	result, err := a.Service.Query(ctx, query, k, method)
	if err != nil {
		return nil, err
	}

	texts := make([]executor.RetrievedText, len(result.Results))
	for i, r := range result.Results {
		texts[i] = executor.RetrievedText{DocID: r.DocID, Text: r.Text}
	}
	return texts, nil
}
