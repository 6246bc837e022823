// Package search ranks drafts against a free-text query, by keyword and,
// when an embedder is available, by semantic similarity.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/iter"
)

// Embedder turns texts into vectors. *ollama.Client implements it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is one searchable draft.
type Document struct {
	Key    string
	Entity string
	Text   string
}

// Weights combine keyword and semantic scores.
type Weights struct {
	Keyword  float64
	Semantic float64
}

// Result is one ranked document.
type Result struct {
	Document
	Score         float64
	KeywordScore  int
	SemanticScore float64
	UsedSemantic  bool
}

// Words lowercases and splits a query.
func Words(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// KeywordScore counts query words in the document text (10 each), with a
// bonus when a word appears in the key (50) or the entity (30).
func KeywordScore(words []string, doc Document) int {
	text := strings.ToLower(doc.Text + " " + doc.Key)
	key := strings.ToLower(doc.Key)
	entity := strings.ToLower(doc.Entity)

	score := 0
	for _, word := range words {
		score += strings.Count(text, word) * 10
		if strings.Contains(key, word) {
			score += 50
		}
		if entity != "" && strings.Contains(entity, word) {
			score += 30
		}
	}
	return score
}

// Hybrid combines a keyword score with a cosine similarity. The keyword score
// is halved and capped at 100; the similarity is mapped from [-1, 1] to
// [0, 100].
func Hybrid(keyword int, similarity float64, w Weights) float64 {
	kw := float64(keyword) / 2
	if kw > 100 {
		kw = 100
	}
	return w.Keyword*kw + w.Semantic*semanticPercent(similarity)
}

func semanticPercent(similarity float64) float64 {
	return (similarity + 1) * 50
}

// Rank scores docs against query. With a nil embedder, or when embedding
// fails, ranking is keyword only and the returned error explains why semantic
// scoring was skipped. Documents with no relevance are dropped.
func Rank(ctx context.Context, query string, docs []Document, embedder Embedder, w Weights) ([]Result, error) {
	words := Words(query)

	results := iter.Map(docs, func(doc *Document) Result {
		kw := KeywordScore(words, *doc)
		return Result{Document: *doc, KeywordScore: kw, Score: float64(kw)}
	})

	var semErr error
	if embedder != nil && len(docs) > 0 {
		semErr = addSemantic(ctx, query, results, embedder, w)
	}

	kept := results[:0]
	for _, r := range results {
		if r.Score > 0 || r.KeywordScore > 0 {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Key < kept[j].Key
	})
	return kept, semErr
}

func addSemantic(ctx context.Context, query string, results []Result, embedder Embedder, w Weights) error {
	texts := make([]string, 0, len(results)+1)
	texts = append(texts, query)
	index := make([]int, 0, len(results))
	for i, r := range results {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		texts = append(texts, r.Text)
		index = append(index, i)
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("semantic search unavailable: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("semantic search unavailable: expected %d vectors, got %d", len(texts), len(vectors))
	}

	queryVec := vectors[0]
	for n, i := range index {
		sim, err := CosineSimilarity(queryVec, vectors[n+1])
		if err != nil {
			continue
		}
		r := &results[i]
		r.SemanticScore = semanticPercent(sim)
		r.Score = Hybrid(r.KeywordScore, sim, w)
		r.UsedSemantic = true
	}
	return nil
}

// Text flattens the string leaves of a decoded payload, sorted by path so the
// result is stable, for scoring and embedding.
func Text(payload any) string {
	var parts []string
	collect("", payload, &parts)
	sort.Strings(parts)

	values := make([]string, 0, len(parts))
	for _, p := range parts {
		_, v, _ := strings.Cut(p, "\x00")
		values = append(values, v)
	}
	return strings.Join(values, " ")
}

func collect(path string, v any, out *[]string) {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" && !strings.HasPrefix(s, "data:") {
			*out = append(*out, path+"\x00"+s)
		}
	case map[string]any:
		for k, child := range val {
			collect(path+"."+k, child, out)
		}
	case []any:
		for i, child := range val {
			collect(fmt.Sprintf("%s[%08d]", path, i), child, out)
		}
	}
}
