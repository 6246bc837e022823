package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pders01/draftkeeper/internal/models"
	"github.com/pders01/draftkeeper/internal/ollama"
	"github.com/pders01/draftkeeper/internal/search"
)

var (
	searchEntity  string
	searchLimit   int
	searchJSON    bool
	searchToon    bool
	searchNoEmbed bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search drafts using hybrid keyword and semantic search",
	Long: `Search through draft keys, entity types and form content.

Combines keyword matching with semantic similarity when embeddings are
enabled and an Ollama server is reachable.

Example:
  drafts search "quarterly report"
  drafts search --entity job-posting "remote"

Search modes:
  - Keyword only: When embeddings are disabled or Ollama is not running
  - Hybrid: Combines keyword (30%) + semantic (70%) when embeddings available`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchEntity, "entity", "", "Filter by entity type")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	searchCmd.Flags().BoolVar(&searchToon, "toon", false, "Output in LLM-friendly toon format")
	searchCmd.Flags().BoolVar(&searchNoEmbed, "no-embed", false, "Keyword search only")
}

type searchHit struct {
	Key           string  `json:"key"`
	Entity        string  `json:"entity,omitempty"`
	SavedAt       string  `json:"saved_at"`
	Score         float64 `json:"score"`
	KeywordScore  int     `json:"keyword_score"`
	SemanticScore float64 `json:"semantic_score,omitempty"`
	Preview       string  `json:"preview"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, err := requireStore()
	if err != nil {
		return err
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	query := args[0]

	snaps, err := loadSnapshots(ctx, store, "")
	if err != nil {
		return err
	}

	entity := models.Slug(searchEntity)
	docs := make([]search.Document, 0, len(snaps))
	byKey := make(map[string]models.Snapshot, len(snaps))
	for _, s := range snaps {
		if entity != "" && s.Entity != entity {
			continue
		}
		docs = append(docs, search.Document{Key: s.Key, Entity: s.Entity, Text: search.Text(s.Payload)})
		byKey[s.Key] = s
	}

	structured := searchJSON || searchToon
	if len(docs) == 0 {
		if done, err := printStructured([]searchHit{}, searchJSON, searchToon); done {
			return err
		}
		fmt.Println("No drafts found")
		return nil
	}

	var embedder search.Embedder
	if cfg.Embeddings.Enabled && !searchNoEmbed && ollama.IsAvailable(ctx, cfg.Embeddings.OllamaURL) {
		client, err := ollama.NewClient(cfg.Embeddings.OllamaURL, cfg.Embeddings.Model, appLogger)
		if err == nil {
			embedder = client
		} else {
			appLogger.Warn("embeddings unavailable", zap.Error(err))
		}
	}

	weights := search.Weights{Keyword: cfg.Search.KeywordWeight, Semantic: cfg.Search.SemanticWeight}
	results, semErr := search.Rank(ctx, query, docs, embedder, weights)
	if semErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", semErr)
	}

	if !structured {
		if embedder != nil && semErr == nil {
			fmt.Println("Using hybrid search (keyword + semantic)")
		} else {
			fmt.Println("Using keyword search only")
		}
	}

	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, searchHit{
			Key:           r.Key,
			Entity:        r.Entity,
			SavedAt:       formatSavedAt(byKey[r.Key].SavedAt),
			Score:         r.Score,
			KeywordScore:  r.KeywordScore,
			SemanticScore: r.SemanticScore,
			Preview:       truncate(r.Text, 80),
		})
	}

	if done, err := printStructured(hits, searchJSON, searchToon); done {
		return err
	}

	if len(hits) == 0 {
		fmt.Println("No drafts match the search query")
		return nil
	}

	fmt.Printf("\nFound %d matching draft(s):\n\n", len(hits))
	for i, h := range hits {
		scoreDisplay := fmt.Sprintf("%.1f", h.Score)
		if results[i].UsedSemantic {
			scoreDisplay += fmt.Sprintf(" (keyword: %d, semantic: %.1f%%)", h.KeywordScore, h.SemanticScore)
		} else {
			scoreDisplay += " (keyword only)"
		}

		fmt.Printf("%d. %s [score: %s]\n", i+1, h.Key, scoreDisplay)
		if h.Entity != "" {
			fmt.Printf("   Entity:  %s\n", h.Entity)
		}
		fmt.Printf("   Saved:   %s\n", h.SavedAt)
		if h.Preview != "" {
			fmt.Printf("   Content: %s\n", h.Preview)
		}
		fmt.Println()
	}

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
