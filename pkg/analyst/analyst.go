// Package analyst answers free-text questions about the review database by
// asking a hosted model for one SQL query, executing it read-only, and
// returning the query text with the results so the caller can audit what ran.
package analyst

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	commonerrors "github.com/scorchlab/litpipe/pkg/common/errors"
	"github.com/scorchlab/litpipe/pkg/prompt"
	"github.com/scorchlab/litpipe/pkg/store"
)

//go:embed prompts/nl_to_sql.prompt
var nlPromptText []byte

// Analyst holds the read-only store and the translation model.
type Analyst struct {
	store  *store.Store
	client *genai.Client
	model  *genai.GenerativeModel
	tmpl   *prompt.Prompt

	schemaInfo string
	columns    []string
}

// New builds an Analyst over an already-opened read-only store. The schema
// inventory is collected once; the schema is fixed for the life of a session.
func New(ctx context.Context, s *store.Store, apiKey, modelName string) (*Analyst, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not found")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.0)

	tmpl, err := prompt.Parse(nlPromptText)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to parse NL-to-SQL prompt: %w", err)
	}

	cols, err := s.DescribeSchema()
	if err != nil {
		client.Close()
		return nil, err
	}
	var names []string
	for _, c := range cols {
		names = append(names, c.Column)
	}

	return &Analyst{
		store:      s,
		client:     client,
		model:      model,
		tmpl:       tmpl,
		schemaInfo: store.FormatSchema(cols),
		columns:    names,
	}, nil
}

// Close releases the model client. The store is owned by the caller.
func (a *Analyst) Close() {
	if a.client != nil {
		a.client.Close()
	}
}

// Answer holds one audited question/query/result exchange.
type Answer struct {
	Question string
	Response string
	SQL      string
	Result   *store.QueryResult
}

// Ask translates one question to SQL and executes it. A query that fails to
// execute is surfaced as an error carrying the offending SQL; there is no
// repair or retry loop.
func (a *Analyst) Ask(ctx context.Context, question string) (*Answer, error) {
	promptText, err := a.tmpl.Execute(map[string]string{
		"SchemaInfo": a.schemaInfo,
		"Question":   question,
	})
	if err != nil {
		return nil, err
	}

	resp, err := a.model.GenerateContent(ctx, genai.Text(promptText))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini request failed: %v", commonerrors.ErrExternalCall, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: gemini returned no candidates", commonerrors.ErrMalformedOutput)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	response := sb.String()

	answer := &Answer{Question: question, Response: response}

	sql := ExtractSQL(response)
	if sql == "" {
		// The model answered in prose; surface it as-is.
		return answer, nil
	}
	answer.SQL = sql

	if err := ValidateReadOnly(sql); err != nil {
		return answer, fmt.Errorf("%w: %v\nQuery was:\n%s", commonerrors.ErrQueryFailed, err, sql)
	}

	result, err := a.store.Execute(sql)
	if err != nil {
		return answer, a.decorateQueryError(err, sql)
	}
	answer.Result = result
	return answer, nil
}

// decorateQueryError attaches the offending SQL and, for unknown-column
// errors, the closest known column names.
func (a *Analyst) decorateQueryError(err error, sql string) error {
	msg := fmt.Sprintf("%v\nQuery was:\n%s", err, sql)
	if col := ExtractUnknownColumn(err.Error()); col != "" {
		if suggestions := SuggestColumns(col, a.columns); len(suggestions) > 0 {
			msg += fmt.Sprintf("\nDid you mean: %s", strings.Join(suggestions, ", "))
		}
	}
	return fmt.Errorf("%s", msg)
}

// RunOnce answers a single question and prints the audited exchange.
func (a *Analyst) RunOnce(ctx context.Context, question string) error {
	fmt.Printf("\n🔍 Query: %s\n", question)
	fmt.Println("💭 Analyzing...")

	answer, err := a.Ask(ctx, question)
	if err != nil {
		if answer != nil && answer.SQL != "" {
			fmt.Printf("\n📊 SQL Query:\n%s\n", answer.SQL)
		}
		return err
	}
	printAnswer(answer)
	return nil
}

// RunInteractive runs the question loop until exit/quit or EOF. Each
// question is independent; a failed query is reported and the loop goes on.
func (a *Analyst) RunInteractive(ctx context.Context) error {
	total, err := a.store.CountReviews()
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Literature Analyst")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Database: %s\n", a.store.Path())
	fmt.Printf("Reviews: %d\n", total)
	fmt.Println("\nAsk questions about your literature review data. Examples:")
	fmt.Println("  - How many papers were published each year?")
	fmt.Println("  - Show me papers with high relevance ratings")
	fmt.Println("  - What are the most common health outcomes?")
	fmt.Println("\nType 'exit' or 'quit' to end the session.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n🔍 Query: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "q" {
			break
		}

		fmt.Println("💭 Analyzing...")
		answer, err := a.Ask(ctx, line)
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			continue
		}
		printAnswer(answer)
	}

	fmt.Println("\n✓ Session ended. Goodbye!")
	return scanner.Err()
}

func printAnswer(answer *Answer) {
	if answer.SQL == "" {
		fmt.Printf("\n💬 Response:\n%s\n", answer.Response)
		return
	}
	fmt.Printf("\n📊 SQL Query:\n%s\n", answer.SQL)
	if answer.Result != nil {
		fmt.Println("\n✓ Results:")
		fmt.Println(FormatResults(answer.Result))
		fmt.Printf("(%d rows)\n", len(answer.Result.Rows))
	}
}
