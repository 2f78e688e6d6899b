package descriptions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/wiebekaai/ecommerce-skills/pkg/agent"
	"github.com/wiebekaai/ecommerce-skills/pkg/pipeline"
)

// fakeGenerationService answers every call with one result per listed
// product, derived from the prompt's numbered titles so order mixups
// are detectable.
type fakeGenerationService struct {
	mu         sync.Mutex
	batchSizes []int
	subtype    string // non-empty forces a failure envelope
	message    string
	miscount   int // when > 0, return this many results instead
}

func (f *fakeGenerationService) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		titles := promptTitles(req.Prompt)

		f.mu.Lock()
		f.batchSizes = append(f.batchSizes, len(titles))
		subtype, message, miscount := f.subtype, f.message, f.miscount
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		if subtype != "" {
			json.NewEncoder(w).Encode(map[string]any{"subtype": subtype, "message": message})
			return
		}

		count := len(titles)
		if miscount > 0 {
			count = miscount
		}

		products := make([]map[string]string, 0, count)
		for i := 0; i < count; i++ {
			title := fmt.Sprintf("surplus-%d", i)
			if i < len(titles) {
				title = titles[i]
			}
			products = append(products, map[string]string{
				"description":     "short copy for " + title,
				"longDescription": "long copy for " + title,
			})
		}

		json.NewEncoder(w).Encode(map[string]any{
			"subtype":        "success",
			"result":         map[string]any{"products": products},
			"total_cost_usd": 0.01,
			"usage":          map[string]any{"input_tokens": 100, "output_tokens": 50},
		})
	}
}

func (f *fakeGenerationService) sizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.batchSizes...)
}

// promptTitles pulls the numbered titles back out of a prompt.
func promptTitles(prompt string) []string {
	const marker = ". Title: "

	var titles []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, marker); i > 0 {
			titles = append(titles, line[i+len(marker):])
		}
	}
	return titles
}

func newTestGenerator(t *testing.T, svc *fakeGenerationService, cfg GeneratorConfig) (*Generator, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)

	client, err := agent.New(agent.Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("agent.New() error = %v", err)
	}

	var buf bytes.Buffer
	return NewGenerator(client, pipeline.NewEmitter(&buf), cfg), &buf
}

func testRecords(n int, described bool) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			ID:     json.RawMessage(fmt.Sprintf(`"gid://shopify/Product/%d"`, i+1)),
			Handle: fmt.Sprintf("product-%d", i+1),
			Title:  fmt.Sprintf("Product %d", i+1),
		}
		if described {
			records[i].Description = "existing short copy"
			records[i].LongDescription = "existing long copy"
		}
	}
	return records
}

func inputStream(t *testing.T, records []Record) *strings.Reader {
	t.Helper()

	var b strings.Builder
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("marshal record: %v", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return strings.NewReader(b.String())
}

func emittedResults(t *testing.T, buf *bytes.Buffer) []Generated {
	t.Helper()

	var out []Generated
	for _, line := range strings.Split(buf.String(), "\n") {
		if line == "" {
			continue
		}
		var gen Generated
		if err := json.Unmarshal([]byte(line), &gen); err != nil {
			t.Fatalf("parse output line %q: %v", line, err)
		}
		out = append(out, gen)
	}
	return out
}

func TestGeneratorRun(t *testing.T) {
	svc := &fakeGenerationService{}
	gen, buf := newTestGenerator(t, svc, GeneratorConfig{BatchSize: 2})

	totals, err := gen.Run(context.Background(), inputStream(t, testRecords(5, false)))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if totals.Records != 5 || totals.Skipped != 0 || totals.Batches != 3 {
		t.Errorf("totals = %+v, want 5 records, 0 skipped, 3 batches", totals)
	}
	if totals.InputTokens != 300 || totals.OutputTokens != 150 {
		t.Errorf("tokens = %d in / %d out, want 300 / 150", totals.InputTokens, totals.OutputTokens)
	}
	if math.Abs(totals.CostUSD-0.03) > 1e-9 {
		t.Errorf("CostUSD = %v, want 0.03", totals.CostUSD)
	}

	results := emittedResults(t, buf)
	if len(results) != 5 {
		t.Fatalf("emitted %d lines, want 5", len(results))
	}

	// Every line's copy must come from its own record, whatever order
	// the batches completed in.
	for _, got := range results {
		if want := "short copy for " + got.Title; got.Description != want {
			t.Errorf("result for %q has Description %q, want %q", got.Title, got.Description, want)
		}
		if want := "long copy for " + got.Title; got.LongDescription != want {
			t.Errorf("result for %q has LongDescription %q, want %q", got.Title, got.LongDescription, want)
		}
	}

	// Each dispatched batch must land as one contiguous block of lines
	// in its original internal order.
	wantBatches := [][]string{
		{"product-1", "product-2"},
		{"product-3", "product-4"},
		{"product-5"},
	}
	remaining := make(map[int]bool, len(wantBatches))
	for i := range wantBatches {
		remaining[i] = true
	}
	for pos := 0; pos < len(results); {
		matched := false
		for i, batch := range wantBatches {
			if !remaining[i] || pos+len(batch) > len(results) {
				continue
			}
			ok := true
			for j, handle := range batch {
				if results[pos+j].Handle != handle {
					ok = false
					break
				}
			}
			if ok {
				delete(remaining, i)
				pos += len(batch)
				matched = true
				break
			}
		}
		if !matched {
			t.Fatalf("output at line %d does not start a contiguous batch: %v", pos, results)
		}
	}
}

func TestGeneratorRunEchoesIDsVerbatim(t *testing.T) {
	svc := &fakeGenerationService{}
	gen, buf := newTestGenerator(t, svc, GeneratorConfig{BatchSize: 5})

	input := strings.NewReader(
		`{"id": 4711, "handle": "numeric-id", "title": "Numeric"}` + "\n" +
			`{"id": "gid://shopify/Product/1", "handle": "string-id", "title": "String"}` + "\n")

	if _, err := gen.Run(context.Background(), input); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	results := emittedResults(t, buf)
	if len(results) != 2 {
		t.Fatalf("emitted %d lines, want 2", len(results))
	}

	wantIDs := map[string]string{
		"numeric-id": "4711",
		"string-id":  `"gid://shopify/Product/1"`,
	}
	for _, got := range results {
		if want := wantIDs[got.Handle]; string(got.ID) != want {
			t.Errorf("id for %s = %s, want %s", got.Handle, got.ID, want)
		}
	}
}

func TestGeneratorSkipsDescribedRecords(t *testing.T) {
	svc := &fakeGenerationService{}
	gen, buf := newTestGenerator(t, svc, GeneratorConfig{})

	records := append(testRecords(20, true), testRecords(5, false)...)
	for i := 20; i < 25; i++ {
		records[i].Handle = fmt.Sprintf("eligible-%d", i-19)
	}

	totals, err := gen.Run(context.Background(), inputStream(t, records))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if totals.Skipped != 20 || totals.Records != 5 || totals.Batches != 1 {
		t.Errorf("totals = %+v, want 20 skipped, 5 records, 1 batch", totals)
	}

	if got := svc.sizes(); len(got) != 1 || got[0] != 5 {
		t.Errorf("dispatched batch sizes = %v, want [5]", got)
	}

	results := emittedResults(t, buf)
	if len(results) != 5 {
		t.Fatalf("emitted %d lines, want 5", len(results))
	}
	for _, got := range results {
		if !strings.HasPrefix(got.Handle, "eligible-") {
			t.Errorf("skipped record %q was emitted", got.Handle)
		}
	}
}

func TestGeneratorForceRegeneratesEverything(t *testing.T) {
	svc := &fakeGenerationService{}
	gen, _ := newTestGenerator(t, svc, GeneratorConfig{BatchSize: 2, Force: true})

	totals, err := gen.Run(context.Background(), inputStream(t, testRecords(3, true)))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if totals.Records != 3 || totals.Skipped != 0 || totals.Batches != 2 {
		t.Errorf("totals = %+v, want 3 records, 0 skipped, 2 batches", totals)
	}
}

func TestGeneratorEmptyInput(t *testing.T) {
	svc := &fakeGenerationService{}
	gen, buf := newTestGenerator(t, svc, GeneratorConfig{})

	totals, err := gen.Run(context.Background(), strings.NewReader(""))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if totals != (pipeline.Totals{}) {
		t.Errorf("totals = %+v, want all zero", totals)
	}
	if len(svc.sizes()) != 0 {
		t.Errorf("dispatched %v batches for empty input", svc.sizes())
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want none", buf.String())
	}
}

func TestGeneratorMalformedInputLine(t *testing.T) {
	svc := &fakeGenerationService{}
	gen, _ := newTestGenerator(t, svc, GeneratorConfig{})

	input := strings.NewReader(
		`{"id": 1, "handle": "ok", "title": "OK"}` + "\n" +
			"{not json\n")

	_, err := gen.Run(context.Background(), input)
	if err == nil {
		t.Fatal("Run() error = nil, want *InputError")
	}

	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("error = %v, want *InputError", err)
	}
	if inputErr.Line != 2 {
		t.Errorf("Line = %d, want 2", inputErr.Line)
	}
}

func TestGeneratorCountMismatch(t *testing.T) {
	svc := &fakeGenerationService{miscount: 1}
	gen, buf := newTestGenerator(t, svc, GeneratorConfig{BatchSize: 5})

	_, err := gen.Run(context.Background(), inputStream(t, testRecords(2, false)))
	if err == nil {
		t.Fatal("Run() error = nil, want *CountError")
	}

	var countErr *CountError
	if !errors.As(err, &countErr) {
		t.Fatalf("error = %v, want *CountError", err)
	}
	if countErr.Want != 2 || countErr.Got != 1 {
		t.Errorf("CountError = want %d got %d, expected want 2 got 1", countErr.Want, countErr.Got)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want none for a mismatched batch", buf.String())
	}
}

func TestGeneratorFailureSubtypePropagates(t *testing.T) {
	svc := &fakeGenerationService{subtype: "error_max_turns", message: "ran out of turns"}
	gen, buf := newTestGenerator(t, svc, GeneratorConfig{})

	_, err := gen.Run(context.Background(), inputStream(t, testRecords(2, false)))
	if err == nil {
		t.Fatal("Run() error = nil, want *agent.ResultError")
	}

	var resultErr *agent.ResultError
	if !errors.As(err, &resultErr) {
		t.Fatalf("error = %v, want *agent.ResultError", err)
	}
	if resultErr.Subtype != "error_max_turns" {
		t.Errorf("Subtype = %q, want %q", resultErr.Subtype, "error_max_turns")
	}
	if !strings.Contains(err.Error(), "ran out of turns") {
		t.Errorf("Error() = %q, want the reported message", err.Error())
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want none for a failed batch", buf.String())
	}
}
