package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"veridian-hq/lattice/pkg/document"
	"veridian-hq/lattice/pkg/inference"
	"veridian-hq/lattice/pkg/parsing"
	"veridian-hq/lattice/pkg/requirement"
	"veridian-hq/lattice/pkg/requirement/catalog"
)

// Observer receives evaluation telemetry.
type Observer interface {
	// ObserveResult is invoked once per (document, requirement) evaluation.
	ObserveResult(method Method, level Level, duration time.Duration)

	// ObserveDocument is invoked once per completed document report.
	ObserveDocument(level Level, requirements int, duration time.Duration)
}

// Options configures an Evaluator.
type Options struct {
	// Semantic enables the model-backed strategy. When false every
	// requirement is evaluated with the keyword strategy.
	Semantic bool

	// Workers bounds the batch worker pool. Default: 4.
	Workers int

	// ExcerptLimit caps the document excerpt embedded in prompts, in runes.
	// Default: 2500.
	ExcerptLimit int

	// Logger receives evaluation events. Defaults to slog.Default.
	Logger *slog.Logger

	// Observer optionally receives evaluation telemetry.
	Observer Observer
}

// Evaluator evaluates documents against the requirement catalog.
type Evaluator struct {
	catalog      *catalog.Catalog
	client       inference.Client
	parser       *parsing.Parser
	semantic     bool
	workers      int
	excerptLimit int
	logger       *slog.Logger
	observer     Observer
}

// NewEvaluator wires an evaluator to its catalog and, when semantic
// evaluation is enabled, an inference client and response parser.
func NewEvaluator(cat *catalog.Catalog, client inference.Client, parser *parsing.Parser, opts Options) *Evaluator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	excerpt := opts.ExcerptLimit
	if excerpt <= 0 {
		excerpt = defaultExcerptLimit
	}
	semantic := opts.Semantic
	if client == nil || parser == nil {
		semantic = false
	}
	return &Evaluator{
		catalog:      cat,
		client:       client,
		parser:       parser,
		semantic:     semantic,
		workers:      workers,
		excerptLimit: excerpt,
		logger:       logger.With("component", "compliance.evaluator"),
		observer:     opts.Observer,
	}
}

// RelevantRequirements selects the catalog requirements relevant to a
// document: any keyword present in the content, or the category (or
// subcategory) appearing in the content or classification. When nothing
// matches, every mandatory requirement is evaluated instead, so a document
// is never silently passed because relevance filtering came up empty.
func (e *Evaluator) RelevantRequirements(doc *document.Document) []*requirement.Requirement {
	content := strings.ToLower(doc.Content)
	docType := strings.ToLower(doc.Classification)

	all := e.catalog.All()
	var relevant []*requirement.Requirement
	for _, req := range all {
		if requirementRelevant(req, content, docType) {
			relevant = append(relevant, req)
		}
	}

	if len(relevant) == 0 {
		for _, req := range all {
			if req.Type == requirement.TypeMandatory {
				relevant = append(relevant, req)
			}
		}
	}

	e.logger.Info("selected relevant requirements",
		"document", doc.ID(),
		"relevant", len(relevant),
		"total", len(all),
	)
	return relevant
}

func requirementRelevant(req *requirement.Requirement, content, docType string) bool {
	for _, kw := range req.Keywords {
		if strings.Contains(content, strings.ToLower(kw)) {
			return true
		}
	}
	category := strings.ToLower(req.Category)
	if category != "" && (strings.Contains(docType, category) || strings.Contains(content, category)) {
		return true
	}
	if sub := strings.ToLower(req.Subcategory); sub != "" && strings.Contains(content, sub) {
		return true
	}
	return false
}

// EvaluateRequirement evaluates one (document, requirement) pair. With
// semantic evaluation enabled it tries the semantic strategy first and falls
// back to the keyword strategy on any failure, marking the result's method
// as keyword.
func (e *Evaluator) EvaluateRequirement(ctx context.Context, doc *document.Document, req *requirement.Requirement) *Result {
	start := time.Now()
	var result *Result

	if e.semantic {
		semantic, err := e.EvaluateSemantic(ctx, doc, req)
		if err == nil {
			result = semantic
		} else {
			e.logger.Warn("semantic evaluation failed, falling back to keyword",
				"document", doc.ID(),
				"requirement", req.ID,
				"error", err,
			)
			result = e.EvaluateKeyword(doc, req)
		}
	} else {
		result = e.EvaluateKeyword(doc, req)
	}

	if e.observer != nil {
		e.observer.ObserveResult(result.Method, result.Level, time.Since(start))
	}
	return result
}

// EvaluateDocument evaluates a document against every relevant requirement
// and aggregates the results into a report. Unreadable documents yield an
// indeterminate report with an error entry in metadata instead of failing.
func (e *Evaluator) EvaluateDocument(ctx context.Context, doc *document.Document) *Report {
	start := time.Now()
	runID := uuid.NewString()
	e.logger.Info("evaluating document", "document", doc.ID(), "run_id", runID)

	if doc.Empty() {
		report := e.errorReport(doc, runID, "document has no readable content")
		e.observeDocument(report, 0, time.Since(start))
		return report
	}

	relevant := e.RelevantRequirements(doc)
	if len(relevant) == 0 {
		report := &Report{
			RunID:             runID,
			DocumentID:        doc.ID(),
			DocumentType:      doc.Classification,
			DocumentName:      doc.ID(),
			OverallCompliance: LevelNotApplicable,
			ConfidenceScore:   0.9,
			Summary:           "No relevant compliance requirements found for this document type.",
			Timestamp:         time.Now(),
		}
		e.observeDocument(report, 0, time.Since(start))
		return report
	}

	results := make([]*Result, 0, len(relevant))
	for _, req := range relevant {
		results = append(results, e.EvaluateRequirement(ctx, doc, req))
	}

	report := e.buildReport(doc, runID, relevant, results)
	e.logger.Info("completed document evaluation",
		"document", doc.ID(),
		"overall", report.OverallCompliance,
		"requirements", len(results),
	)
	e.observeDocument(report, len(results), time.Since(start))
	return report
}

// buildReport aggregates per-requirement results. The overall level follows
// the strictness rule: a blocking (mandatory or prohibited) non-compliant
// result dominates; then partial compliance or a non-compliant recommended
// requirement; then indeterminate results; otherwise fully compliant. The
// priority-weighted compliance score is reported in metadata only.
func (e *Evaluator) buildReport(doc *document.Document, runID string, reqs []*requirement.Requirement, results []*Result) *Report {
	counts := newLevelCounts()
	var confidenceSum float64
	blockingNon := false
	anyPartial := false
	anyIndeterminate := false

	var weightedScore, totalWeight float64
	for i, res := range results {
		counts[res.Level]++
		confidenceSum += res.ConfidenceScore

		req := reqs[i]
		blocking := req.Type == requirement.TypeMandatory || req.Type == requirement.TypeProhibited
		switch res.Level {
		case LevelNonCompliant:
			if blocking {
				blockingNon = true
			} else {
				anyPartial = true
			}
		case LevelPartiallyCompliant:
			anyPartial = true
		case LevelIndeterminate:
			anyIndeterminate = true
		}

		if score, scored := levelScore(res.Level); scored {
			weight := float64(req.Priority.Weight())
			weightedScore += score * weight
			totalWeight += weight
		}
	}

	overall := LevelFullyCompliant
	switch {
	case blockingNon:
		overall = LevelNonCompliant
	case anyPartial:
		overall = LevelPartiallyCompliant
	case anyIndeterminate:
		overall = LevelIndeterminate
	}

	complianceScore := 0.0
	if totalWeight > 0 {
		complianceScore = weightedScore / totalWeight
	}

	return &Report{
		RunID:             runID,
		DocumentID:        doc.ID(),
		DocumentType:      doc.Classification,
		DocumentName:      doc.ID(),
		OverallCompliance: overall,
		ConfidenceScore:   confidenceSum / float64(len(results)),
		Summary:           buildSummary(counts, len(results), complianceScore),
		Results:           results,
		Timestamp:         time.Now(),
		Metadata: map[string]any{
			"total_requirements":  len(results),
			"fully_compliant":     counts[LevelFullyCompliant],
			"partially_compliant": counts[LevelPartiallyCompliant],
			"non_compliant":       counts[LevelNonCompliant],
			"compliance_score":    complianceScore,
		},
	}
}

// levelScore maps a compliance level to its weighted-score contribution.
// Not-applicable and indeterminate results are excluded from scoring.
func levelScore(level Level) (float64, bool) {
	switch level {
	case LevelFullyCompliant:
		return 1.0, true
	case LevelPartiallyCompliant:
		return 0.5, true
	case LevelNonCompliant:
		return 0.0, true
	}
	return 0, false
}

func buildSummary(counts LevelCounts, total int, score float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document meets %d of %d requirements fully", counts[LevelFullyCompliant], total)
	if n := counts[LevelPartiallyCompliant]; n > 0 {
		fmt.Fprintf(&b, ", %d partially", n)
	}
	if n := counts[LevelNonCompliant]; n > 0 {
		fmt.Fprintf(&b, ", and fails %d", n)
	}
	fmt.Fprintf(&b, ". Overall compliance score: %.2f", score)
	return b.String()
}

func (e *Evaluator) errorReport(doc *document.Document, runID, message string) *Report {
	return &Report{
		RunID:             runID,
		DocumentID:        doc.ID(),
		DocumentType:      doc.Classification,
		DocumentName:      doc.ID(),
		OverallCompliance: LevelIndeterminate,
		Summary:           "Evaluation failed: " + message,
		Timestamp:         time.Now(),
		Metadata:          map[string]any{"error": message},
	}
}

func (e *Evaluator) observeDocument(report *Report, requirements int, d time.Duration) {
	if e.observer != nil {
		e.observer.ObserveDocument(report.OverallCompliance, requirements, d)
	}
}

// EvaluateDocuments evaluates a batch of documents on a bounded worker pool.
// Documents are independent: a failure in one yields an indeterminate report
// for that document only and never aborts the batch. The returned map is
// keyed by document ID; within each report, results follow catalog insertion
// order, so assembly is deterministic regardless of completion order.
func (e *Evaluator) EvaluateDocuments(ctx context.Context, docs []*document.Document) map[string]*Report {
	reports := make(map[string]*Report, len(docs))
	if len(docs) == 0 {
		return reports
	}

	workers := e.workers
	if workers > len(docs) {
		workers = len(docs)
	}

	jobs := make(chan *document.Document)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				report := e.evaluateIsolated(ctx, doc)
				mu.Lock()
				reports[doc.ID()] = report
				mu.Unlock()
			}
		}()
	}

	for _, doc := range docs {
		jobs <- doc
	}
	close(jobs)
	wg.Wait()

	return reports
}

// evaluateIsolated converts a panic during one document's evaluation into an
// indeterminate report so the batch keeps going.
func (e *Evaluator) evaluateIsolated(ctx context.Context, doc *document.Document) (report *Report) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("document evaluation panicked",
				"document", doc.ID(),
				"panic", r,
			)
			report = e.errorReport(doc, uuid.NewString(), fmt.Sprintf("evaluation failure: %v", r))
		}
	}()
	return e.EvaluateDocument(ctx, doc)
}

// sortedIDs returns the map keys in ascending order.
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
