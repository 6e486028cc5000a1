package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/providers/embedding"
	"github.com/calyxlabs/curator/internal/utils"
)

func reviewFixture(t *testing.T, nChunks int) (ReviewService, *fakeDocRepo, *fakeChunkRepo, *fakeVectorRepo, *fakeNotifier) {
	t.Helper()

	doc := &models.Document{
		ID:               "doc-1",
		OriginalFilename: "guide.pdf",
		DocType:          models.DocTypeFHIR,
		ProcessingStatus: models.DocStatusReview,
		TotalChunks:      nChunks,
	}
	docs := newFakeDocRepo(doc)

	meta, _ := json.Marshal(models.AIMetadata{
		Topic:          "interoperability",
		RelevanceScore: 0.9,
		UseCases:       []string{"integration"},
		KeyConcepts:    []string{"FHIR"},
	})
	chunks := newFakeChunkRepo()
	for i := 0; i < nChunks; i++ {
		chunks.rows[chunkID(i)] = &models.DocumentChunk{
			ID:              chunkID(i),
			DocumentID:      doc.ID,
			ChunkIndex:      i,
			ChunkText:       "chunk text",
			AIMetadata:      meta,
			ConfidenceScore: 0.8,
			ReviewStatus:    models.ReviewPending,
		}
	}

	vectors := &fakeVectorRepo{}
	notifier := &fakeNotifier{}
	settings := NewSettingsService(newFakeSettingRepo(), nil)
	providers := embedding.Registry{models.ProviderGemini: &fakeEmbedder{dims: 768}}

	svc := NewReviewService(docs, chunks, vectors, settings, providers, notifier, nil)
	return svc, docs, chunks, vectors, notifier
}

func chunkID(i int) string {
	return "chunk-" + string(rune('a'+i))
}

func TestApproveWritesOneVectorRecord(t *testing.T) {
	svc, docs, _, vectors, _ := reviewFixture(t, 2)
	ctx := context.Background()

	out, err := svc.Approve(ctx, curator(), chunkID(0), "looks good")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if out.Completed {
		t.Fatalf("document completed after 1 of 2 chunks")
	}
	if len(vectors.records) != 1 {
		t.Fatalf("vector records = %d, want 1", len(vectors.records))
	}

	rec := vectors.records[0]
	if rec.ChunkID != chunkID(0) || rec.DocumentID != "doc-1" {
		t.Fatalf("record keys = %q/%q", rec.ChunkID, rec.DocumentID)
	}
	if rec.CuratorName != "Cora Curator" || rec.SourceDocument != "guide.pdf" {
		t.Fatalf("provenance = %q/%q", rec.CuratorName, rec.SourceDocument)
	}
	if got := rec.EmbeddingGemini.Slice(); len(got) != 768 {
		t.Fatalf("gemini embedding dims = %d, want 768", len(got))
	}
	if got := rec.EmbeddingOpenAI.Slice(); len(got) != 0 {
		t.Fatalf("openai embedding should be empty, got %d dims", len(got))
	}

	doc, _ := docs.GetByID(ctx, "doc-1")
	if doc.ApprovedChunks != 1 {
		t.Fatalf("approved counter = %d, want 1", doc.ApprovedChunks)
	}
}

func TestRejectWritesNoVectorRecord(t *testing.T) {
	svc, docs, _, vectors, _ := reviewFixture(t, 2)
	ctx := context.Background()

	if _, err := svc.Reject(ctx, curator(), chunkID(0)); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if len(vectors.records) != 0 {
		t.Fatalf("vector records = %d, want 0", len(vectors.records))
	}

	doc, _ := docs.GetByID(ctx, "doc-1")
	if doc.RejectedChunks != 1 || doc.ApprovedChunks != 0 {
		t.Fatalf("counters = %d/%d, want 0/1", doc.ApprovedChunks, doc.RejectedChunks)
	}
}

func TestReReviewConflicts(t *testing.T) {
	svc, docs, _, vectors, _ := reviewFixture(t, 2)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, curator(), chunkID(0), ""); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	if _, err := svc.Approve(ctx, curator(), chunkID(0), ""); !utils.IsCode(err, utils.CodeConflict) {
		t.Fatalf("second Approve err = %v, want CONFLICT", err)
	}
	if _, err := svc.Reject(ctx, curator(), chunkID(0)); !utils.IsCode(err, utils.CodeConflict) {
		t.Fatalf("Reject after Approve err = %v, want CONFLICT", err)
	}

	// the conflict must not double-count or double-insert
	if len(vectors.records) != 1 {
		t.Fatalf("vector records = %d, want 1", len(vectors.records))
	}
	doc, _ := docs.GetByID(ctx, "doc-1")
	if doc.ApprovedChunks != 1 || doc.RejectedChunks != 0 {
		t.Fatalf("counters = %d/%d, want 1/0", doc.ApprovedChunks, doc.RejectedChunks)
	}
}

func TestReviewRequiresCuratorRole(t *testing.T) {
	svc, _, _, _, _ := reviewFixture(t, 1)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, regular(), chunkID(0), ""); !utils.IsCode(err, utils.CodeForbidden) {
		t.Fatalf("Approve as user err = %v, want FORBIDDEN", err)
	}
	inactive := curator()
	inactive.IsActive = false
	if _, err := svc.Reject(ctx, inactive, chunkID(0)); !utils.IsCode(err, utils.CodeForbidden) {
		t.Fatalf("Reject as inactive curator err = %v, want FORBIDDEN", err)
	}
}

func TestApproveRejectsOutOfRangeScores(t *testing.T) {
	svc, _, chunks, vectors, _ := reviewFixture(t, 1)
	ctx := context.Background()

	bad, _ := json.Marshal(map[string]any{"relevance_score": 1.5})
	chunks.rows[chunkID(0)].AIMetadata = bad

	if _, err := svc.Approve(ctx, curator(), chunkID(0), ""); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("Approve err = %v, want INVALID_ARGUMENT", err)
	}
	if len(vectors.records) != 0 {
		t.Fatalf("vector records = %d, want 0", len(vectors.records))
	}
	if chunks.rows[chunkID(0)].ReviewStatus != models.ReviewPending {
		t.Fatalf("chunk status = %q, want pending", chunks.rows[chunkID(0)].ReviewStatus)
	}
}

func TestDocumentCompletesAtLastChunk(t *testing.T) {
	svc, docs, _, vectors, notifier := reviewFixture(t, 3)
	ctx := context.Background()

	if out, err := svc.Approve(ctx, curator(), chunkID(0), ""); err != nil || out.Completed {
		t.Fatalf("chunk 0: err=%v completed=%v", err, out != nil && out.Completed)
	}
	if out, err := svc.Reject(ctx, curator(), chunkID(1)); err != nil || out.Completed {
		t.Fatalf("chunk 1: err=%v completed=%v", err, out != nil && out.Completed)
	}

	out, err := svc.Approve(ctx, curator(), chunkID(2), "")
	if err != nil {
		t.Fatalf("chunk 2: %v", err)
	}
	if !out.Completed {
		t.Fatalf("document not completed after all chunks reviewed")
	}
	if out.Progress.Approved != 2 || out.Progress.Rejected != 1 || out.Progress.Pending != 0 {
		t.Fatalf("progress = %+v", out.Progress)
	}
	if len(vectors.records) != 2 {
		t.Fatalf("vector records = %d, want 2", len(vectors.records))
	}

	doc, _ := docs.GetByID(ctx, "doc-1")
	if doc.ProcessingStatus != models.DocStatusCompleted {
		t.Fatalf("document status = %q, want completed", doc.ProcessingStatus)
	}
	if len(notifier.payloads) != 3 {
		t.Fatalf("progress notifications = %d, want 3", len(notifier.payloads))
	}
}

func TestEditMetadataShallowMerge(t *testing.T) {
	svc, _, chunks, _, _ := reviewFixture(t, 1)
	ctx := context.Background()

	merged, err := svc.EditMetadata(ctx, curator(), chunkID(0), map[string]any{
		"topic":           "billing codes",
		"relevance_score": 0.4,
	})
	if err != nil {
		t.Fatalf("EditMetadata: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(merged, &got); err != nil {
		t.Fatalf("unmarshal merged: %v", err)
	}
	if got["topic"] != "billing codes" {
		t.Fatalf("topic = %v, want overridden", got["topic"])
	}
	if got["relevance_score"] != 0.4 {
		t.Fatalf("relevance_score = %v, want 0.4", got["relevance_score"])
	}
	// untouched keys survive the merge
	if _, ok := got["key_concepts"]; !ok {
		t.Fatalf("key_concepts dropped by merge: %v", got)
	}

	row := chunks.rows[chunkID(0)]
	if row.MetadataEditedBy == nil || *row.MetadataEditedBy != "curator-1" {
		t.Fatalf("metadata_edited_by not recorded")
	}
}

func TestEditMetadataValidatesRelevance(t *testing.T) {
	svc, _, _, _, _ := reviewFixture(t, 1)

	_, err := svc.EditMetadata(context.Background(), curator(), chunkID(0), map[string]any{
		"relevance_score": -0.2,
	})
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
	}
}
