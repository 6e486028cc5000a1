package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/calyxlabs/curator/internal/models"
	pgrepo "github.com/calyxlabs/curator/internal/repositories/postgres"
	"github.com/calyxlabs/curator/internal/utils"
)

func curator() *models.Profile {
	return &models.Profile{ID: "curator-1", FullName: "Cora Curator", Role: models.RoleCurator, IsActive: true}
}

func admin() *models.Profile {
	return &models.Profile{ID: "admin-1", FullName: "Ada Admin", Role: models.RoleAdmin, IsActive: true}
}

func regular() *models.Profile {
	return &models.Profile{ID: "user-1", Role: models.RoleUser, IsActive: true}
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	rows     map[string]*models.Profile
	failNext error
}

func newFakeProfileRepo(seed ...*models.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{rows: map[string]*models.Profile{}}
	for _, p := range seed {
		cp := *p
		r.rows[p.ID] = &cp
	}
	return r
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) List(ctx context.Context) ([]models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Profile, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProfileRepo) CreateIfAbsent(ctx context.Context, p *models.Profile) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return false, err
	}
	if _, ok := r.rows[p.ID]; ok {
		return false, nil
	}
	cp := *p
	r.rows[p.ID] = &cp
	return true, nil
}

func (r *fakeProfileRepo) UpdateName(ctx context.Context, id, fullName string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	p.FullName = fullName
	p.UpdatedAt = at
	return nil
}

func (r *fakeProfileRepo) UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	p.Role = role
	p.UpdatedAt = at
	return nil
}

func (r *fakeProfileRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	p.IsActive = active
	p.UpdatedAt = at
	return nil
}

type fakeDocRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Document
}

func newFakeDocRepo(seed ...*models.Document) *fakeDocRepo {
	r := &fakeDocRepo{rows: map[string]*models.Document{}}
	for _, d := range seed {
		cp := *d
		r.rows[d.ID] = &cp
	}
	return r
}

func (r *fakeDocRepo) Insert(ctx context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.rows[d.ID] = &cp
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocRepo) List(ctx context.Context, limit int) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Document, 0, len(r.rows))
	for _, d := range r.rows {
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDocRepo) TransitionStatus(ctx context.Context, id string, from []models.DocumentStatus, to models.DocumentStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if d.ProcessingStatus == f {
			d.ProcessingStatus = to
			d.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDocRepo) MarkFailed(ctx context.Context, id, message string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	if d.ProcessingStatus == models.DocStatusCompleted || d.ProcessingStatus == models.DocStatusFailed {
		return nil
	}
	d.ProcessingStatus = models.DocStatusFailed
	d.ErrorMessage = message
	d.UpdatedAt = at
	return nil
}

func (r *fakeDocRepo) SetTotalChunks(ctx context.Context, id string, total int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	d.TotalChunks = total
	d.UpdatedAt = at
	return nil
}

func (r *fakeDocRepo) IncrementApproved(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	d.ApprovedChunks++
	d.UpdatedAt = at
	return nil
}

func (r *fakeDocRepo) IncrementRejected(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	d.RejectedChunks++
	d.UpdatedAt = at
	return nil
}

type fakeChunkRepo struct {
	mu   sync.Mutex
	rows map[string]*models.DocumentChunk
}

func newFakeChunkRepo(seed ...*models.DocumentChunk) *fakeChunkRepo {
	r := &fakeChunkRepo{rows: map[string]*models.DocumentChunk{}}
	for _, c := range seed {
		cp := *c
		r.rows[c.ID] = &cp
	}
	return r
}

func (r *fakeChunkRepo) InsertBatch(ctx context.Context, chunks []models.DocumentChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range chunks {
		cp := chunks[i]
		r.rows[cp.ID] = &cp
	}
	return nil
}

func (r *fakeChunkRepo) GetByID(ctx context.Context, id string) (*models.DocumentChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DocumentChunk
	for _, c := range r.rows {
		if c.DocumentID == documentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeChunkRepo) Review(ctx context.Context, id string, from []models.ReviewStatus, to models.ReviewStatus, reviewerID, notes string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if c.ReviewStatus == f {
			c.ReviewStatus = to
			c.ReviewedBy = &reviewerID
			c.ReviewedAt = &at
			c.CuratorNotes = notes
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChunkRepo) UpdateMetadata(ctx context.Context, id string, merged datatypes.JSON, editorID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	c.AIMetadata = merged
	c.MetadataEditedBy = &editorID
	c.MetadataEditedAt = &at
	return nil
}

func (r *fakeChunkRepo) CountByStatus(ctx context.Context, documentID string) (map[models.ReviewStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[models.ReviewStatus]int64{}
	for _, c := range r.rows {
		if c.DocumentID == documentID {
			out[c.ReviewStatus]++
		}
	}
	return out, nil
}

type fakeVectorRepo struct {
	mu      sync.Mutex
	records []models.VectorRecord
	results []pgrepo.SearchResult

	lastProvider models.EmbeddingProvider
	lastOpts     pgrepo.SearchOptions
}

func (r *fakeVectorRepo) Insert(ctx context.Context, v *models.VectorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *v)
	return nil
}

func (r *fakeVectorRepo) Search(ctx context.Context, provider models.EmbeddingProvider, query pgvector.Vector, opts pgrepo.SearchOptions) ([]pgrepo.SearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastProvider = provider
	r.lastOpts = opts
	return r.results, nil
}

func (r *fakeVectorRepo) DeleteByChunk(ctx context.Context, chunkID string) error { return nil }

func (r *fakeVectorRepo) DeleteByDocument(ctx context.Context, documentID string) error { return nil }

type fakeSettingRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Setting
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{rows: map[string]*models.Setting{}}
}

func (r *fakeSettingRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[key]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSettingRepo) All(ctx context.Context) ([]models.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Setting, 0, len(r.rows))
	for _, s := range r.rows {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSettingRepo) Upsert(ctx context.Context, s *models.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.rows[s.Key] = &cp
	return nil
}

// fakeEmbedder returns a constant-valued vector of the requested width.
type fakeEmbedder struct {
	dims int
	err  error

	mu    sync.Mutex
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = 0.1
	}
	return v, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []any
}

func (n *fakeNotifier) PublishProgress(ctx context.Context, documentID string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return nil
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *fakeQueue) Enqueue(ctx context.Context, documentID string) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, documentID)
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects []string
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects = append(u.objects, objectName)
	return objectName, nil
}

var errBoom = errors.New("boom")
