package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"campusportal/internal/model"

	"github.com/jackc/pgx/v5"
)

type fakeForumRepo struct {
	mu       sync.Mutex
	topics   map[string]*model.Topic
	messages map[string][]model.TopicMessage
	nextID   int
}

func newFakeForumRepo() *fakeForumRepo {
	return &fakeForumRepo{topics: map[string]*model.Topic{}, messages: map[string][]model.TopicMessage{}}
}

func (r *fakeForumRepo) id() string {
	r.nextID++
	return fmt.Sprintf("id-%d", r.nextID)
}

func (r *fakeForumRepo) ListTopics(context.Context) ([]model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Topic
	for _, t := range r.topics {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeForumRepo) GetTopic(_ context.Context, id string) (*model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[id]
	if !ok {
		return nil, fmt.Errorf("getting topic %s: %w", id, pgx.ErrNoRows)
	}
	cp := *t
	return &cp, nil
}

func (r *fakeForumRepo) CreateTopic(_ context.Context, t *model.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	t.CreatedAt = time.Now()
	cp := *t
	r.topics[t.ID] = &cp
	return nil
}

func (r *fakeForumRepo) DeleteTopic(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.topics[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.topics, id)
	delete(r.messages, id)
	return nil
}

func (r *fakeForumRepo) ListMessages(_ context.Context, topicID string) ([]model.TopicMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.TopicMessage(nil), r.messages[topicID]...), nil
}

func (r *fakeForumRepo) AddMessage(_ context.Context, m *model.TopicMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[m.TopicID]
	if !ok {
		return pgx.ErrNoRows
	}
	m.ID = r.id()
	m.CreatedAt = time.Now()
	t.MessagesCount++
	r.messages[m.TopicID] = append(r.messages[m.TopicID], *m)
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]model.Product
	nextID   int
	failNext error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]model.Product{}}
}

func (r *fakeProductRepo) ListProducts(context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) ListProductsByOwner(_ context.Context, owner string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) GetProduct(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("getting product %s: %w", id, pgx.ErrNoRows)
	}
	return &p, nil
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}
	r.nextID++
	p.ID = fmt.Sprintf("p-%d", r.nextID)
	p.CreatedAt = time.Now()
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	p.UpdatedAt = &now
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.products, id)
	return nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return nil
}

func (s *fakeObjectStore) PublicURL(key string) string {
	return "https://cdn.test/marketplace/" + key
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []model.Review
	lists   int
}

func (r *fakeReviewRepo) CreateReview(_ context.Context, rv *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv.ID = fmt.Sprintf("r-%d", len(r.reviews)+1)
	rv.CreatedAt = time.Now()
	r.reviews = append(r.reviews, *rv)
	return nil
}

func (r *fakeReviewRepo) ListReviewsByProfessor(_ context.Context, professorID string) ([]model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	var out []model.Review
	for i := len(r.reviews) - 1; i >= 0; i-- {
		if r.reviews[i].ProfessorID == professorID {
			out = append(out, r.reviews[i])
		}
	}
	return out, nil
}

var (
	ana   = model.Identity{UserID: "u1", Email: "ana@example.com", DisplayName: "Ana"}
	luis  = model.Identity{UserID: "u2", Email: "luis@example.com"}
	admin = model.Identity{UserID: "a1", DisplayName: "Admin", Role: model.RoleAdmin}
)
