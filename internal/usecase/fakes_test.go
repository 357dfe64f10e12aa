package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/email"
	"github.com/goosetrack/goosetrack-api/internal/oauth"
)

// ---- in-memory store ----

type memStore struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*domain.User
	tasks   map[string]*domain.Task
	reviews map[string]*domain.Review
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*domain.User),
		tasks:   make(map[string]*domain.Task),
		reviews: make(map[string]*domain.Review),
	}
}

func (s *memStore) nextID() string {
	s.seq++
	return fmt.Sprintf("id-%d", s.seq)
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	c := *u
	c.ID = r.s.nextID()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) FindByEmail(_ context.Context, addr string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == addr {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) EmailTakenByOther(_ context.Context, addr, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == addr && u.ID != id {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) SetTokens(_ context.Context, id string, pair domain.TokenPair) error {
	return r.mutate(id, func(u *domain.User) { setSession(u, pair) })
}

func (r memUsers) RotateRefreshToken(_ context.Context, oldRefresh string, pair domain.TokenPair) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if oldRefresh != "" && u.RefreshToken == oldRefresh {
			setSession(u, pair)
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) ClearTokens(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) {
		u.AccessToken, u.RefreshToken, u.SessionExpiresAt = "", "", nil
	})
}

func (r memUsers) MarkFederated(_ context.Context, id string, pair domain.TokenPair) error {
	return r.mutate(id, func(u *domain.User) {
		u.Federated = true
		setSession(u, pair)
	})
}

func (r memUsers) ClearExpiredSessions(_ context.Context, cutoff time.Time, limit int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, u := range r.s.users {
		if n == limit {
			break
		}
		if u.SessionExpiresAt != nil && u.SessionExpiresAt.Before(cutoff) {
			u.AccessToken, u.RefreshToken, u.SessionExpiresAt = "", "", nil
			n++
		}
	}
	return n, nil
}

func (r memUsers) UpdateProfile(_ context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	var out domain.User
	err := r.mutate(id, func(u *domain.User) {
		u.Email = upd.Email
		for dst, src := range map[*string]*string{
			&u.Username: upd.Username, &u.Avatar: upd.Avatar, &u.Birthday: upd.Birthday,
			&u.Skype: upd.Skype, &u.Phone: upd.Phone,
		} {
			if src != nil {
				*dst = *src
			}
		}
		out = *u
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return r.mutate(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r memUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r memUsers) mutate(id string, fn func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func setSession(u *domain.User, pair domain.TokenPair) {
	exp := pair.RefreshExpiresAt
	u.AccessToken, u.RefreshToken, u.SessionExpiresAt = pair.AccessToken, pair.RefreshToken, &exp
}

type memTasks struct{ s *memStore }

func (r memTasks) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *t
	c.ID = r.s.nextID()
	r.s.tasks[c.ID] = &c
	out := c
	return &out, nil
}

func (r memTasks) ListByDatePrefix(_ context.Context, ownerID, prefix string) ([]*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range r.s.tasks {
		if t.OwnerID == ownerID && strings.HasPrefix(t.Date, prefix) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r memTasks) Update(_ context.Context, t *domain.Task) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tasks[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return nil, domain.ErrTaskNotAllowed
	}
	c := *t
	r.s.tasks[t.ID] = &c
	out := c
	return &out, nil
}

func (r memTasks) Delete(_ context.Context, id, ownerID string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tasks[id]
	if !ok || existing.OwnerID != ownerID {
		return nil, domain.ErrTaskNotAllowed
	}
	delete(r.s.tasks, id)
	return existing, nil
}

func (r memTasks) DeleteByOwner(_ context.Context, ownerID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, t := range r.s.tasks {
		if t.OwnerID == ownerID {
			delete(r.s.tasks, id)
			n++
		}
	}
	return n, nil
}

type memReviews struct{ s *memStore }

func (r memReviews) Create(_ context.Context, rv *domain.Review) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.reviews {
		if existing.OwnerID == rv.OwnerID {
			return nil, domain.ErrReviewExists
		}
	}
	c := *rv
	c.ID = r.s.nextID()
	c.CreatedAt = time.Now()
	r.s.reviews[c.ID] = &c
	out := c
	return &out, nil
}

func (r memReviews) ListAll(_ context.Context) ([]*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Review{}
	for _, rv := range r.s.reviews {
		c := *rv
		if u, ok := r.s.users[rv.OwnerID]; ok {
			c.Owner = &domain.Owner{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memReviews) FindByOwner(_ context.Context, ownerID string) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.reviews {
		if rv.OwnerID == ownerID {
			c := *rv
			return &c, nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

func (r memReviews) UpdateByOwner(_ context.Context, ownerID string, rating int, text string) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.reviews {
		if rv.OwnerID == ownerID {
			rv.Rating, rv.Text = rating, text
			c := *rv
			return &c, nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

func (r memReviews) DeleteByOwner(_ context.Context, ownerID string) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, rv := range r.s.reviews {
		if rv.OwnerID == ownerID {
			delete(r.s.reviews, id)
			return rv, nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

// ---- email and oauth fakes ----

type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) last() email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return email.Message{}
	}
	return s.sent[len(s.sent)-1]
}

type fakeProvider struct {
	profile *oauth.Profile
	err     error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, _ string) (*oauth.Profile, error) {
	return p.profile, p.err
}
