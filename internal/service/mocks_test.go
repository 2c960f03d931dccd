package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/repository"
)

// mockStore is an in-memory implementation of all repository interfaces.
// IDs are zero-padded counters so "id ascending" matches insertion order,
// like xids do in the real store.
type mockStore struct {
	birthdays map[string]*model.Birthday
	congrats  map[string]*model.Congratulation
	users     map[string]*model.User
	tags      []model.Tag
	tagLinks  map[string][]string // birthday id -> tag ids
	nextID    int

	failNext error // when set, the next call returns this error once
}

func newMockStore() *mockStore {
	return &mockStore{
		birthdays: make(map[string]*model.Birthday),
		congrats:  make(map[string]*model.Congratulation),
		users:     make(map[string]*model.User),
		tags: []model.Tag{
			{ID: "tag-family", Label: "Family"},
			{ID: "tag-friends", Label: "Friends"},
		},
		tagLinks: make(map[string][]string),
	}
}

func (m *mockStore) genID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%04d", prefix, m.nextID)
}

func (m *mockStore) pop() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// --- BirthdayRepository ---

var _ repository.BirthdayRepository = (*mockStore)(nil)

func (m *mockStore) CreateBirthday(_ context.Context, b *model.Birthday, tagIDs []string) error {
	if err := m.pop(); err != nil {
		return err
	}
	b.ID = m.genID("bday")
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	stored := *b
	m.birthdays[b.ID] = &stored
	m.tagLinks[b.ID] = tagIDs
	return nil
}

func (m *mockStore) GetBirthdayByID(_ context.Context, id string) (*model.Birthday, error) {
	if err := m.pop(); err != nil {
		return nil, err
	}
	b, ok := m.birthdays[id]
	if !ok {
		return nil, apperror.NotFound("birthday", id)
	}
	result := *b
	return &result, nil
}

func (m *mockStore) ListBirthdays(_ context.Context, opts repository.ListOptions) ([]model.Birthday, error) {
	if err := m.pop(); err != nil {
		return nil, err
	}
	all := make([]model.Birthday, 0, len(m.birthdays))
	for _, b := range m.birthdays {
		all = append(all, *b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if opts.Offset >= len(all) {
		return []model.Birthday{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (m *mockStore) CountBirthdays(_ context.Context) (int, error) {
	if err := m.pop(); err != nil {
		return 0, err
	}
	return len(m.birthdays), nil
}

func (m *mockStore) UpdateBirthday(_ context.Context, b *model.Birthday, tagIDs []string) error {
	if err := m.pop(); err != nil {
		return err
	}
	existing, ok := m.birthdays[b.ID]
	if !ok {
		return apperror.NotFound("birthday", b.ID)
	}
	stored := *b
	stored.AuthorID = existing.AuthorID // author column is never written
	m.birthdays[b.ID] = &stored
	m.tagLinks[b.ID] = tagIDs
	return nil
}

func (m *mockStore) DeleteBirthday(_ context.Context, id string) error {
	if err := m.pop(); err != nil {
		return err
	}
	if _, ok := m.birthdays[id]; !ok {
		return apperror.NotFound("birthday", id)
	}
	delete(m.birthdays, id)
	delete(m.tagLinks, id)
	for cid, c := range m.congrats {
		if c.BirthdayID == id {
			delete(m.congrats, cid)
		}
	}
	return nil
}

// --- CongratulationRepository ---

var _ repository.CongratulationRepository = (*mockStore)(nil)

func (m *mockStore) CreateCongratulation(_ context.Context, c *model.Congratulation) error {
	if err := m.pop(); err != nil {
		return err
	}
	c.ID = m.genID("congrat")
	c.CreatedAt = time.Now()
	stored := *c
	m.congrats[c.ID] = &stored
	return nil
}

func (m *mockStore) ListCongratulations(_ context.Context, birthdayID string) ([]model.Congratulation, error) {
	if err := m.pop(); err != nil {
		return nil, err
	}
	var result []model.Congratulation
	for _, c := range m.congrats {
		if c.BirthdayID == birthdayID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// --- TagRepository ---

var _ repository.TagRepository = (*mockStore)(nil)

func (m *mockStore) ListTags(_ context.Context) ([]model.Tag, error) {
	return m.tags, nil
}

// --- UserRepository ---

var _ repository.UserRepository = (*mockStore)(nil)

func (m *mockStore) CreateUser(_ context.Context, u *model.User) error {
	if err := m.pop(); err != nil {
		return err
	}
	for _, existing := range m.users {
		if existing.Login == u.Login {
			return apperror.Conflict("user", u.Login)
		}
	}
	u.ID = m.genID("user")
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockStore) GetUserByLogin(_ context.Context, login string) (*model.User, error) {
	for _, u := range m.users {
		if u.Login == login {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", login)
}

func (m *mockStore) UpsertGitHubUser(ctx context.Context, u *model.User) error {
	for _, existing := range m.users {
		if existing.GitHubID != 0 && existing.GitHubID == u.GitHubID {
			u.ID = existing.ID
			stored := *u
			m.users[u.ID] = &stored
			return nil
		}
	}
	return m.CreateUser(ctx, u)
}
