package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"commons/models"
)

// Memory is a map-backed Store used by package tests. It honors the same
// contract as the Mongo implementation: lookups return clones, set
// mutations are idempotent, and Atomic rolls every write back on error.
type Memory struct {
	mu sync.Mutex

	accounts    map[primitive.ObjectID]*models.Account
	profiles    map[primitive.ObjectID]*models.Profile
	communities map[primitive.ObjectID]*models.Community
	posts       map[primitive.ObjectID]*models.Post
	comments    map[primitive.ObjectID]*models.Comment
}

func NewMemory() *Memory {
	return &Memory{
		accounts:    make(map[primitive.ObjectID]*models.Account),
		profiles:    make(map[primitive.ObjectID]*models.Profile),
		communities: make(map[primitive.ObjectID]*models.Community),
		posts:       make(map[primitive.ObjectID]*models.Post),
		comments:    make(map[primitive.ObjectID]*models.Comment),
	}
}

type memTxKey struct{}

// lock takes the store mutex unless the context already runs inside an
// Atomic unit, which holds it for the whole unit.
func (m *Memory) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// Atomic serializes units with a single store-wide mutex and restores a
// snapshot of every map if fn fails, so partial units are never visible.
func (m *Memory) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	accounts    map[primitive.ObjectID]*models.Account
	profiles    map[primitive.ObjectID]*models.Profile
	communities map[primitive.ObjectID]*models.Community
	posts       map[primitive.ObjectID]*models.Post
	comments    map[primitive.ObjectID]*models.Comment
}

func (m *Memory) snapshot() memSnapshot {
	s := memSnapshot{
		accounts:    make(map[primitive.ObjectID]*models.Account, len(m.accounts)),
		profiles:    make(map[primitive.ObjectID]*models.Profile, len(m.profiles)),
		communities: make(map[primitive.ObjectID]*models.Community, len(m.communities)),
		posts:       make(map[primitive.ObjectID]*models.Post, len(m.posts)),
		comments:    make(map[primitive.ObjectID]*models.Comment, len(m.comments)),
	}
	for id, a := range m.accounts {
		s.accounts[id] = cloneAccount(a)
	}
	for id, p := range m.profiles {
		s.profiles[id] = cloneProfile(p)
	}
	for id, c := range m.communities {
		s.communities[id] = cloneCommunity(c)
	}
	for id, p := range m.posts {
		s.posts[id] = clonePost(p)
	}
	for id, c := range m.comments {
		s.comments[id] = cloneComment(c)
	}
	return s
}

func (m *Memory) restore(s memSnapshot) {
	m.accounts = s.accounts
	m.profiles = s.profiles
	m.communities = s.communities
	m.posts = s.posts
	m.comments = s.comments
}

func (m *Memory) InsertAccount(ctx context.Context, account *models.Account) error {
	defer m.lock(ctx)()
	m.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (m *Memory) Account(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	defer m.lock(ctx)()
	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(account), nil
}

func (m *Memory) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	defer m.lock(ctx)()
	for _, account := range m.accounts {
		if strings.EqualFold(account.Username, username) {
			return cloneAccount(account), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) InsertProfile(ctx context.Context, profile *models.Profile) error {
	defer m.lock(ctx)()
	m.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (m *Memory) Profile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	defer m.lock(ctx)()
	profile, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(profile), nil
}

func (m *Memory) ProfileByAccount(ctx context.Context, accountID primitive.ObjectID) (*models.Profile, error) {
	defer m.lock(ctx)()
	for _, profile := range m.profiles {
		if profile.Account == accountID {
			return cloneProfile(profile), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) error {
	defer m.lock(ctx)()
	profile, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	if update.FirstName != nil {
		profile.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		profile.LastName = *update.LastName
	}
	if update.Biography != nil {
		profile.Biography = *update.Biography
	}
	if update.ProfileImg != nil {
		profile.ProfileImg = *update.ProfileImg
	}
	return nil
}

func (m *Memory) InsertCommunity(ctx context.Context, community *models.Community) error {
	defer m.lock(ctx)()
	m.communities[community.ID] = cloneCommunity(community)
	return nil
}

func (m *Memory) Community(ctx context.Context, id primitive.ObjectID) (*models.Community, error) {
	defer m.lock(ctx)()
	community, ok := m.communities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCommunity(community), nil
}

func (m *Memory) CommunityByName(ctx context.Context, name string) (*models.Community, error) {
	defer m.lock(ctx)()
	for _, community := range m.communities {
		if strings.EqualFold(community.Name, name) {
			return cloneCommunity(community), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) DeleteCommunity(ctx context.Context, id primitive.ObjectID) error {
	defer m.lock(ctx)()
	if _, ok := m.communities[id]; !ok {
		return ErrNotFound
	}
	delete(m.communities, id)
	return nil
}

func (m *Memory) PopularCommunities(ctx context.Context, skip, limit int) ([]models.Community, error) {
	defer m.lock(ctx)()
	all := make([]models.Community, 0, len(m.communities))
	for _, community := range m.communities {
		all = append(all, *cloneCommunity(community))
	}
	sort.SliceStable(all, func(i, j int) bool {
		if len(all[i].Followers) != len(all[j].Followers) {
			return len(all[i].Followers) > len(all[j].Followers)
		}
		return all[i].Created < all[j].Created
	})
	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *Memory) InsertPost(ctx context.Context, post *models.Post) error {
	defer m.lock(ctx)()
	m.posts[post.ID] = clonePost(post)
	return nil
}

func (m *Memory) Post(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	defer m.lock(ctx)()
	post, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(post), nil
}

func (m *Memory) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	defer m.lock(ctx)()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *Memory) InsertComment(ctx context.Context, comment *models.Comment) error {
	defer m.lock(ctx)()
	m.comments[comment.ID] = cloneComment(comment)
	return nil
}

func (m *Memory) Comment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	defer m.lock(ctx)()
	comment, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneComment(comment), nil
}

func (m *Memory) CommentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Comment, error) {
	defer m.lock(ctx)()
	out := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if comment, ok := m.comments[id]; ok {
			out = append(out, *cloneComment(comment))
		}
	}
	return out, nil
}

func (m *Memory) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	defer m.lock(ctx)()
	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *Memory) AddToSet(ctx context.Context, kind Kind, id primitive.ObjectID, field Field, member primitive.ObjectID) error {
	defer m.lock(ctx)()
	set, err := m.refSet(kind, id, field)
	if err != nil {
		return err
	}
	*set = set.Add(member)
	return nil
}

func (m *Memory) Pull(ctx context.Context, kind Kind, id primitive.ObjectID, field Field, member primitive.ObjectID) error {
	defer m.lock(ctx)()
	set, err := m.refSet(kind, id, field)
	if err != nil {
		return err
	}
	*set = set.Remove(member)
	return nil
}

func (m *Memory) Search(ctx context.Context, query string, limit int) (*SearchResults, error) {
	defer m.lock(ctx)()
	q := strings.ToLower(query)
	results := &SearchResults{}

	for _, community := range m.communities {
		if len(results.Communities) >= limit {
			break
		}
		if containsFold(q, community.Name, community.Description) || anyContainsFold(q, community.Tags) {
			results.Communities = append(results.Communities, *cloneCommunity(community))
		}
	}
	for _, post := range m.posts {
		if len(results.Posts) >= limit {
			break
		}
		if containsFold(q, post.Title, post.Body) {
			results.Posts = append(results.Posts, *clonePost(post))
		}
	}
	for _, comment := range m.comments {
		if len(results.Comments) >= limit {
			break
		}
		if containsFold(q, comment.Body) {
			results.Comments = append(results.Comments, *cloneComment(comment))
		}
	}
	return results, nil
}

// refSet resolves the addressed reference set. Callers hold the lock.
func (m *Memory) refSet(kind Kind, id primitive.ObjectID, field Field) (*models.RefSet, error) {
	switch kind {
	case KindProfile:
		profile, ok := m.profiles[id]
		if !ok {
			return nil, ErrNotFound
		}
		switch field {
		case FieldOwnedCommunities:
			return &profile.OwnedCommunities, nil
		case FieldFollowedCommunities:
			return &profile.FollowedCommunities, nil
		case FieldPosts:
			return &profile.Posts, nil
		case FieldComments:
			return &profile.Comments, nil
		case FieldLikedPosts:
			return &profile.LikedPosts, nil
		case FieldDislikedPosts:
			return &profile.DislikedPosts, nil
		case FieldLikedComments:
			return &profile.LikedComments, nil
		case FieldDislikedComments:
			return &profile.DislikedComments, nil
		case FieldSaved:
			return &profile.Saved, nil
		}
	case KindCommunity:
		community, ok := m.communities[id]
		if !ok {
			return nil, ErrNotFound
		}
		switch field {
		case FieldPosts:
			return &community.Posts, nil
		case FieldFollowers:
			return &community.Followers, nil
		}
	case KindPost:
		post, ok := m.posts[id]
		if !ok {
			return nil, ErrNotFound
		}
		switch field {
		case FieldLikes:
			return &post.Likes, nil
		case FieldDislikes:
			return &post.Dislikes, nil
		case FieldComments:
			return &post.Comments, nil
		}
	case KindComment:
		comment, ok := m.comments[id]
		if !ok {
			return nil, ErrNotFound
		}
		switch field {
		case FieldLikes:
			return &comment.Likes, nil
		case FieldDislikes:
			return &comment.Dislikes, nil
		case FieldReplies:
			return &comment.Replies, nil
		}
	}
	return nil, ErrNotFound
}

func containsFold(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func anyContainsFold(q string, fields []string) bool {
	return containsFold(q, fields...)
}

func cloneAccount(a *models.Account) *models.Account {
	out := *a
	return &out
}

func cloneProfile(p *models.Profile) *models.Profile {
	out := *p
	out.OwnedCommunities = p.OwnedCommunities.Clone()
	out.FollowedCommunities = p.FollowedCommunities.Clone()
	out.Posts = p.Posts.Clone()
	out.Comments = p.Comments.Clone()
	out.LikedPosts = p.LikedPosts.Clone()
	out.DislikedPosts = p.DislikedPosts.Clone()
	out.LikedComments = p.LikedComments.Clone()
	out.DislikedComments = p.DislikedComments.Clone()
	out.Saved = p.Saved.Clone()
	return &out
}

func cloneCommunity(c *models.Community) *models.Community {
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	out.Posts = c.Posts.Clone()
	out.Followers = c.Followers.Clone()
	return &out
}

func clonePost(p *models.Post) *models.Post {
	out := *p
	out.Likes = p.Likes.Clone()
	out.Dislikes = p.Dislikes.Clone()
	out.Comments = p.Comments.Clone()
	return &out
}

func cloneComment(c *models.Comment) *models.Comment {
	out := *c
	out.Likes = c.Likes.Clone()
	out.Dislikes = c.Dislikes.Clone()
	out.Replies = c.Replies.Clone()
	return &out
}
