package services

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/identity"
	"github.com/Kratospidey/gbs-sub000/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the three external stores. They honor the same
// contracts the real clients do (nil on miss, revision-guarded saved-post
// writes) so the services under test cannot tell the difference.

type fakeAuthorStore struct {
	mu      sync.Mutex
	authors map[primitive.ObjectID]*models.Author
	writes  int
}

func newFakeAuthorStore() *fakeAuthorStore {
	return &fakeAuthorStore{authors: make(map[primitive.ObjectID]*models.Author)}
}

func (f *fakeAuthorStore) FindByUserID(ctx context.Context, userID string) (*models.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.authors {
		if a.UserID == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthorStore) FindByName(ctx context.Context, name string) (*models.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.authors {
		if a.Name == name {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthorStore) FindBySlug(ctx context.Context, slug string) (*models.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.authors {
		if a.Slug == slug {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthorStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.authors[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeAuthorStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[primitive.ObjectID]*models.Author)
	for _, id := range ids {
		if a, ok := f.authors[id]; ok {
			copied := *a
			byID[id] = &copied
		}
	}
	return byID, nil
}

func (f *fakeAuthorStore) Create(ctx context.Context, author *models.Author) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	author.ID = primitive.NewObjectID()
	copied := *author
	f.authors[author.ID] = &copied
	f.writes++
	return nil
}

func (f *fakeAuthorStore) SetUserID(ctx context.Context, authorID primitive.ObjectID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.authors[authorID]; ok {
		a.UserID = userID
	}
	f.writes++
	return nil
}

func (f *fakeAuthorStore) UpdateFields(ctx context.Context, authorID primitive.ObjectID, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.authors[authorID]
	if !ok {
		return nil
	}
	if v, ok := fields["bio"].(string); ok {
		a.Bio = v
	}
	if v, ok := fields["firstName"].(string); ok {
		a.FirstName = v
	}
	if v, ok := fields["lastName"].(string); ok {
		a.LastName = v
	}
	if v, ok := fields["avatarUrl"].(string); ok {
		a.AvatarURL = v
	}
	if v, ok := fields["github"].(string); ok {
		a.Github = v
	}
	if v, ok := fields["linkedin"].(string); ok {
		a.Linkedin = v
	}
	if v, ok := fields["website"].(string); ok {
		a.Website = v
	}
	f.writes++
	return nil
}

func (f *fakeAuthorStore) Delete(ctx context.Context, authorID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.authors, authorID)
	return nil
}

type fakePostStore struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[primitive.ObjectID]*models.Post)}
}

func (f *fakePostStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakePostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePostStore) FindOwned(ctx context.Context, postID, authorID primitive.ObjectID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[postID]; ok && p.AuthorID == authorID {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakePostStore) SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.posts {
		if p.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePostStore) List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var tagPattern *regexp.Regexp
	if filter.Tag != "" {
		tagPattern = regexp.MustCompile("(?i)^" + regexp.QuoteMeta(filter.Tag) + "$")
	}

	var out []*models.Post
	for _, p := range f.posts {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.AuthorID != primitive.NilObjectID && p.AuthorID != filter.AuthorID {
			continue
		}
		if tagPattern != nil {
			matched := false
			for _, tag := range p.Tags {
				if tagPattern.MatchString(tag) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		copied := *p
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		if filter.SortAsc {
			return out[i].PublishedAt.Before(out[j].PublishedAt)
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}

func (f *fakePostStore) IDsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []primitive.ObjectID
	for id, p := range f.posts {
		if p.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakePostStore) Create(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = primitive.NewObjectID()
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakePostStore) UpdateFields(ctx context.Context, postID primitive.ObjectID, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postID]
	if !ok {
		return nil
	}
	if v, ok := fields["title"].(string); ok {
		p.Title = v
	}
	if v, ok := fields["body"].(string); ok {
		p.Body = v
	}
	if v, ok := fields["mainImageUrl"].(string); ok {
		p.MainImageURL = v
	}
	if v, ok := fields["tags"].([]string); ok {
		p.Tags = v
	}
	if v, ok := fields["status"].(models.PostStatus); ok {
		p.Status = v
	}
	return nil
}

func (f *fakePostStore) Delete(ctx context.Context, postID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, postID)
	return nil
}

var errDuplicateUser = errors.New("duplicate key: userId")

type fakeSavedStore struct {
	mu        sync.Mutex
	docs      map[primitive.ObjectID]*models.SavedPost
	createErr error
	casHook   func() // runs before every CAS, simulates interleaved writers
}

func newFakeSavedStore() *fakeSavedStore {
	return &fakeSavedStore{docs: make(map[primitive.ObjectID]*models.SavedPost)}
}

func copySaved(doc *models.SavedPost) *models.SavedPost {
	copied := *doc
	copied.Items = append([]models.SavedItem(nil), doc.Items...)
	return &copied
}

func (f *fakeSavedStore) FindByUser(ctx context.Context, userID string) (*models.SavedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.UserID == userID {
			return copySaved(doc), nil
		}
	}
	return nil, nil
}

func (f *fakeSavedStore) FindReferencing(ctx context.Context, postIDs []primitive.ObjectID) ([]*models.SavedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[primitive.ObjectID]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	var out []*models.SavedPost
	for _, doc := range f.docs {
		for _, item := range doc.Items {
			if wanted[item.PostID] {
				out = append(out, copySaved(doc))
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSavedStore) Create(ctx context.Context, saved *models.SavedPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	for _, doc := range f.docs {
		if doc.UserID == saved.UserID {
			return errDuplicateUser
		}
	}
	saved.ID = primitive.NewObjectID()
	f.docs[saved.ID] = copySaved(saved)
	return nil
}

func (f *fakeSavedStore) CompareAndSwapItems(ctx context.Context, docID primitive.ObjectID, items []models.SavedItem, expectedRevision int64) (bool, error) {
	if f.casHook != nil {
		f.casHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[docID]
	if !ok || doc.Revision != expectedRevision {
		return false, nil
	}
	doc.Items = append([]models.SavedItem(nil), items...)
	doc.Revision++
	return true, nil
}

func (f *fakeSavedStore) Delete(ctx context.Context, docID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, docID)
	return nil
}

type fakeProfileStore struct {
	mu        sync.Mutex
	profiles  map[string]*models.Profile
	deleteErr error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*models.Profile)}
}

func (f *fakeProfileStore) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeProfileStore) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[string]*models.Profile)
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			copied := *p
			byID[id] = &copied
		}
	}
	return byID, nil
}

func (f *fakeProfileStore) Upsert(ctx context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *profile
	f.profiles[profile.UserID] = &copied
	return nil
}

func (f *fakeProfileStore) Delete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.profiles, userID)
	return nil
}

// fakeTxRunner runs the function directly; the fakes' per-call mutations
// stand in for transactional visibility.
type fakeTxRunner struct {
	txErr error
	runs  int
}

func (f *fakeTxRunner) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.runs++
	if f.txErr != nil {
		return f.txErr
	}
	return fn(ctx)
}

type fakeIdentityProvider struct {
	mu        sync.Mutex
	users     map[string]*identity.User
	sessions  map[string]*identity.Session
	deleted   []string
	deleteErr error
}

func newFakeIdentityProvider() *fakeIdentityProvider {
	return &fakeIdentityProvider{
		users:    make(map[string]*identity.User),
		sessions: make(map[string]*identity.Session),
	}
}

func (f *fakeIdentityProvider) ValidateSession(ctx context.Context, sessionToken string) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok := f.sessions[sessionToken]; ok {
		copied := *sess
		return &copied, nil
	}
	return nil, errs.NewInvalidTokenError()
}

func (f *fakeIdentityProvider) GetUserByHandle(ctx context.Context, handle string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[handle]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeIdentityProvider) DeleteUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeBlobStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobStore) Remove(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, url)
	return nil
}
