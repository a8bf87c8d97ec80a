package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Kratospidey/gbs-sub000/cache"
	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/identity"
	"github.com/Kratospidey/gbs-sub000/models"
	"github.com/Kratospidey/gbs-sub000/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStores is a single in-memory backend implementing every store
// interface the services consume, so the full router can be exercised
// without external systems.
type memStores struct {
	mu       sync.Mutex
	authors  map[primitive.ObjectID]*models.Author
	posts    map[primitive.ObjectID]*models.Post
	saved    map[primitive.ObjectID]*models.SavedPost
	profiles map[string]*models.Profile
}

func newMemStores() *memStores {
	return &memStores{
		authors:  make(map[primitive.ObjectID]*models.Author),
		posts:    make(map[primitive.ObjectID]*models.Post),
		saved:    make(map[primitive.ObjectID]*models.SavedPost),
		profiles: make(map[string]*models.Profile),
	}
}

func (m *memStores) FindByUserID(ctx context.Context, userID string) (*models.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.authors {
		if a.UserID == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStores) FindByName(ctx context.Context, name string) (*models.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.authors {
		if a.Name == name {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStores) FindBySlug(ctx context.Context, slug string) (*models.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.authors {
		if a.Slug == slug {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStores) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.authors[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (m *memStores) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID := make(map[primitive.ObjectID]*models.Author)
	for _, id := range ids {
		if a, ok := m.authors[id]; ok {
			copied := *a
			byID[id] = &copied
		}
	}
	return byID, nil
}

func (m *memStores) Create(ctx context.Context, author *models.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	author.ID = primitive.NewObjectID()
	copied := *author
	m.authors[author.ID] = &copied
	return nil
}

func (m *memStores) SetUserID(ctx context.Context, authorID primitive.ObjectID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.authors[authorID]; ok {
		a.UserID = userID
	}
	return nil
}

func (m *memStores) UpdateFields(ctx context.Context, authorID primitive.ObjectID, fields bson.M) error {
	return nil
}

func (m *memStores) Delete(ctx context.Context, authorID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.authors, authorID)
	return nil
}

// memPosts carves the post half of the backend into its own type so the
// Create/Delete method sets do not collide with the author ones.
type memPosts struct{ *memStores }

func (m memPosts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (m memPosts) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m memPosts) FindOwned(ctx context.Context, postID, authorID primitive.ObjectID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[postID]; ok && p.AuthorID == authorID {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (m memPosts) SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.posts {
		if p.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m memPosts) List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Post{}
	for _, p := range m.posts {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.AuthorID != primitive.NilObjectID && p.AuthorID != filter.AuthorID {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (m memPosts) IDsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []primitive.ObjectID
	for id, p := range m.posts {
		if p.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m memPosts) Create(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = primitive.NewObjectID()
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m memPosts) UpdateFields(ctx context.Context, postID primitive.ObjectID, fields bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return nil
	}
	if v, ok := fields["title"].(string); ok {
		p.Title = v
	}
	if v, ok := fields["body"].(string); ok {
		p.Body = v
	}
	if v, ok := fields["tags"].([]string); ok {
		p.Tags = v
	}
	if v, ok := fields["status"].(models.PostStatus); ok {
		p.Status = v
	}
	return nil
}

func (m memPosts) Delete(ctx context.Context, postID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, postID)
	return nil
}

type memSaved struct{ *memStores }

func (m memSaved) FindByUser(ctx context.Context, userID string) (*models.SavedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.saved {
		if doc.UserID == userID {
			copied := *doc
			copied.Items = append([]models.SavedItem(nil), doc.Items...)
			return &copied, nil
		}
	}
	return nil, nil
}

func (m memSaved) FindReferencing(ctx context.Context, postIDs []primitive.ObjectID) ([]*models.SavedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[primitive.ObjectID]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	var out []*models.SavedPost
	for _, doc := range m.saved {
		for _, item := range doc.Items {
			if wanted[item.PostID] {
				copied := *doc
				copied.Items = append([]models.SavedItem(nil), doc.Items...)
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (m memSaved) Create(ctx context.Context, saved *models.SavedPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved.ID = primitive.NewObjectID()
	copied := *saved
	copied.Items = append([]models.SavedItem(nil), saved.Items...)
	m.saved[saved.ID] = &copied
	return nil
}

func (m memSaved) CompareAndSwapItems(ctx context.Context, docID primitive.ObjectID, items []models.SavedItem, expectedRevision int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.saved[docID]
	if !ok || doc.Revision != expectedRevision {
		return false, nil
	}
	doc.Items = append([]models.SavedItem(nil), items...)
	doc.Revision++
	return true, nil
}

func (m memSaved) Delete(ctx context.Context, docID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, docID)
	return nil
}

type memProfiles struct{ *memStores }

func (m memProfiles) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (m memProfiles) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID := make(map[string]*models.Profile)
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			copied := *p
			byID[id] = &copied
		}
	}
	return byID, nil
}

func (m memProfiles) Upsert(ctx context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *profile
	m.profiles[profile.UserID] = &copied
	return nil
}

func (m memProfiles) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
	return nil
}

type memTx struct{}

func (memTx) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memBlobs struct{}

func (memBlobs) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (memBlobs) Remove(ctx context.Context, url string) error { return nil }

// tokenProvider validates fixed token strings against seeded sessions.
type tokenProvider struct {
	sessions map[string]*identity.Session
	deleted  []string
}

func (p *tokenProvider) ValidateSession(ctx context.Context, sessionToken string) (*identity.Session, error) {
	if sess, ok := p.sessions[sessionToken]; ok {
		copied := *sess
		return &copied, nil
	}
	return nil, errs.NewInvalidTokenError()
}

func (p *tokenProvider) GetUserByHandle(ctx context.Context, handle string) (*identity.User, error) {
	for _, sess := range p.sessions {
		if sess.Handle == handle {
			return &identity.User{ID: sess.UserID, Handle: handle, Name: handle}, nil
		}
	}
	return nil, nil
}

func (p *tokenProvider) DeleteUser(ctx context.Context, userID string) error {
	p.deleted = append(p.deleted, userID)
	return nil
}

type testEnv struct {
	stores   *memStores
	provider *tokenProvider
	router   http.Handler
}

func newTestEnv() *testEnv {
	stores := newMemStores()
	provider := &tokenProvider{sessions: map[string]*identity.Session{
		"token-alice": {UserID: "user-alice", Handle: "alice"},
		"token-bob":   {UserID: "user-bob", Handle: "bob"},
	}}

	posts := memPosts{stores}
	saved := memSaved{stores}
	profiles := memProfiles{stores}
	blobs := memBlobs{}
	tx := memTx{}
	feedCache := cache.NewFeedCache("")

	accountSvc := services.NewAccountService(stores, posts, saved, profiles, provider, tx)
	postSvc := services.NewPostService(posts, saved, blobs, tx)
	savedSvc := services.NewSavedPostService(saved, posts)
	profileSvc := services.NewProfileService(profiles, stores, posts, provider, blobs)

	router := newRouter(Deps{
		Accounts:  accountSvc,
		Posts:     postSvc,
		Saved:     savedSvc,
		Profiles:  profileSvc,
		Provider:  provider,
		FeedCache: feedCache,
	})

	return &testEnv{stores: stores, provider: provider, router: router}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestMutatingRoutesRejectAnonymousCallers(t *testing.T) {
	env := newTestEnv()
	postID := primitive.NewObjectID().Hex()

	routes := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/posts/" + postID},
		{http.MethodPost, "/api/posts/" + postID + "/archive"},
		{http.MethodPost, "/api/posts/" + postID + "/unarchive"},
		{http.MethodDelete, "/api/posts/delete"},
		{http.MethodPost, "/api/posts/" + postID + "/save"},
		{http.MethodGet, "/api/posts/" + postID + "/saved"},
		{http.MethodGet, "/api/saved"},
		{http.MethodDelete, "/api/deleteAccount"},
		{http.MethodPut, "/api/profile"},
		{http.MethodPost, "/api/profile/avatar"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			if rec := env.do(t, route.method, route.path, "", nil); rec.Code != http.StatusUnauthorized {
				t.Errorf("anonymous status = %d, want 401", rec.Code)
			}
			if rec := env.do(t, route.method, route.path, "garbage-token", nil); rec.Code != http.StatusUnauthorized {
				t.Errorf("bad-token status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestCreatePostProvisionsAuthorAndStartsPending(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/posts", "token-alice", map[string]any{
		"title":  "Hello World",
		"body":   "first post",
		"status": "published",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var post models.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if post.Status != models.StatusPending {
		t.Errorf("status = %q, want pending despite the publish request", post.Status)
	}
	if post.Slug != "hello-world" {
		t.Errorf("slug = %q", post.Slug)
	}

	author, _ := env.stores.FindByUserID(context.Background(), "user-alice")
	if author == nil || author.Name != "alice" {
		t.Errorf("author not provisioned from the session handle: %+v", author)
	}
}

func TestPublicFeedListsOnlyPublished(t *testing.T) {
	env := newTestEnv()

	author := &models.Author{UserID: "user-alice", Name: "alice", Slug: "alice"}
	if err := env.stores.Create(context.Background(), author); err != nil {
		t.Fatal(err)
	}
	for status, slug := range map[models.PostStatus]string{
		models.StatusPublished: "visible",
		models.StatusPending:   "hidden",
	} {
		post := &models.Post{Title: slug, Slug: slug, Body: "b", AuthorID: author.ID, Status: status}
		if err := (memPosts{env.stores}).Create(context.Background(), post); err != nil {
			t.Fatal(err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/posts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload PostCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Total != 1 || payload.Posts[0].Slug != "visible" {
		t.Errorf("feed = %+v, want only the published post", payload)
	}
}

func TestDashboardListingRequiresSession(t *testing.T) {
	env := newTestEnv()

	if rec := env.do(t, http.MethodGet, "/api/posts?status=draft", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous draft listing status = %d, want 401", rec.Code)
	}

	// With a session but no authored content the dashboard is just empty.
	rec := env.do(t, http.MethodGet, "/api/posts?status=draft", "token-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload PostCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Total != 0 {
		t.Errorf("empty dashboard returned %d posts", payload.Total)
	}
}

func TestToggleSaveEndpointFlipsState(t *testing.T) {
	env := newTestEnv()

	author := &models.Author{UserID: "user-bob", Name: "bob", Slug: "bob"}
	if err := env.stores.Create(context.Background(), author); err != nil {
		t.Fatal(err)
	}
	post := &models.Post{Title: "t", Slug: "t", Body: "b", AuthorID: author.ID, Status: models.StatusPublished}
	if err := (memPosts{env.stores}).Create(context.Background(), post); err != nil {
		t.Fatal(err)
	}
	savePath := fmt.Sprintf("/api/posts/%s/save", post.ID.Hex())
	savedPath := fmt.Sprintf("/api/posts/%s/saved", post.ID.Hex())

	assertSaved := func(want bool, rec *httptest.ResponseRecorder) {
		t.Helper()
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var payload map[string]bool
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatal(err)
		}
		if payload["saved"] != want {
			t.Errorf("saved = %t, want %t", payload["saved"], want)
		}
	}

	assertSaved(true, env.do(t, http.MethodPost, savePath, "token-alice", nil))
	assertSaved(true, env.do(t, http.MethodGet, savedPath, "token-alice", nil))
	assertSaved(false, env.do(t, http.MethodPost, savePath, "token-alice", nil))
	assertSaved(false, env.do(t, http.MethodGet, savedPath, "token-alice", nil))

	// The other user's view is independent.
	assertSaved(false, env.do(t, http.MethodGet, savedPath, "token-bob", nil))
}

func TestForeignPostMutationReturns404(t *testing.T) {
	env := newTestEnv()

	author := &models.Author{UserID: "user-alice", Name: "alice", Slug: "alice"}
	if err := env.stores.Create(context.Background(), author); err != nil {
		t.Fatal(err)
	}
	intruder := &models.Author{UserID: "user-bob", Name: "bob", Slug: "bob"}
	if err := env.stores.Create(context.Background(), intruder); err != nil {
		t.Fatal(err)
	}
	post := &models.Post{Title: "t", Slug: "t", Body: "b", AuthorID: author.ID, Status: models.StatusPublished}
	if err := (memPosts{env.stores}).Create(context.Background(), post); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPut, "/api/posts/"+post.ID.Hex(), "token-bob", map[string]any{
		"title": "hijacked", "body": "x",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want the ambiguous 404", rec.Code)
	}
}

func TestDeleteAccountEndpointRunsCascade(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	author := &models.Author{UserID: "user-alice", Name: "alice", Slug: "alice"}
	if err := env.stores.Create(ctx, author); err != nil {
		t.Fatal(err)
	}
	post := &models.Post{Title: "t", Slug: "t", Body: "b", AuthorID: author.ID, Status: models.StatusPublished}
	if err := (memPosts{env.stores}).Create(ctx, post); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodDelete, "/api/deleteAccount", "token-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if a, _ := env.stores.FindByUserID(ctx, "user-alice"); a != nil {
		t.Error("author survived account deletion")
	}
	if p, _ := (memPosts{env.stores}).FindByID(ctx, post.ID); p != nil {
		t.Error("post survived account deletion")
	}
	if len(env.provider.deleted) != 1 || env.provider.deleted[0] != "user-alice" {
		t.Errorf("identity deletions = %v", env.provider.deleted)
	}
}

func TestGetPostBySlug(t *testing.T) {
	env := newTestEnv()

	author := &models.Author{UserID: "user-alice", Name: "alice", Slug: "alice"}
	if err := env.stores.Create(context.Background(), author); err != nil {
		t.Fatal(err)
	}
	post := &models.Post{Title: "t", Slug: "my-post", Body: "## Section", AuthorID: author.ID, Status: models.StatusPublished}
	if err := (memPosts{env.stores}).Create(context.Background(), post); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/api/posts/my-post", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var detail PostDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Post.Slug != "my-post" {
		t.Errorf("slug = %q", detail.Post.Slug)
	}
	if detail.BodyHTML == "" || detail.BodyHTML == post.Body {
		t.Errorf("bodyHtml = %q, want rendered markdown", detail.BodyHTML)
	}

	if rec := env.do(t, http.MethodGet, "/api/posts/ghost", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing slug status = %d, want 404", rec.Code)
	}
}

func TestArchiveEndpointConflictsOnPending(t *testing.T) {
	env := newTestEnv()

	author := &models.Author{UserID: "user-alice", Name: "alice", Slug: "alice"}
	if err := env.stores.Create(context.Background(), author); err != nil {
		t.Fatal(err)
	}
	post := &models.Post{Title: "t", Slug: "t", Body: "b", AuthorID: author.ID, Status: models.StatusPending}
	if err := (memPosts{env.stores}).Create(context.Background(), post); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/api/posts/"+post.ID.Hex()+"/archive", "token-alice", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

// timedPosts records whether the request context reaching the store
// carried a deadline.
type timedPosts struct {
	memPosts
	sawDeadline bool
}

func (p *timedPosts) List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	_, p.sawDeadline = ctx.Deadline()
	return p.memPosts.List(ctx, filter)
}

func TestStoreCallsInheritRequestDeadline(t *testing.T) {
	stores := newMemStores()
	provider := &tokenProvider{sessions: map[string]*identity.Session{}}
	posts := &timedPosts{memPosts: memPosts{stores}}
	saved := memSaved{stores}
	profiles := memProfiles{stores}

	accountSvc := services.NewAccountService(stores, posts, saved, profiles, provider, memTx{})
	postSvc := services.NewPostService(posts, saved, memBlobs{}, memTx{})
	savedSvc := services.NewSavedPostService(saved, posts)
	profileSvc := services.NewProfileService(profiles, stores, posts, provider, memBlobs{})

	router := newRouter(Deps{
		Accounts:  accountSvc,
		Posts:     postSvc,
		Saved:     savedSvc,
		Profiles:  profileSvc,
		Provider:  provider,
		FeedCache: cache.NewFeedCache(""),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !posts.sawDeadline {
		t.Error("store call ran without a context deadline")
	}
}
