package service

import (
	"context"
	"fmt"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/repository"
)

// In-memory fakes for the repository interfaces. They model exactly the
// contracts the services rely on (ownership scoping, NotFound semantics)
// without a database.

type fakeUserRepo struct {
	users map[string]*model.User // by ID
	seq   int
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperror.Conflict("email", user.Email)
		}
		if u.Username == user.Username {
			return apperror.Conflict("username", user.Username)
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.IsActive = true
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (r *fakeUserRepo) UpsertGitHubUser(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.GitHubID == user.GitHubID {
			u.Username = user.Username
			u.AvatarURL = user.AvatarURL
			user.ID = u.ID
			return nil
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.IsActive = true
	r.users[user.ID] = user
	return nil
}

type fakeFileRepo struct {
	files map[string]*model.GeneratedFile // by ID
	seq   int

	increments []string // file IDs, in call order
}

var _ repository.FileRepository = (*fakeFileRepo)(nil)

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[string]*model.GeneratedFile{}}
}

func (r *fakeFileRepo) CreateFile(_ context.Context, file *model.GeneratedFile) error {
	r.seq++
	file.ID = fmt.Sprintf("file-%d", r.seq)
	file.DownloadCount = 0
	r.files[file.ID] = file
	return nil
}

func (r *fakeFileRepo) GetFileForUser(_ context.Context, id, userID string) (*model.GeneratedFile, error) {
	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return nil, apperror.NotFound("file", id)
	}
	// Return a snapshot, like the real repository's row scan does.
	copied := *f
	return &copied, nil
}

func (r *fakeFileRepo) ListFilesByUser(_ context.Context, userID string) ([]model.GeneratedFile, error) {
	var out []model.GeneratedFile
	for _, f := range r.files {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) IncrementDownloadCount(_ context.Context, id string) error {
	f, ok := r.files[id]
	if !ok {
		return apperror.NotFound("file", id)
	}
	f.DownloadCount++
	r.increments = append(r.increments, id)
	return nil
}

func (r *fakeFileRepo) DeleteFile(_ context.Context, id string) error {
	if _, ok := r.files[id]; !ok {
		return apperror.NotFound("file", id)
	}
	delete(r.files, id)
	return nil
}

type fakeEventRepo struct {
	events []model.GenerationEvent
}

var _ repository.GenerationRepository = (*fakeEventRepo)(nil)

func (r *fakeEventRepo) CreateEvent(_ context.Context, event *model.GenerationEvent) error {
	event.ID = fmt.Sprintf("event-%d", len(r.events)+1)
	r.events = append(r.events, *event)
	return nil
}

type fakeStatsReader struct {
	result     *model.Stats
	lastUserID string
}

var _ repository.StatsReader = (*fakeStatsReader)(nil)

func (r *fakeStatsReader) Stats(_ context.Context, userID string) *model.Stats {
	r.lastUserID = userID
	return r.result
}
