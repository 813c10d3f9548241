package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpadhq/launchpad/internal/authoring"
	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/logger"
)

type stubJobStore struct {
	createdID  uuid.UUID
	createErr  error
	createdJob *db.Job

	job    *db.Job
	jobErr error

	updateErr error
	deleteErr error
	deletedID uuid.UUID

	jobs     []db.Job
	listErr  error
	filters  db.JobFilters
	matches  []db.MatchedJob
	matchErr error

	company *db.Company
	student *db.StudentProfile

	applicants    []db.JobApplicant
	applicantsErr error

	embeddingID uuid.UUID
}

func (s *stubJobStore) CreateJob(ctx context.Context, job *db.Job) (uuid.UUID, error) {
	s.createdJob = job
	return s.createdID, s.createErr
}

func (s *stubJobStore) GetJob(ctx context.Context, id uuid.UUID) (*db.Job, error) {
	return s.job, s.jobErr
}

func (s *stubJobStore) UpdateJob(ctx context.Context, job *db.Job) error {
	return s.updateErr
}

func (s *stubJobStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	s.deletedID = id
	return s.deleteErr
}

func (s *stubJobStore) ListJobs(ctx context.Context, filters db.JobFilters) ([]db.Job, error) {
	s.filters = filters
	return s.jobs, s.listErr
}

func (s *stubJobStore) MatchedJobs(ctx context.Context, studentProfileID uuid.UUID, limit int) ([]db.MatchedJob, error) {
	return s.matches, s.matchErr
}

func (s *stubJobStore) ListApplicantsForJob(ctx context.Context, jobID uuid.UUID) ([]db.JobApplicant, error) {
	return s.applicants, s.applicantsErr
}

func (s *stubJobStore) UpdateJobEmbedding(ctx context.Context, id uuid.UUID, embedding db.Vector) error {
	s.embeddingID = id
	return nil
}

func (s *stubJobStore) GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*db.Company, error) {
	return s.company, nil
}

func (s *stubJobStore) GetStudentProfileByUserID(ctx context.Context, userID uuid.UUID) (*db.StudentProfile, error) {
	return s.student, nil
}

func newJobHandler(store *stubJobStore) *JobHandler {
	return NewJobHandler(store, nil, nil, logger.NewNop())
}

func TestJobList(t *testing.T) {
	t.Run("defaults to open postings", func(t *testing.T) {
		store := &stubJobStore{jobs: []db.Job{{ID: uuid.New(), Title: "Backend Intern", Status: db.JobOpen}}}
		h := newJobHandler(store)

		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, db.JobOpen, store.filters.Status)
		jobs := decodeBody[[]db.Job](t, rec)
		require.Len(t, jobs, 1)
		assert.Equal(t, "Backend Intern", jobs[0].Title)
	})

	t.Run("status and limit filters", func(t *testing.T) {
		store := &stubJobStore{}
		h := newJobHandler(store)

		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/jobs?status=closed&limit=5", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, db.JobClosed, store.filters.Status)
		assert.Equal(t, 5, store.filters.Limit)
	})

	t.Run("invalid status", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{})

		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/jobs?status=archived", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{})

		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/jobs?limit=-3", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestJobMatched(t *testing.T) {
	userID := uuid.New()

	t.Run("returns matches for student", func(t *testing.T) {
		store := &stubJobStore{
			student: &db.StudentProfile{ID: uuid.New(), UserID: userID},
			matches: []db.MatchedJob{{Job: db.Job{ID: uuid.New(), Title: "Backend Intern"}, Similarity: 0.91}},
		}
		h := newJobHandler(store)

		req := authedReq(t, http.MethodGet, "/jobs/matched", nil, userID, db.RoleStudent)
		rec := httptest.NewRecorder()
		h.Matched(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		matches := decodeBody[[]db.MatchedJob](t, rec)
		require.Len(t, matches, 1)
		assert.InDelta(t, 0.91, matches[0].Similarity, 1e-9)
	})

	t.Run("no student profile", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{})

		req := authedReq(t, http.MethodGet, "/jobs/matched", nil, userID, db.RoleStudent)
		rec := httptest.NewRecorder()
		h.Matched(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestJobGet(t *testing.T) {
	job := &db.Job{ID: uuid.New(), Title: "Backend Intern", Status: db.JobOpen}

	t.Run("found", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{job: job})

		req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String(), nil)
		req.SetPathValue("id", job.ID.String())
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[db.Job](t, rec)
		assert.Equal(t, job.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{})

		id := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/jobs/"+id.String(), nil)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{})

		req := httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil)
		req.SetPathValue("id", "not-a-uuid")
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestJobCreate(t *testing.T) {
	userID := uuid.New()
	company := &db.Company{ID: uuid.New(), UserID: userID, Name: "Acme"}
	created := &db.Job{ID: uuid.New(), CompanyID: company.ID, Title: "Backend Intern", Status: db.JobOpen}

	t.Run("success", func(t *testing.T) {
		store := &stubJobStore{company: company, createdID: created.ID, job: created}
		h := newJobHandler(store)

		req := authedReq(t, http.MethodPost, "/jobs", JobRequest{
			Title:          "Backend Intern",
			Description:    "Build APIs in Go.",
			SkillsRequired: []string{"go"},
		}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		got := decodeBody[db.Job](t, rec)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, company.ID, store.createdJob.CompanyID)
	})

	t.Run("missing fields", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{company: company})

		req := authedReq(t, http.MethodPost, "/jobs", JobRequest{Title: "Backend Intern"}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{company: company})

		req := authedReq(t, http.MethodPost, "/jobs", JobRequest{
			Title:       "Backend Intern",
			Description: "Build APIs in Go.",
			Status:      "archived",
		}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no company", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{})

		req := authedReq(t, http.MethodPost, "/jobs", JobRequest{
			Title:       "Backend Intern",
			Description: "Build APIs in Go.",
		}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestJobUpdate(t *testing.T) {
	userID := uuid.New()
	company := &db.Company{ID: uuid.New(), UserID: userID}

	t.Run("owner updates", func(t *testing.T) {
		job := &db.Job{ID: uuid.New(), CompanyID: company.ID, Title: "Old Title", Status: db.JobOpen}
		store := &stubJobStore{company: company, job: job}
		h := newJobHandler(store)

		req := authedReq(t, http.MethodPut, "/jobs/"+job.ID.String(), JobRequest{
			Title:       "New Title",
			Description: "Build APIs in Go.",
		}, userID, db.RoleStartup)
		req.SetPathValue("id", job.ID.String())
		rec := httptest.NewRecorder()
		h.Update(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[db.Job](t, rec)
		assert.Equal(t, "New Title", got.Title)
		// Empty status in the request keeps the existing one.
		assert.Equal(t, db.JobOpen, got.Status)
	})

	t.Run("not the owner", func(t *testing.T) {
		job := &db.Job{ID: uuid.New(), CompanyID: uuid.New(), Title: "Old Title"}
		h := newJobHandler(&stubJobStore{company: company, job: job})

		req := authedReq(t, http.MethodPut, "/jobs/"+job.ID.String(), JobRequest{
			Title:       "New Title",
			Description: "Build APIs in Go.",
		}, userID, db.RoleStartup)
		req.SetPathValue("id", job.ID.String())
		rec := httptest.NewRecorder()
		h.Update(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestJobDelete(t *testing.T) {
	userID := uuid.New()
	company := &db.Company{ID: uuid.New(), UserID: userID}

	t.Run("owner deletes", func(t *testing.T) {
		job := &db.Job{ID: uuid.New(), CompanyID: company.ID}
		store := &stubJobStore{company: company, job: job}
		h := newJobHandler(store)

		req := authedReq(t, http.MethodDelete, "/jobs/"+job.ID.String(), nil, userID, db.RoleStartup)
		req.SetPathValue("id", job.ID.String())
		rec := httptest.NewRecorder()
		h.Delete(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, job.ID, store.deletedID)
	})

	t.Run("not the owner", func(t *testing.T) {
		job := &db.Job{ID: uuid.New(), CompanyID: uuid.New()}
		store := &stubJobStore{company: company, job: job}
		h := newJobHandler(store)

		req := authedReq(t, http.MethodDelete, "/jobs/"+job.ID.String(), nil, userID, db.RoleStartup)
		req.SetPathValue("id", job.ID.String())
		rec := httptest.NewRecorder()
		h.Delete(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, uuid.Nil, store.deletedID)
	})
}

type stubModel struct {
	output string
	err    error
}

func (m *stubModel) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	return m.output, m.err
}

func (m *stubModel) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func (m *stubModel) Close() error { return nil }

func TestJobApplicants(t *testing.T) {
	userID := uuid.New()
	company := &db.Company{ID: uuid.New(), UserID: userID, Name: "Acme"}

	t.Run("owner lists applicants", func(t *testing.T) {
		job := &db.Job{ID: uuid.New(), CompanyID: company.ID, Title: "Backend Intern"}
		score := 82
		store := &stubJobStore{company: company, job: job, applicants: []db.JobApplicant{
			{ID: uuid.New(), Status: db.StatusReviewing, Score: &score, Student: db.JobApplicantStudent{FullName: "Dana Lee"}},
			{ID: uuid.New(), Status: db.StatusPending, Student: db.JobApplicantStudent{FullName: "Sam Park"}},
		}}
		h := newJobHandler(store)

		req := authedReq(t, http.MethodGet, "/jobs/"+job.ID.String()+"/applications", nil, userID, db.RoleStartup)
		req.SetPathValue("id", job.ID.String())
		rec := httptest.NewRecorder()
		h.Applicants(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[JobApplicantsResponse](t, rec)
		assert.Equal(t, job.ID, got.Job.ID)
		assert.Equal(t, "Backend Intern", got.Job.Title)
		require.Len(t, got.Applications, 2)
		assert.Equal(t, "Dana Lee", got.Applications[0].Student.FullName)
		require.NotNil(t, got.Applications[0].Score)
		assert.Equal(t, 82, *got.Applications[0].Score)
	})

	t.Run("not the owner", func(t *testing.T) {
		job := &db.Job{ID: uuid.New(), CompanyID: uuid.New(), Title: "Backend Intern"}
		h := newJobHandler(&stubJobStore{company: company, job: job})

		req := authedReq(t, http.MethodGet, "/jobs/"+job.ID.String()+"/applications", nil, userID, db.RoleStartup)
		req.SetPathValue("id", job.ID.String())
		rec := httptest.NewRecorder()
		h.Applicants(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("job not found", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{company: company})

		id := uuid.New()
		req := authedReq(t, http.MethodGet, "/jobs/"+id.String()+"/applications", nil, userID, db.RoleStartup)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()
		h.Applicants(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestJobParseSkills(t *testing.T) {
	userID := uuid.New()
	company := &db.Company{ID: uuid.New(), UserID: userID, Name: "Acme"}

	t.Run("extracts skills", func(t *testing.T) {
		h := NewJobHandler(&stubJobStore{company: company}, nil,
			authoring.NewAssistant(&stubModel{output: `{"skills": ["Go", "PostgreSQL"]}`}), logger.NewNop())

		req := authedReq(t, http.MethodPost, "/jobs/parse-skills",
			DescriptionRequest{Description: "Build Go services on PostgreSQL."}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.ParseSkills(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[map[string][]string](t, rec)
		assert.Equal(t, []string{"Go", "PostgreSQL"}, got["skills"])
	})

	t.Run("missing description", func(t *testing.T) {
		h := NewJobHandler(&stubJobStore{company: company}, nil,
			authoring.NewAssistant(&stubModel{}), logger.NewNop())

		req := authedReq(t, http.MethodPost, "/jobs/parse-skills",
			DescriptionRequest{Description: "   "}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.ParseSkills(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("assistant unavailable", func(t *testing.T) {
		h := newJobHandler(&stubJobStore{company: company})

		req := authedReq(t, http.MethodPost, "/jobs/parse-skills",
			DescriptionRequest{Description: "Build Go services."}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.ParseSkills(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("model failure", func(t *testing.T) {
		h := NewJobHandler(&stubJobStore{company: company}, nil,
			authoring.NewAssistant(&stubModel{err: errors.New("quota exceeded")}), logger.NewNop())

		req := authedReq(t, http.MethodPost, "/jobs/parse-skills",
			DescriptionRequest{Description: "Build Go services."}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.ParseSkills(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestJobParseRequirements(t *testing.T) {
	userID := uuid.New()
	company := &db.Company{ID: uuid.New(), UserID: userID, Name: "Acme"}

	h := NewJobHandler(&stubJobStore{company: company}, nil,
		authoring.NewAssistant(&stubModel{output: `{"requirements": ["2+ years of Go"]}`}), logger.NewNop())

	req := authedReq(t, http.MethodPost, "/jobs/parse-requirements",
		DescriptionRequest{Description: "Build Go services."}, userID, db.RoleStartup)
	rec := httptest.NewRecorder()
	h.ParseRequirements(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[map[string][]string](t, rec)
	assert.Equal(t, []string{"2+ years of Go"}, got["requirements"])
}

func TestJobEnhanceDescription(t *testing.T) {
	userID := uuid.New()
	company := &db.Company{ID: uuid.New(), UserID: userID, Name: "Acme"}

	t.Run("rewrites description", func(t *testing.T) {
		h := NewJobHandler(&stubJobStore{company: company}, nil,
			authoring.NewAssistant(&stubModel{output: `{"description": "A polished posting."}`}), logger.NewNop())

		req := authedReq(t, http.MethodPost, "/jobs/enhance-description",
			EnhanceDescriptionRequest{JobTitle: "Backend Intern", Description: "build stuff"}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.EnhanceDescription(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[map[string]string](t, rec)
		assert.Equal(t, "A polished posting.", got["description"])
	})

	t.Run("missing title", func(t *testing.T) {
		h := NewJobHandler(&stubJobStore{company: company}, nil,
			authoring.NewAssistant(&stubModel{}), logger.NewNop())

		req := authedReq(t, http.MethodPost, "/jobs/enhance-description",
			EnhanceDescriptionRequest{Description: "build stuff"}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.EnhanceDescription(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no company", func(t *testing.T) {
		h := NewJobHandler(&stubJobStore{}, nil,
			authoring.NewAssistant(&stubModel{}), logger.NewNop())

		req := authedReq(t, http.MethodPost, "/jobs/enhance-description",
			EnhanceDescriptionRequest{JobTitle: "Backend Intern", Description: "build stuff"}, userID, db.RoleStartup)
		rec := httptest.NewRecorder()
		h.EnhanceDescription(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
