package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SitePolicy is the administrative policy document of one site.
type SitePolicy struct {
	SharingCapability        string `json:"sharingCapability"`
	DenyAddAndCustomizePages bool   `json:"denyAddAndCustomizePages"`
	StorageQuotaMB           int64  `json:"storageQuotaMb"`
}

// PolicyStatus reports whether the stored policy is applied on the site.
type PolicyStatus struct {
	State       string    `json:"state"`
	LastApplied time.Time `json:"lastApplied"`
	Drifted     bool      `json:"drifted"`
}

// CleanupJob is the service-side record created for a cleanup request.
type CleanupJob struct {
	ID        string    `json:"id"`
	RequestID uuid.UUID `json:"requestId"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

// CleanupJobStatus is the progress of the most recent cleanup job.
type CleanupJobStatus struct {
	JobID        string     `json:"jobId"`
	State        string     `json:"state"`
	ItemsRemoved int        `json:"itemsRemoved"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

// GetPolicy reads the site policy document.
type GetPolicy struct{}

func (GetPolicy) Name() string { return "get-policy" }

func (GetPolicy) Invoke(ctx context.Context, sess *Session) (any, error) {
	var p SitePolicy
	if err := sess.get(ctx, "/api/v1/policy", &p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPolicy replaces the site policy document with Policy. The write is
// idempotent on the service side.
type SetPolicy struct {
	Policy SitePolicy
}

func (SetPolicy) Name() string { return "set-policy" }

func (o SetPolicy) Invoke(ctx context.Context, sess *Session) (any, error) {
	var applied SitePolicy
	if err := sess.do(ctx, http.MethodPut, "/api/v1/policy", o.Policy, &applied); err != nil {
		return nil, err
	}
	return applied, nil
}

// GetPolicyStatus reads the policy application status.
type GetPolicyStatus struct{}

func (GetPolicyStatus) Name() string { return "get-policy-status" }

func (GetPolicyStatus) Invoke(ctx context.Context, sess *Session) (any, error) {
	var s PolicyStatus
	if err := sess.get(ctx, "/api/v1/policy/status", &s); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateCleanupJob submits a cleanup job. The request ID is fixed at
// construction so a retried submission deduplicates on the service side
// instead of creating a second job.
type CreateCleanupJob struct {
	RequestID uuid.UUID
}

func NewCreateCleanupJob() CreateCleanupJob {
	return CreateCleanupJob{RequestID: uuid.New()}
}

func (CreateCleanupJob) Name() string { return "create-cleanup-job" }

func (o CreateCleanupJob) Invoke(ctx context.Context, sess *Session) (any, error) {
	body := struct {
		RequestID uuid.UUID `json:"requestId"`
	}{RequestID: o.RequestID}
	var job CleanupJob
	if err := sess.do(ctx, http.MethodPost, "/api/v1/jobs/cleanup", body, &job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetCleanupJobStatus polls the status of the site's most recent cleanup
// job.
type GetCleanupJobStatus struct{}

func (GetCleanupJobStatus) Name() string { return "get-cleanup-job-status" }

func (GetCleanupJobStatus) Invoke(ctx context.Context, sess *Session) (any, error) {
	var s CleanupJobStatus
	if err := sess.get(ctx, "/api/v1/jobs/cleanup/latest", &s); err != nil {
		return nil, err
	}
	return s, nil
}
