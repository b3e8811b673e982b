// Package intake gates a run on an approved Specification.
package intake

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/healer"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

var (
	ErrSpecMissing = errors.New("project specification not found")
	ErrNotApproved = errors.New("project specification is not approved (handoff.approved != true)")
)

// Load reads and validates the Specification and enforces approval.
func Load(ctx context.Context, store artifactrepo.Store, log *zap.Logger) (artifact.Specification, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var zero artifact.Specification
	raw, err := store.Get(ctx, artifact.SpecificationFile)
	if artifactrepo.IsNotFound(err) {
		return zero, &healer.StageError{Kind: healer.InputMissing, Stage: "intake", Err: ErrSpecMissing}
	}
	if err != nil {
		return zero, err
	}
	spec, err := artifact.ParseSpecification(artifact.SpecificationFile, raw)
	if err != nil {
		return zero, err
	}
	if !spec.Handoff.Approved {
		return zero, &healer.StageError{Kind: healer.InputMissing, Stage: "intake", Err: ErrNotApproved}
	}
	log.Info("specification approved",
		zap.String("project", spec.ProjectIdentity.Name),
		zap.String("domain", spec.FunctionalScope.ProblemDomain))
	return spec, nil
}

// Draft is a starting Specification for a new project. It is written
// unapproved; the operator flips handoff.approved after review.
func Draft(name, goal, domain string, pages []string, now time.Time) artifact.Specification {
	if domain == "" {
		domain = "ml"
	}
	if len(pages) == 0 {
		pages = []string{"Home", "About Us"}
	}
	return artifact.Specification{
		SpecVersion: "v1",
		ProjectIdentity: artifact.ProjectIdentity{
			Name:        name,
			PrimaryGoal: goal,
		},
		FunctionalScope: artifact.FunctionalScope{
			ApplicationType: "web_app",
			ProblemDomain:   domain,
		},
		UISpec: artifact.UISpec{Pages: pages},
		DeploymentSpec: artifact.DeploymentSpec{
			LocalRun: true,
		},
		Handoff: artifact.Handoff{
			Approved:  false,
			Timestamp: now.UTC().Format(time.RFC3339),
		},
	}
}
