package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.VerifyAccess != nil
}

func (s Service) Authenticate(ctx context.Context, accessToken, refreshToken string) AuthResultData {
	return RunAuthenticate(ctx, accessToken, refreshToken, s.deps.Authenticate)
}

func (s Service) Issue(ctx context.Context, subjectID, email string) IssueResult {
	return RunIssue(ctx, subjectID, email, s.deps.Issue)
}
