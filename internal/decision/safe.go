package decision

import (
	"context"
	"fmt"

	"kdcflow/internal/generator"
	"kdcflow/internal/kdc"
)

// A panic in the collaborator degrades to an error like any other failure.

func safeRanked(ctx context.Context, src CandidateSource, req generator.Request) (out []kdc.Candidate, err error) {
	defer recoverInto(&err)
	return src.Ranked(ctx, req)
}

func safeSingle(ctx context.Context, src CandidateSource, req generator.Request) (out kdc.Candidate, err error) {
	defer recoverInto(&err)
	return src.Single(ctx, req)
}

func safeRefine(ctx context.Context, src CandidateSource, req generator.Request, previous string) (out kdc.Candidate, err error) {
	defer recoverInto(&err)
	return src.Refine(ctx, req, previous)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("candidate source panicked: %v", r)
	}
}
