package site

import "context"

// stageVerify runs the injected artifact verifier. Findings are warnings in
// the report; they never fail the build.
func stageVerify(ctx context.Context, bs *buildState) error {
	if bs.verifier == nil {
		return nil
	}
	if sa, ok := bs.verifier.(SourceAware); ok {
		sa.SetSources(bs.docs)
	}
	warnings := bs.verifier.Verify(ctx, bs.artifacts)
	for _, w := range warnings {
		bs.report.AddWarning(w)
	}
	bs.recorder.AddBrokenLinks(len(warnings))
	return nil
}
