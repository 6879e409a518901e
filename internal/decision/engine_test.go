package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"kdcflow/internal/evidence"
	"kdcflow/internal/generator"
	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
	"kdcflow/internal/util"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mock.Mock
}

func (f *fakeSource) Ranked(ctx context.Context, req generator.Request) ([]kdc.Candidate, error) {
	args := f.Called(ctx, req)
	out, _ := args.Get(0).([]kdc.Candidate)
	return out, args.Error(1)
}

func (f *fakeSource) Single(ctx context.Context, req generator.Request) (kdc.Candidate, error) {
	args := f.Called(ctx, req)
	return args.Get(0).(kdc.Candidate), args.Error(1)
}

func (f *fakeSource) Refine(ctx context.Context, req generator.Request, previous string) (kdc.Candidate, error) {
	args := f.Called(ctx, req, previous)
	return args.Get(0).(kdc.Candidate), args.Error(1)
}

func model(code string, conf float64) kdc.Candidate {
	return kdc.Candidate{Code: code, Confidence: conf, Source: kdc.SourceModel}
}

var shortStories = models.Book{
	Title:       "한국 현대 단편소설집",
	Category:    "국내도서>문학>소설",
	Description: "현대 작가들의 대표 단편을 엮었다.",
}

func newEngine(src CandidateSource, mutate ...func(*Options)) *Engine {
	opts := DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	e := New(kdc.Default(), src, opts, nil)
	e.newID = func() string { return "req-test" }
	e.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestClassifyEnforcesAnchorOnModelCode(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("305", 0.9)}, nil).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "805", code)
	assert.Equal(t, "305", rec.Validation.Selected)
	assert.Equal(t, "805", rec.Validation.Enforced)
	assert.True(t, rec.Validation.AnchorRewrote)
	assert.True(t, rec.Validation.Member)
	assert.False(t, rec.Validation.SnapBack)
	assert.False(t, rec.TopLevel.TopLevel)
	assert.False(t, rec.TopLevel.RetryAttempted)
	assert.Equal(t, "문학 (세목 미지정)", rec.FinalLabel)
	assert.Equal(t, evidence.StatusClassified, rec.Status)
	src.AssertNotCalled(t, "Single", mock.Anything, mock.Anything)
	src.AssertNotCalled(t, "Refine", mock.Anything, mock.Anything, mock.Anything)
}

func TestClassifyTopLevelRetryFailsOnce(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("800", 0.8)}, nil).Once()
	src.On("Refine", mock.Anything, mock.Anything, "800").
		Return(kdc.Candidate{}, util.ErrParseFailed).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "800", code)
	assert.True(t, rec.TopLevel.TopLevel)
	assert.False(t, rec.TopLevel.Reference)
	assert.True(t, rec.TopLevel.RetryAttempted)
	assert.False(t, rec.TopLevel.RetrySucceeded)
	assert.NotEmpty(t, rec.TopLevel.RetryError)
	src.AssertNumberOfCalls(t, "Refine", 1)
}

func TestClassifyTopLevelRetrySucceeds(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("800", 0.8)}, nil).Once()
	src.On("Refine", mock.Anything, mock.Anything, "800").Return(model("313.7", 1), nil).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "813.7", code, "anchor applies to the retry answer too")
	assert.True(t, rec.TopLevel.RetrySucceeded)
	assert.Equal(t, "813.7", rec.TopLevel.RetryCode)
	assert.Equal(t, "한국 소설", rec.FinalLabel)
}

func TestClassifyTopLevelRetryRejectsAnotherTopLevel(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("800", 0.8)}, nil).Once()
	src.On("Refine", mock.Anything, mock.Anything, "800").Return(model("800", 1), nil).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "800", code)
	assert.True(t, rec.TopLevel.RetryAttempted)
	assert.False(t, rec.TopLevel.RetrySucceeded)
}

func TestClassifyReferenceWorkSkipsRetry(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("000", 0.8)}, nil).Once()

	book := models.Book{Title: "두산 세계 대백과사전"}
	code, rec := newEngine(src).Classify(context.Background(), book, kdc.Anchor{})
	assert.Equal(t, "000", code)
	assert.True(t, rec.TopLevel.TopLevel)
	assert.True(t, rec.TopLevel.Reference)
	assert.False(t, rec.TopLevel.RetryAttempted)
	src.AssertNotCalled(t, "Refine", mock.Anything, mock.Anything, mock.Anything)
}

func TestClassifyRetryDisabled(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("800", 0.8)}, nil).Once()

	code, rec := newEngine(src, func(o *Options) { o.RetryTopLevel = false }).
		Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "800", code)
	assert.False(t, rec.TopLevel.RetryAttempted)
}

func TestClassifyWithoutAnchorKeepsModelCode(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).
		Return([]kdc.Candidate{model("813.7", 0.9), model("325.1", 0.4)}, nil).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.Anchor{})
	assert.Equal(t, "813.7", code)
	assert.False(t, rec.Validation.AnchorRewrote)
	assert.Equal(t, 1000, rec.Allowed.Size)
	require.Len(t, rec.ModelCandidates, 2)
	assert.Equal(t, "한국 소설", rec.ModelCandidates[0].Label)
}

func TestClassifyRankedFailureFallsBackToSingle(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return(nil, errors.New("network down")).Once()
	src.On("Single", mock.Anything, mock.Anything).Return(model("813", 1), nil).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "813", code)
	assert.Equal(t, kdc.SourceModel, rec.Validation.SelectedSource)
	require.Len(t, rec.ModelErrors, 1)
	assert.Equal(t, generator.OpRanked, rec.ModelErrors[0].Stage)
}

func TestClassifyInvalidRankedCodesFallBackToSingle(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("8a3", 0.9)}, nil).Once()
	src.On("Single", mock.Anything, mock.Anything).Return(model("814", 1), nil).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "814", code)
	require.Len(t, rec.Validation.Rejections, 1)
	assert.Equal(t, evidence.StageSyntax, rec.Validation.Rejections[0].Stage)
	assert.Equal(t, "8a3", rec.Validation.Rejections[0].Code)
}

func TestClassifyAllModelSourcesFailUsesRules(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return(nil, util.ErrParseFailed).Once()
	src.On("Single", mock.Anything, mock.Anything).Return(kdc.Candidate{}, util.ErrParseFailed).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "813", code)
	assert.Equal(t, kdc.SourceRule, rec.Validation.SelectedSource)
	assert.Len(t, rec.ModelErrors, 2)
	assert.Empty(t, rec.ModelCandidates)
	assert.NotEmpty(t, rec.RuleCandidates)
}

func TestClassifyNoModelUsesRules(t *testing.T) {
	code, rec := newEngine(nil).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "813", code)
	assert.Equal(t, kdc.SourceRule, rec.Validation.SelectedSource)
	assert.Empty(t, rec.ModelErrors)
}

func TestClassifyNothingAvailable(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	src.On("Single", mock.Anything, mock.Anything).Return(kdc.Candidate{}, errors.New("timeout")).Once()

	code, rec := newEngine(src).Classify(context.Background(), models.Book{}, kdc.BuildAnchor("800"))
	assert.Equal(t, "", code)
	assert.Equal(t, evidence.StatusUndetermined, rec.Status)
	assert.Equal(t, ReasonNoCandidate, rec.Reason)
	assert.Equal(t, 100, rec.Allowed.Size)
}

func TestClassifyRecoversFromCollaboratorPanic(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Return(nil, nil).Once()
	src.On("Single", mock.Anything, mock.Anything).Return(model("813", 1), nil).Once()

	code, rec := newEngine(src).Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "813", code)
	require.NotEmpty(t, rec.ModelErrors)
	assert.Contains(t, rec.ModelErrors[0].Error, "panicked")
}

func TestClassifySnapModeSnapsBackToRuleHead(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("325.7", 0.9)}, nil).Once()

	e := newEngine(src, func(o *Options) { o.AnchorMode = AnchorSnap })
	code, rec := e.Classify(context.Background(), shortStories, kdc.BuildAnchor("800"))
	assert.Equal(t, "813.7", code, "rule head keeps the model's fraction")
	assert.True(t, rec.Validation.SnapBack)
	assert.Equal(t, "813.7", rec.Validation.SnapBackTo)
	assert.True(t, rec.Validation.Member)
	require.Len(t, rec.Validation.Rejections, 1)
	assert.Equal(t, evidence.StageMembership, rec.Validation.Rejections[0].Stage)
}

func TestClassifySnapModeWithoutRulesUsesFirstAllowed(t *testing.T) {
	src := &fakeSource{}
	src.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model("325", 0.9)}, nil).Once()

	e := newEngine(src, func(o *Options) { o.AnchorMode = AnchorSnap })
	code, rec := e.Classify(context.Background(), models.Book{Title: "zzz"}, kdc.BuildAnchor("813"))
	assert.Equal(t, "813", code)
	assert.True(t, rec.Validation.SnapBack)
}

func TestAcceptedCodesAreAlwaysAllowed(t *testing.T) {
	proposals := []string{"305", "813.7", "000", "999.12", "1", "45.6"}
	for _, src := range []string{"", "800", "813", "010", "305", "900"} {
		anchor := kdc.BuildAnchor(src)
		allowed := kdc.Default().Allowed(anchor)
		for _, p := range proposals {
			for _, mode := range []AnchorMode{AnchorEnforce, AnchorSnap} {
				code, _ := kdc.NormalizeCode(p)
				fs := &fakeSource{}
				fs.On("Ranked", mock.Anything, mock.Anything).Return([]kdc.Candidate{model(code, 0.9)}, nil)
				fs.On("Refine", mock.Anything, mock.Anything, mock.Anything).Return(kdc.Candidate{}, util.ErrParseFailed)

				got, _ := newEngine(fs, func(o *Options) { o.AnchorMode = mode }).
					Classify(context.Background(), shortStories, anchor)
				require.NotEmpty(t, got)
				assert.True(t, kdc.ValidCode(got), "anchor %q proposal %q mode %s -> %q", src, p, mode, got)
				assert.True(t, allowed.Contains(got), "anchor %q proposal %q mode %s -> %q", src, p, mode, got)
			}
		}
	}
}

func TestParseAnchorMode(t *testing.T) {
	assert.Equal(t, AnchorSnap, ParseAnchorMode(" SNAP "))
	assert.Equal(t, AnchorEnforce, ParseAnchorMode("enforce"))
	assert.Equal(t, AnchorEnforce, ParseAnchorMode(""))
}
