// Package pipeline runs one ISBN through catalog lookup, the registry hint and
// the decision engine. Upstream failures degrade the inputs instead of
// aborting the request.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kdcflow/internal/evidence"
	"kdcflow/internal/kdc"
	"kdcflow/internal/models"
)

type BookSource interface {
	Lookup(ctx context.Context, isbn string) (models.Book, error)
}

type HintSource interface {
	ClassHint(ctx context.Context, isbn string) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, book models.Book, anchor kdc.Anchor) (string, evidence.Record)
}

type UpstreamError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type Result struct {
	ISBN         string          `json:"isbn,omitempty"`
	Book         models.Book     `json:"book"`
	AnchorSource string          `json:"anchor_source,omitempty"`
	Code         string          `json:"code,omitempty"`
	Upstream     []UpstreamError `json:"upstream_errors,omitempty"`
	Record       evidence.Record `json:"evidence"`
}

// Run converts the result to its stored form.
func (r Result) Run(batchID string) models.ClassificationRun {
	raw, _ := json.Marshal(r)
	return models.ClassificationRun{
		RunID:      r.Record.RequestID,
		ISBN:       r.ISBN,
		BatchID:    batchID,
		Status:     string(r.Record.Status),
		FinalCode:  r.Code,
		AnchorCode: r.AnchorSource,
		FailReason: r.Record.Reason,
		Evidence:   raw,
		CreatedAt:  r.Record.CreatedAt,
	}
}

type Pipeline struct {
	books  BookSource
	hints  HintSource
	engine Classifier
	log    *zap.Logger
}

// New wires a pipeline. books and hints may be nil; a missing source is
// treated like one that always fails.
func New(books BookSource, hints HintSource, engine Classifier, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{books: books, hints: hints, engine: engine, log: log}
}

// ClassifyISBN returns an error only for a malformed ISBN. Everything after
// that ends in a Result, possibly with an empty code.
func (p *Pipeline) ClassifyISBN(ctx context.Context, raw string) (Result, error) {
	isbn, ok := models.NormalizeISBN(raw)
	if !ok {
		return Result{}, fmt.Errorf("invalid isbn %q", raw)
	}
	isbn = models.ISBN13(isbn)

	var (
		book             models.Book
		hint             string
		bookErr, hintErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		if p.books == nil {
			bookErr = fmt.Errorf("no catalog configured")
			return nil
		}
		book, bookErr = p.books.Lookup(ctx, isbn)
		return nil
	})
	g.Go(func() error {
		if p.hints == nil {
			hintErr = fmt.Errorf("no registry configured")
			return nil
		}
		hint, hintErr = p.hints.ClassHint(ctx, isbn)
		return nil
	})
	_ = g.Wait()

	var upstream []UpstreamError
	if bookErr != nil {
		p.log.Warn("catalog lookup failed", zap.String("isbn", isbn), zap.Error(bookErr))
		upstream = append(upstream, UpstreamError{Source: "catalog", Error: bookErr.Error()})
		book = models.Book{}
	}
	if hintErr != nil {
		p.log.Warn("class hint lookup failed", zap.String("isbn", isbn), zap.Error(hintErr))
		upstream = append(upstream, UpstreamError{Source: "registry", Error: hintErr.Error()})
		hint = ""
	}
	if book.ISBN13 == "" {
		book.ISBN13 = isbn
	}

	res := p.ClassifyBook(ctx, book, hint)
	res.ISBN = isbn
	res.Upstream = upstream
	return res, nil
}

// ClassifyBook runs the engine on a known book and an optional three digit
// hint.
func (p *Pipeline) ClassifyBook(ctx context.Context, book models.Book, anchorSource string) Result {
	code, rec := p.engine.Classify(ctx, book, kdc.BuildAnchor(anchorSource))
	return Result{
		ISBN:         book.ISBN13,
		Book:         book,
		AnchorSource: anchorSource,
		Code:         code,
		Record:       rec,
	}
}
