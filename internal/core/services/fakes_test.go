package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// Test doubles for the driven ports, shared across the service tests.

var (
	_ driven.GenerationProvider = (*stubProvider)(nil)
	_ driven.RepositoryHost     = (*fakeHost)(nil)
	_ driven.SiteProber         = (*fakeProber)(nil)
	_ driven.EvaluationNotifier = (*fakeNotifier)(nil)
	_ driven.DeadLetterStore    = (*fakeLetterStore)(nil)
	_ driven.AttachmentResolver = (*fakeResolver)(nil)
)

// stubProvider is a scripted generation backend. When err is set every
// call fails; otherwise the first failFirst calls fail and the rest
// return content.
type stubProvider struct {
	name      domain.Provider
	available bool
	err       error
	failFirst int
	content   string

	mu       sync.Mutex
	requests []driven.GenerationRequest
}

func newStubProvider(name domain.Provider, content string) *stubProvider {
	return &stubProvider{name: name, available: true, content: content}
}

func (s *stubProvider) Generate(_ context.Context, req driven.GenerationRequest) (*driven.GenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.requests) <= s.failFirst {
		return nil, fmt.Errorf("transient failure %d", len(s.requests))
	}
	return &driven.GenerationResult{
		Content:  s.content,
		Model:    req.Model,
		Provider: s.name,
		Usage:    driven.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}

func (s *stubProvider) Available() bool       { return s.available }
func (s *stubProvider) Name() domain.Provider { return s.name }

func (s *stubProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubProvider) lastRequest() driven.GenerationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// newTestFallback routes a single model to the stub provider, with
// waits short enough for tests.
func newTestFallback(provider *stubProvider, attempts int) *GenerationFallback {
	prefs := domain.ModelPreferences{
		Models:  []string{"gpt-5"},
		Routing: map[string][]domain.Provider{"gpt-5": {provider.name}},
	}
	providers := map[domain.Provider]driven.GenerationProvider{provider.name: provider}
	return NewGenerationFallback(providers, prefs, FallbackConfig{
		Attempts:   attempts,
		Backoff:    time.Millisecond,
		BackoffCap: 2 * time.Millisecond,
	})
}

// fakeHost is an in-memory repository host.
type fakeHost struct {
	mu           sync.Mutex
	repos        map[string]*domain.RepositoryRef
	files        map[string]domain.FileSet
	descriptions map[string]string
	published    []publishedCommit
	pagesEnabled []string
	commitSeq    int
	getCalls     int
	ensureCalls  int

	getErr     error
	ensureErr  error
	filesErr   error
	publishErr error
	pagesErr   error

	// publishHold widens the race window for overlap detection.
	publishHold time.Duration
	inPublish   int32
	overlapped  atomic.Bool
}

type publishedCommit struct {
	repo  string
	files domain.FileSet
	sha   string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		repos:        make(map[string]*domain.RepositoryRef),
		files:        make(map[string]domain.FileSet),
		descriptions: make(map[string]string),
	}
}

// addRepo seeds a repository, optionally with a current file tree.
func (f *fakeHost) addRepo(name string, files domain.FileSet) *domain.RepositoryRef {
	ref := &domain.RepositoryRef{
		Owner:         "testuser",
		Name:          name,
		FullName:      "testuser/" + name,
		DefaultBranch: "main",
		URL:           "https://github.com/testuser/" + name,
	}
	f.repos[name] = ref
	if files != nil {
		f.files[name] = files
	}
	return ref
}

func (f *fakeHost) Ensure(_ context.Context, name, description string) (*domain.RepositoryRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	f.descriptions[name] = description
	if ref, ok := f.repos[name]; ok {
		return ref, nil
	}
	return f.addRepo(name, nil), nil
}

func (f *fakeHost) Get(_ context.Context, name string) (*domain.RepositoryRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if ref, ok := f.repos[name]; ok {
		return ref, nil
	}
	return nil, fmt.Errorf("repository %s: %w", name, domain.ErrNotFound)
}

func (f *fakeHost) Files(_ context.Context, ref *domain.RepositoryRef) (domain.FileSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	if files, ok := f.files[ref.Name]; ok {
		return files.Clone(), nil
	}
	return domain.FileSet{}, nil
}

func (f *fakeHost) Publish(_ context.Context, ref *domain.RepositoryRef, files domain.FileSet) (*domain.CommitResult, error) {
	if atomic.AddInt32(&f.inPublish, 1) > 1 {
		f.overlapped.Store(true)
	}
	if f.publishHold > 0 {
		time.Sleep(f.publishHold)
	}
	atomic.AddInt32(&f.inPublish, -1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.commitSeq++
	sha := fmt.Sprintf("commit-%d", f.commitSeq)
	f.published = append(f.published, publishedCommit{repo: ref.Name, files: files.Clone(), sha: sha})

	committed := files.Clone()
	delete(committed, domain.RoundKey)
	f.files[ref.Name] = committed
	return &domain.CommitResult{SHA: sha}, nil
}

func (f *fakeHost) EnablePages(_ context.Context, ref *domain.RepositoryRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pagesErr != nil {
		return f.pagesErr
	}
	f.pagesEnabled = append(f.pagesEnabled, ref.Name)
	return nil
}

func (f *fakeHost) PagesURL(ref *domain.RepositoryRef) string {
	return "https://testuser.github.io/" + ref.Name + "/"
}

func (f *fakeHost) publishes() []publishedCommit {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedCommit, len(f.published))
	copy(out, f.published)
	return out
}

func (f *fakeHost) description(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.descriptions[name]
}

func (f *fakeHost) counts() (gets, ensures int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.ensureCalls
}

func (f *fakeHost) pagesEnabledFor() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.pagesEnabled))
	copy(out, f.pagesEnabled)
	return out
}

// fakeProber fails every probe until succeedOn is reached; zero never
// succeeds.
type fakeProber struct {
	succeedOn int

	mu      sync.Mutex
	calls   int
	lastURL string
}

func (f *fakeProber) Probe(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastURL = url
	if f.succeedOn > 0 && f.calls >= f.succeedOn {
		return nil
	}
	return errors.New("connection refused")
}

func (f *fakeProber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProber) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastURL
}

type notifyCall struct {
	endpoint string
	payload  domain.EvaluationNotification
}

// fakeNotifier records deliveries. When err is set every call fails;
// otherwise the first failFirst calls fail. A non-nil block channel
// stalls deliveries until it is closed.
type fakeNotifier struct {
	err       error
	failFirst int
	block     chan struct{}

	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) Notify(_ context.Context, endpoint string, n domain.EvaluationNotification) error {
	f.mu.Lock()
	f.calls = append(f.calls, notifyCall{endpoint: endpoint, payload: n})
	count := len(f.calls)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return f.err
	}
	if count <= f.failFirst {
		return fmt.Errorf("status 500 on attempt %d", count)
	}
	return nil
}

func (f *fakeNotifier) all() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notifyCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeLetterStore is an in-memory dead letter store.
type fakeLetterStore struct {
	saveErr error

	mu      sync.Mutex
	letters map[string]domain.DeadLetter
}

func newFakeLetterStore() *fakeLetterStore {
	return &fakeLetterStore{letters: make(map[string]domain.DeadLetter)}
}

func (f *fakeLetterStore) Save(_ context.Context, letter domain.DeadLetter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.letters[letter.ID] = letter
	return nil
}

func (f *fakeLetterStore) List(_ context.Context) ([]domain.DeadLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DeadLetter, 0, len(f.letters))
	for _, letter := range f.letters {
		out = append(out, letter)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeLetterStore) Get(_ context.Context, id string) (*domain.DeadLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	letter, ok := f.letters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &letter, nil
}

func (f *fakeLetterStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.letters[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.letters, id)
	return nil
}

func (f *fakeLetterStore) Close() error { return nil }

func (f *fakeLetterStore) all() []domain.DeadLetter {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DeadLetter, 0, len(f.letters))
	for _, letter := range f.letters {
		out = append(out, letter)
	}
	return out
}

// fakeResolver returns scripted attachments.
type fakeResolver struct {
	attachments []domain.Attachment
	err         error

	mu    sync.Mutex
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, refs []domain.AttachmentRef) ([]domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	return f.attachments, nil
}

// testBuildTask returns a valid task for the given round.
func testBuildTask(round int) domain.BuildTask {
	return domain.BuildTask{
		Task:          "demo-app",
		Email:         "alice@example.com",
		Round:         round,
		Nonce:         "nonce-1",
		Brief:         "Build a counter",
		Checks:        []string{"has a button", "counts clicks"},
		EvaluationURL: "https://eval.example.com/notify",
	}
}
