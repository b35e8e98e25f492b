package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/adapters/memory"
)

func TestSync_PushesCurrentSnapshot(t *testing.T) {
	repo := memory.NewVocabularyRepository()
	rec := &fakeRecognizer{}
	syncer := NewVocabularySyncer(repo, rec, zap.NewNop())
	ctx := context.Background()

	repo.Add(ctx, "u1", "stent", 10)
	repo.Add(ctx, "u1", "bronchitis", 10)

	if err := syncer.Sync(ctx, "u1"); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if rec.pushes() != 1 {
		t.Fatalf("Expected 1 push, got %d", rec.pushes())
	}
	if len(rec.snapshot()) != 2 {
		t.Errorf("Expected snapshot of 2 phrases, got %d", len(rec.snapshot()))
	}
}

func TestSync_CoalescesConcurrentRequests(t *testing.T) {
	repo := memory.NewVocabularyRepository()
	rec := &fakeRecognizer{
		pushStarted: make(chan struct{}, 16),
		pushRelease: make(chan struct{}),
	}
	syncer := NewVocabularySyncer(repo, rec, zap.NewNop())
	ctx := context.Background()

	repo.Add(ctx, "u1", "phrase0", 10)

	done := make(chan error, 1)
	go func() {
		done <- syncer.Sync(ctx, "u1")
	}()

	// Wait until the first push is in flight, then land more mutations
	// with their own sync requests. They must coalesce, not stack.
	<-rec.pushStarted
	const extra = 5
	for i := 1; i <= extra; i++ {
		repo.Add(ctx, "u1", fmt.Sprintf("phrase%d", i), 10)
		if err := syncer.Sync(ctx, "u1"); err != nil {
			t.Fatalf("Coalesced sync returned error: %v", err)
		}
	}

	close(rec.pushRelease)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Sync did not finish")
	}

	// One original push plus at most one coalesced rerun.
	if pushes := rec.pushes(); pushes < 1 || pushes > 2 {
		t.Errorf("Expected 1 or 2 pushes, got %d", pushes)
	}
	// No lost updates: the final push carries every mutation.
	if len(rec.snapshot()) != extra+1 {
		t.Errorf("Expected final snapshot of %d phrases, got %d", extra+1, len(rec.snapshot()))
	}
}

func TestSync_FailureIsReturnedButNonFatal(t *testing.T) {
	repo := memory.NewVocabularyRepository()
	rec := &fakeRecognizer{pushErr: errProviderDown}
	syncer := NewVocabularySyncer(repo, rec, zap.NewNop())
	ctx := context.Background()

	repo.Add(ctx, "u1", "stent", 10)

	if err := syncer.Sync(ctx, "u1"); err == nil {
		t.Error("Expected push error to be reported")
	}

	// A later sync runs again; the state machine is not stuck.
	rec.pushErr = nil
	if err := syncer.Sync(ctx, "u1"); err != nil {
		t.Errorf("Expected recovery after failure, got %v", err)
	}
	if rec.pushes() != 2 {
		t.Errorf("Expected 2 pushes, got %d", rec.pushes())
	}
}
