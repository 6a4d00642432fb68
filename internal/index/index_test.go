package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"docassist/internal/domain"
	"docassist/internal/fake"
	"docassist/internal/vectorstore/memory"
)

func chunks(doc string, texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{ID: fmt.Sprintf("%s#%d", doc, i), DocumentID: doc, Index: i, Text: t}
	}
	return out
}

func TestIndex_EmptyToReady(t *testing.T) {
	x := New(fake.NewEmbedder("alpha"), memory.NewStorage(), Options{})
	assert.Equal(t, Empty, x.State())
	assert.Equal(t, "empty", x.State().String())

	require.NoError(t, x.AddChunks(context.Background(), nil))
	assert.Equal(t, Empty, x.State())

	require.NoError(t, x.AddChunks(context.Background(), chunks("a.pdf", "alpha text")))
	assert.Equal(t, Ready, x.State())
	assert.Equal(t, "ready", x.State().String())
	assert.Equal(t, 1, x.Len())
}

func TestIndex_AddChunksBatches(t *testing.T) {
	emb := fake.NewEmbedder("alpha", "beta")
	x := New(emb, memory.NewStorage(), Options{BatchSize: 2, Workers: 3})

	in := chunks("a.pdf", "alpha", "beta", "alpha beta", "beta beta", "none")
	require.NoError(t, x.AddChunks(context.Background(), in))

	assert.Equal(t, 3, emb.Calls())
	assert.Equal(t, 5, x.Len())
	for _, ch := range in {
		v, ok := x.VectorFor(ch.ID)
		require.True(t, ok, ch.ID)
		assert.Len(t, v, 3)
	}
	v, _ := x.VectorFor("a.pdf#3")
	assert.Equal(t, []float64{0, 2, 0.01}, v)
}

func TestIndex_FailedBatchStoresNothing(t *testing.T) {
	emb := fake.NewEmbedder("alpha")
	emb.FailOn = "poison"
	x := New(emb, memory.NewStorage(), Options{BatchSize: 1, Workers: 2})

	err := x.AddChunks(context.Background(), chunks("a.pdf", "alpha", "poison", "alpha again"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Equal(t, Empty, x.State())
	_, ok := x.VectorFor("a.pdf#0")
	assert.False(t, ok)
}

func TestIndex_TransportFailureIsEmbeddingServiceError(t *testing.T) {
	emb := fake.NewEmbedder("alpha")
	emb.Err = errors.New("transport failure")
	x := New(emb, memory.NewStorage(), Options{})

	err := x.AddChunks(context.Background(), chunks("a.pdf", "alpha"))
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Zero(t, x.Len())
}

func TestIndex_ConcurrentAdds(t *testing.T) {
	x := New(fake.NewEmbedder("alpha"), memory.NewStorage(), Options{BatchSize: 3, Workers: 4})
	var wg sync.WaitGroup
	for d := 0; d < 6; d++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			doc := fmt.Sprintf("doc%d.pdf", d)
			assert.NoError(t, x.AddChunks(context.Background(), chunks(doc, "alpha", "b", "c", "alpha alpha")))
		}(d)
	}
	wg.Wait()
	assert.Equal(t, 24, x.Len())
}

// trackingEmbedder records the peak number of concurrent Embed calls.
type trackingEmbedder struct {
	*fake.Embedder
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (e *trackingEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	e.mu.Lock()
	e.inFlight++
	e.peak = max(e.peak, e.inFlight)
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inFlight--
		e.mu.Unlock()
	}()
	time.Sleep(5 * time.Millisecond)
	return e.Embedder.Embed(ctx, texts)
}

func TestIndex_SharedSlotsBoundEmbeddingCalls(t *testing.T) {
	emb := &trackingEmbedder{Embedder: fake.NewEmbedder("alpha")}
	slots := semaphore.NewWeighted(2)
	a := New(emb, memory.NewStorage(), Options{BatchSize: 1, Workers: 4, Slots: slots})
	b := New(emb, memory.NewStorage(), Options{BatchSize: 1, Workers: 4, Slots: slots})

	var wg sync.WaitGroup
	for d, x := range []*Index{a, a, b, b} {
		wg.Add(1)
		go func(d int, x *Index) {
			defer wg.Done()
			doc := fmt.Sprintf("doc%d.pdf", d)
			assert.NoError(t, x.AddChunks(context.Background(), chunks(doc, "alpha", "b", "c", "d")))
		}(d, x)
	}
	wg.Wait()

	assert.Equal(t, 8, a.Len())
	assert.Equal(t, 8, b.Len())
	assert.LessOrEqual(t, emb.peak, 2)
	assert.Equal(t, 16, emb.Calls())
}
