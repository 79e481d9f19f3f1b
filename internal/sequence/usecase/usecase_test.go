package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/database/memory"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUseCase() sequence.UseCase {
	return NewSequenceUseCase(memory.NewCounterRepository(memory.NewStore()), Config{
		GSTPrefix:    "GST",
		NonGSTPrefix: "NGST",
		Location:     time.FixedZone("IST", 5*3600+1800),
	}, logger.NewNop())
}

func TestNextStartsAtOne(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase()

	cur, err := uc.Current(ctx, "25-26", model.TaxTypeGST)
	require.NoError(t, err)
	assert.Equal(t, 0, cur)

	seq, err := uc.Next(ctx, "25-26", model.TaxTypeGST)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	seq, err = uc.Next(ctx, "25-26", model.TaxTypeGST)
	require.NoError(t, err)
	assert.Equal(t, 2, seq)

	// keys are independent
	seq, err = uc.Next(ctx, "25-26", model.TaxTypeNonGST)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
	seq, err = uc.Next(ctx, "26-27", model.TaxTypeGST)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	cur, err = uc.Current(ctx, "25-26", model.TaxTypeGST)
	require.NoError(t, err)
	assert.Equal(t, 2, cur)
}

func TestNextRejectsUnknownKey(t *testing.T) {
	_, err := newUseCase().Next(context.Background(), "25-26", model.TaxType("VAT"))
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = newUseCase().Current(context.Background(), "", model.TaxTypeGST)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestConcurrentNextIsUnique(t *testing.T) {
	const n = 100
	ctx := context.Background()
	uc := newUseCase()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := uc.Next(ctx, "25-26", model.TaxTypeGST)
			assert.NoError(t, err)
			mu.Lock()
			got = append(got, seq)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(got)
	require.Len(t, got, n)
	for i, seq := range got {
		assert.Equal(t, i+1, seq)
	}
}

func TestIssueUsesBusinessTimezone(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase()

	issued, err := uc.Issue(ctx, model.TaxTypeNonGST, time.Date(2026, time.March, 31, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "26-27", issued.FinancialYear)
	assert.Equal(t, 1, issued.Sequence)
	assert.Equal(t, "NGST/26-27/001", issued.Number)

	issued, err = uc.Issue(ctx, model.TaxTypeGST, time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "GST/25-26/001", issued.Number)
}
