package history

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tvbatch/internal/contracts"
)

func summary(id string) *contracts.RunSummary {
	return &contracts.RunSummary{RunID: id, Status: contracts.RunCompleted}
}

func TestMemory_KeepsLastN(t *testing.T) {
	m := NewMemory(2)
	ctx := context.Background()

	_, found, err := m.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Record(ctx, summary(id)))
	}

	latest, found, err := m.Latest(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "c", latest.RunID)

	all := m.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].RunID)
}

type failing struct{}

func (failing) Record(context.Context, *contracts.RunSummary) error { return errors.New("down") }
func (failing) Latest(context.Context) (*contracts.RunSummary, bool, error) {
	return nil, false, errors.New("down")
}

func TestMulti_RecordsEverywhere(t *testing.T) {
	mem := NewMemory(0)
	multi := Multi{mem, failing{}}

	err := multi.Record(context.Background(), summary("x"))
	assert.Error(t, err)

	latest, found, err := multi.Latest(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "x", latest.RunID)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(contracts.Number(math.NaN())))
	v := nullable(contracts.Number(1.5))
	require.NotNil(t, v)
	assert.Equal(t, 1.5, *v)
}

func TestPostgres_RoundTrip(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	p := NewPostgres(pool)
	require.NoError(t, p.EnsureSchema(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	s := &contracts.RunSummary{
		RunID:      uuid.NewString(),
		StartedAt:  now.Add(time.Hour), // newest row
		FinishedAt: now.Add(time.Hour + time.Minute),
		Status:     contracts.RunCompleted,
		Source:     contracts.NamedCollection("美股可交易", "US"),
		Items:      []string{"AAPL", "MSFT"},
		Kept:       1,
		Neither:    1,
		Diagnostics: []contracts.ItemDiagnostic{
			{Index: 0, Identifier: "AAPL", Selected: true, Primary: 20, Secondary: 1.5, Verdict: contracts.VerdictKeep},
			{Index: 1, Identifier: "MSFT", Primary: contracts.Number(math.NaN()), Secondary: 2, Verdict: contracts.VerdictNeither},
		},
		Destination: "out.csv",
	}
	require.NoError(t, p.Record(ctx, s))

	latest, found, err := p.Latest(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, s.RunID, latest.RunID)
	require.Len(t, latest.Diagnostics, 2)
	assert.False(t, latest.Diagnostics[1].Primary.Valid())

	_, err = pool.Exec(ctx, `DELETE FROM tvbatch_runs WHERE run_id = $1`, s.RunID)
	require.NoError(t, err)
}
