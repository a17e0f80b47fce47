package trust

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
	"github.com/tbd54566975/dcc-verifier/pkg/testutil"
)

func newTestEntries(t *testing.T) []keyaccess.TrustEntry {
	now := time.Now()
	first := testutil.NewTestSigner(t, now.Add(-time.Hour), now.Add(time.Hour)).TrustEntry()
	second := testutil.NewTestSigner(t, now.Add(-time.Hour), now.Add(time.Hour)).TrustEntry()
	third := testutil.NewTestSigner(t, now.Add(-time.Hour), now.Add(time.Hour)).TrustEntry()
	// two entries share a kid, as after a key rotation
	second.KID = first.KID
	return []keyaccess.TrustEntry{first, second, third}
}

func TestTrustService(t *testing.T) {
	for _, tc := range testutil.TestDatabases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("store and lookup by kid", func(tt *testing.T) {
				s, err := NewTrustService(config.TrustServiceConfig{}, tc.ServiceStorage(tt))
				require.NoError(tt, err)
				assert.True(tt, s.Status().IsReady())
				assert.Empty(tt, s.GetCertificatesBy("unknown"))

				entries := newTestEntries(tt)
				stored, err := s.StoreTrustEntries(ctx, StoreTrustEntriesRequest{Entries: entries})
				require.NoError(tt, err)
				require.Len(tt, stored.Entries, 3)
				for _, e := range stored.Entries {
					assert.NotEmpty(tt, e.ID)
				}

				candidates := s.GetCertificatesBy(entries[0].KID)
				require.Len(tt, candidates, 2)
				assert.Equal(tt, stored.Entries[0], candidates[0])
				assert.Equal(tt, stored.Entries[1], candidates[1])
				assert.Len(tt, s.GetCertificatesBy(entries[2].KID), 1)

				got, err := s.GetTrustEntry(ctx, GetTrustEntryRequest{ID: stored.Entries[2].ID})
				require.NoError(tt, err)
				assert.Equal(tt, stored.Entries[2], got.Entry)

				listed, err := s.ListTrustEntries(ctx, ListTrustEntriesRequest{})
				require.NoError(tt, err)
				assert.Equal(tt, stored.Entries, listed.Entries)

				byKID, err := s.ListTrustEntries(ctx, ListTrustEntriesRequest{KID: entries[0].KID})
				require.NoError(tt, err)
				assert.Len(tt, byKID.Entries, 2)
			})

			t.Run("insertion order survives reloads", func(tt *testing.T) {
				db := tc.ServiceStorage(tt)
				s, err := NewTrustService(config.TrustServiceConfig{}, db)
				require.NoError(tt, err)

				entries := newTestEntries(tt)
				entries[0].ID = "z"
				entries[1].ID = "a"
				_, err = s.StoreTrustEntries(ctx, StoreTrustEntriesRequest{Entries: entries[:2]})
				require.NoError(tt, err)

				reloaded, err := NewTrustService(config.TrustServiceConfig{}, db)
				require.NoError(tt, err)
				candidates := reloaded.GetCertificatesBy(entries[0].KID)
				require.Len(tt, candidates, 2)
				assert.Equal(tt, "z", candidates[0].ID)
				assert.Equal(tt, "a", candidates[1].ID)

				// overwriting keeps the position
				_, err = reloaded.StoreTrustEntries(ctx, StoreTrustEntriesRequest{Entries: []keyaccess.TrustEntry{entries[0]}})
				require.NoError(tt, err)
				candidates = reloaded.GetCertificatesBy(entries[0].KID)
				require.Len(tt, candidates, 2)
				assert.Equal(tt, "z", candidates[0].ID)
			})

			t.Run("replace and delete", func(tt *testing.T) {
				s, err := NewTrustService(config.TrustServiceConfig{}, tc.ServiceStorage(tt))
				require.NoError(tt, err)

				entries := newTestEntries(tt)
				_, err = s.StoreTrustEntries(ctx, StoreTrustEntriesRequest{Entries: entries[:2]})
				require.NoError(tt, err)

				require.NoError(tt, s.ReplaceTrustEntries(ctx, ReplaceTrustEntriesRequest{Entries: entries[2:]}))
				assert.Empty(tt, s.GetCertificatesBy(entries[0].KID))
				replaced := s.GetCertificatesBy(entries[2].KID)
				require.Len(tt, replaced, 1)

				require.NoError(tt, s.DeleteTrustEntry(ctx, DeleteTrustEntryRequest{ID: replaced[0].ID}))
				assert.Empty(tt, s.GetCertificatesBy(entries[2].KID))

				err = s.DeleteTrustEntry(ctx, DeleteTrustEntryRequest{ID: replaced[0].ID})
				assert.Error(tt, err)

				_, err = s.GetTrustEntry(ctx, GetTrustEntryRequest{ID: "missing"})
				assert.Error(tt, err)
			})

			t.Run("failed replace keeps the stored list", func(tt *testing.T) {
				db := tc.ServiceStorage(tt)
				s, err := NewTrustService(config.TrustServiceConfig{}, db)
				require.NoError(tt, err)
				entries := newTestEntries(tt)
				_, err = s.StoreTrustEntries(ctx, StoreTrustEntriesRequest{Entries: entries[:2]})
				require.NoError(tt, err)

				failing, err := NewTrustService(config.TrustServiceConfig{}, testutil.FailingWritesStorage{ServiceStorage: db})
				require.NoError(tt, err)
				err = failing.ReplaceTrustEntries(ctx, ReplaceTrustEntriesRequest{Entries: entries[2:]})
				require.ErrorIs(tt, err, testutil.ErrWriteFailed)
				assert.Len(tt, failing.GetCertificatesBy(entries[0].KID), 2)
				assert.Empty(tt, failing.GetCertificatesBy(entries[2].KID))

				// a restart loads the old list, not an empty one
				reloaded, err := NewTrustService(config.TrustServiceConfig{}, db)
				require.NoError(tt, err)
				assert.Len(tt, reloaded.GetCertificatesBy(entries[0].KID), 2)
			})

			t.Run("invalid entries are rejected", func(tt *testing.T) {
				s, err := NewTrustService(config.TrustServiceConfig{}, tc.ServiceStorage(tt))
				require.NoError(tt, err)

				_, err = s.StoreTrustEntries(ctx, StoreTrustEntriesRequest{})
				assert.Error(tt, err)
				_, err = s.StoreTrustEntries(ctx, StoreTrustEntriesRequest{Entries: []keyaccess.TrustEntry{{KID: "a2lk"}}})
				assert.Error(tt, err)
				_, err = s.StoreTrustEntries(ctx, StoreTrustEntriesRequest{Entries: []keyaccess.TrustEntry{{RawData: []byte{1}}}})
				assert.Error(tt, err)
			})

			t.Run("readers see whole snapshots", func(tt *testing.T) {
				s, err := NewTrustService(config.TrustServiceConfig{}, tc.ServiceStorage(tt))
				require.NoError(tt, err)

				entries := newTestEntries(tt)
				kid := entries[0].KID
				pair := entries[:2]
				require.NoError(tt, s.ReplaceTrustEntries(ctx, ReplaceTrustEntriesRequest{Entries: pair}))

				var wg sync.WaitGroup
				done := make(chan struct{})
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						select {
						case <-done:
							return
						default:
							// every replacement carries both entries of the kid
							n := len(s.GetCertificatesBy(kid))
							assert.Equal(tt, 2, n)
						}
					}
				}()
				for i := 0; i < 5; i++ {
					require.NoError(tt, s.ReplaceTrustEntries(ctx, ReplaceTrustEntriesRequest{Entries: pair}))
				}
				close(done)
				wg.Wait()
			})
		})
	}
}
