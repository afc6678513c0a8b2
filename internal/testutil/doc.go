// Package testutil provides shared test helpers and fixtures.
//
// Prefer real SQLite over mocks, keep helpers small, and register cleanup via
// t.Cleanup so tests stay leak-free.
//
// Most packages should start with:
//
//	database := testutil.NewTestDB(t)
//	d := testutil.MakeDetection(t, database, testutil.WithTier(core.TierCritical))
package testutil
