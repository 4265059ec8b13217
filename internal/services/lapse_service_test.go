package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/repositories"
	"subtrack/internal/testutils"
	"subtrack/pkg/metrics"
)

func TestLapseTarget(t *testing.T) {
	due := testutils.Date(2024, 1, 31)
	sub := func(status dbm.SubscriptionStatus, cycle dbm.BillingCycle) dbm.Subscription {
		return dbm.Subscription{Status: status, BillingCycle: cycle, NextRenewal: &due}
	}

	cases := []struct {
		name string
		sub  dbm.Subscription
		now  time.Time
		want dbm.SubscriptionStatus
	}{
		{"within one cycle", sub(dbm.SubStatusActive, dbm.CycleMonthly), testutils.Date(2024, 2, 29), ""},
		{"past one cycle", sub(dbm.SubStatusActive, dbm.CycleMonthly), testutils.Date(2024, 3, 1), dbm.SubStatusOnHold},
		{"past due also holds", sub(dbm.SubStatusPastDue, dbm.CycleMonthly), testutils.Date(2024, 3, 1), dbm.SubStatusOnHold},
		{"on hold stays until three cycles", sub(dbm.SubStatusOnHold, dbm.CycleMonthly), testutils.Date(2024, 4, 30), ""},
		{"on hold expires", sub(dbm.SubStatusOnHold, dbm.CycleMonthly), testutils.Date(2024, 5, 1), dbm.SubStatusExpired},
		{"active holds before expiring", sub(dbm.SubStatusActive, dbm.CycleWeekly), testutils.Date(2024, 3, 1), dbm.SubStatusOnHold},
		{"expired is terminal", sub(dbm.SubStatusExpired, dbm.CycleMonthly), testutils.Date(2030, 1, 1), ""},
		{"one time never lapses", sub(dbm.SubStatusActive, dbm.CycleOneTime), testutils.Date(2030, 1, 1), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, lapseTarget(tc.sub, tc.now))
		})
	}
}

func TestLapseSweep(t *testing.T) {
	db := testutils.NewTestDB(t)
	user := testutils.CreateUser(t, db, dbm.PlanFree)
	r := newReconciler(db)
	ctx := context.Background()

	res, err := r.Reconcile(ctx, user.ID, netflix("m1", testutils.Date(2024, 1, 1)))
	require.NoError(t, err)

	fresh := netflix("m2", testutils.Date(2024, 3, 5))
	fresh.Service = "Hulu"
	_, err = r.Reconcile(ctx, user.ID, fresh)
	require.NoError(t, err)

	subs := repositories.NewSubscriptionRepository(db)
	m := metrics.NewCollector()
	sweeper := NewLapseService(subs, m, zap.NewNop())

	// Netflix was due Feb 1; a month later it is on hold.
	moved, err := sweeper.Sweep(ctx, testutils.Date(2024, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	sub, err := subs.FindByID(ctx, user.ID, res.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, dbm.SubStatusOnHold, sub.Status)

	moved, err = sweeper.Sweep(ctx, testutils.Date(2024, 3, 10))
	require.NoError(t, err)
	assert.Zero(t, moved)

	moved, err = sweeper.Sweep(ctx, testutils.Date(2024, 5, 6))
	require.NoError(t, err)
	assert.Equal(t, 2, moved, "netflix expires, hulu goes on hold")

	sub, err = subs.FindByID(ctx, user.ID, res.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, dbm.SubStatusExpired, sub.Status)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LapseTransitions.WithLabelValues("on_hold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LapseTransitions.WithLabelValues("expired")))
}

func TestLapseRunStopsWithContext(t *testing.T) {
	db := testutils.NewTestDB(t)
	sweeper := NewLapseService(repositories.NewSubscriptionRepository(db), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
