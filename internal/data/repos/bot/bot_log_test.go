package bot

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/cliq-relay-backend/internal/data/repos/testutil"
	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
)

func TestBotLogRepoPriorAndCount(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewBotLogRepo(tx, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.From(ctx)

	u := testutil.SeedIdentity(t, ctx, tx, "cliq-logs", nil)
	other := testutil.SeedIdentity(t, ctx, tx, "cliq-other", nil)

	first := &domain.BotLog{UserID: u.ID, Message: "hello"}
	if err := repo.Append(dbc, first); err != nil {
		t.Fatalf("Append first: %v", err)
	}
	prior, err := repo.PriorTo(dbc, first)
	if err != nil {
		t.Fatalf("PriorTo first: %v", err)
	}
	if prior != nil {
		t.Fatalf("PriorTo first: expected nil, got %q", prior.Message)
	}

	if err := repo.Append(dbc, &domain.BotLog{UserID: other.ID, Message: "noise"}); err != nil {
		t.Fatalf("Append other: %v", err)
	}

	second := &domain.BotLog{UserID: u.ID, Message: "world"}
	if err := repo.Append(dbc, second); err != nil {
		t.Fatalf("Append second: %v", err)
	}
	prior, err = repo.PriorTo(dbc, second)
	if err != nil {
		t.Fatalf("PriorTo second: %v", err)
	}
	if prior == nil || prior.Message != "hello" {
		t.Fatalf("PriorTo second: expected hello, got %+v", prior)
	}

	count, err := repo.CountByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountByUser: want=2 got=%d", count)
	}
}

func TestBotLogRepoPriorFollowsInsertOrderNotClock(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewBotLogRepo(tx, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.From(ctx)

	u := testutil.SeedIdentity(t, ctx, tx, "cliq-skew", nil)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// b is committed after a but carries an earlier wall-clock stamp.
	a := &domain.BotLog{UserID: u.ID, Message: "a", CreatedAt: at}
	b := &domain.BotLog{UserID: u.ID, Message: "b", CreatedAt: at.Add(-time.Minute)}
	c := &domain.BotLog{UserID: u.ID, Message: "c", CreatedAt: at}
	for _, row := range []*domain.BotLog{a, b, c} {
		if err := repo.Append(dbc, row); err != nil {
			t.Fatalf("Append %s: %v", row.Message, err)
		}
	}

	prior, err := repo.PriorTo(dbc, b)
	if err != nil {
		t.Fatalf("PriorTo(b): %v", err)
	}
	if prior == nil || prior.Message != "a" {
		t.Fatalf("PriorTo(b): expected a, got %+v", prior)
	}
	prior, err = repo.PriorTo(dbc, c)
	if err != nil {
		t.Fatalf("PriorTo(c): %v", err)
	}
	if prior == nil || prior.Message != "b" {
		t.Fatalf("PriorTo(c): expected b, got %+v", prior)
	}
}
