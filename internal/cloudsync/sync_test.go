package cloudsync

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/internal/decks"
	"github.com/example/katasensei/internal/gamification"
	"github.com/example/katasensei/pkg/models"
)

type memoryRemote struct {
	docs map[string]CloudData
}

func (m *memoryRemote) Load(_ context.Context, userID string) (*CloudData, error) {
	d, ok := m.docs[userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memoryRemote) Save(_ context.Context, userID string, data CloudData) error {
	m.docs[userID] = data
	return nil
}

type device struct {
	decks  *decks.Service
	ledger *gamification.Ledger
	syncer *Syncer
}

func newDevice(t *testing.T, remote Remote, cards int) *device {
	t.Helper()
	storage := database.NewStorage(database.NewMemoryStore(), nil)
	d := &device{
		decks:  decks.NewService(storage, nil),
		ledger: gamification.NewLedger(storage, nil),
	}
	d.syncer = NewSyncer(d.decks, d.ledger, remote, nil)

	ctx := context.Background()
	deck, err := d.decks.CreateDeck(ctx, decks.NewDeck{Name: "Makanan"})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}
	var batch []models.Card
	for i := 0; i < cards; i++ {
		batch = append(batch, models.Card{DeckID: deck.ID, Japanese: fmt.Sprintf("語%d", i), Indonesia: "kata"})
	}
	if _, err := d.decks.AddCards(ctx, batch); err != nil {
		t.Fatalf("add cards: %v", err)
	}
	return d
}

func TestSyncUploadsWhenRemoteEmpty(t *testing.T) {
	remote := &memoryRemote{docs: map[string]CloudData{}}
	d := newDevice(t, remote, 3)

	out, err := d.syncer.Sync(context.Background(), "u1")
	if err != nil || out != OutcomeUploaded {
		t.Fatalf("expected upload, got %s %v", out, err)
	}
	doc := remote.docs["u1"]
	if len(doc.Cards) != 3 || len(doc.Decks) != 1 || doc.Stats == nil {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestSyncDownloadsWhenRemoteHasMore(t *testing.T) {
	ctx := context.Background()
	remote := &memoryRemote{docs: map[string]CloudData{}}

	laptop := newDevice(t, remote, 4)
	laptop.ledger.AddXP(ctx, 340) // level 3
	if _, err := laptop.syncer.Sync(ctx, "u1"); err != nil {
		t.Fatalf("laptop sync: %v", err)
	}

	phone := newDevice(t, remote, 2)
	phone.ledger.UpdateStreak(ctx, time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	out, err := phone.syncer.Sync(ctx, "u1")
	if err != nil || out != OutcomeDownloaded {
		t.Fatalf("expected download, got %s %v", out, err)
	}

	if n := len(phone.decks.ListCards(ctx, "")); n != 4 {
		t.Fatalf("phone should now hold the cloud's 4 cards, got %d", n)
	}
	stats := phone.ledger.Stats(ctx)
	if stats.Level != 3 || stats.Streak != 1 {
		t.Fatalf("stats should merge keeping higher values, got level %d streak %d", stats.Level, stats.Streak)
	}
}

func TestSyncUploadsWhenLocalHasMore(t *testing.T) {
	ctx := context.Background()
	remote := &memoryRemote{docs: map[string]CloudData{"u1": {Cards: []models.Card{{ID: "x"}}}}}
	d := newDevice(t, remote, 2)

	out, err := d.syncer.Sync(ctx, "u1")
	if err != nil || out != OutcomeUploaded {
		t.Fatalf("expected upload, got %s %v", out, err)
	}
	if len(remote.docs["u1"].Cards) != 2 {
		t.Fatal("remote should be overwritten with local cards")
	}
}

func TestSQLRemote(t *testing.T) {
	db, err := database.Connect("sqlite3", filepath.Join(t.TempDir(), "cloud.db"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	remote := NewSQLRemote(db)
	fixed := time.Date(2025, 4, 15, 7, 0, 0, 0, time.UTC)
	remote.clock = func() time.Time { return fixed }

	if doc, err := remote.Load(ctx, "nobody"); err != nil || doc != nil {
		t.Fatalf("missing user should load nil, got %+v %v", doc, err)
	}

	stats := gamification.InitialStats()
	stats.Streak = 5
	data := CloudData{
		Decks: []models.Deck{{ID: "deck-1", Name: "Makanan"}},
		Cards: []models.Card{{ID: "c1", DeckID: "deck-1", Japanese: "猫"}},
		Stats: &stats,
	}
	if err := remote.Save(ctx, "u1", data); err != nil {
		t.Fatalf("save: %v", err)
	}
	data.Cards = append(data.Cards, models.Card{ID: "c2", DeckID: "deck-1", Japanese: "犬"})
	if err := remote.Save(ctx, "u1", data); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := remote.Load(ctx, "u1")
	if err != nil || got == nil {
		t.Fatalf("load: %+v %v", got, err)
	}
	if len(got.Cards) != 2 || got.Stats == nil || got.Stats.Streak != 5 {
		t.Fatalf("unexpected document %+v", got)
	}
	if !got.LastSyncedAt.Equal(fixed) {
		t.Fatalf("expected sync time %v, got %v", fixed, got.LastSyncedAt)
	}
}
