package quote

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func quotation(kind Kind, price int64, at time.Time) Quotation {
	return Quotation{
		Kind:         kind,
		PricePerGram: decimal.NewFromInt(price),
		Source:       "test",
		FetchedAt:    at,
	}
}

func TestBoardPutAndGet(t *testing.T) {
	b := NewBoard()
	now := time.Now()

	if _, ok := b.Get(KindBullion); ok {
		t.Fatal("empty board returned a quotation")
	}

	if !b.Put(quotation(KindBullion, 15580, now)) {
		t.Fatal("first write rejected")
	}

	q, ok := b.Get(KindBullion)
	if !ok || !q.PricePerGram.Equal(decimal.NewFromInt(15580)) {
		t.Fatalf("got %+v, ok=%v", q, ok)
	}
}

func TestBoardRejectsOlderWrite(t *testing.T) {
	b := NewBoard()
	now := time.Now()

	b.Put(quotation(KindInternational, 14500, now))
	if b.Put(quotation(KindInternational, 9999, now.Add(-time.Minute))) {
		t.Fatal("stale write accepted")
	}

	q, _ := b.Get(KindInternational)
	if !q.PricePerGram.Equal(decimal.NewFromInt(14500)) {
		t.Fatalf("stale write clobbered board: %s", q.PricePerGram)
	}

	if !b.Put(quotation(KindInternational, 14600, now.Add(time.Minute))) {
		t.Fatal("newer write rejected")
	}
}

func TestBoardSnapshotIsACopy(t *testing.T) {
	b := NewBoard()
	now := time.Now()
	b.Put(quotation(KindPNG, 15380, now))

	snap := b.Snapshot()
	snap[KindPNG] = quotation(KindPNG, 1, now)
	delete(snap, KindPNG)

	q, ok := b.Get(KindPNG)
	if !ok || !q.PricePerGram.Equal(decimal.NewFromInt(15380)) {
		t.Fatalf("snapshot mutation leaked into board: %+v ok=%v", q, ok)
	}
}

func TestBoardLastUpdated(t *testing.T) {
	b := NewBoard()
	if !b.LastUpdated().IsZero() {
		t.Fatal("empty board reported a last update")
	}

	base := time.Now()
	b.Put(quotation(KindInternational, 14500, base))
	b.Put(quotation(KindBullion, 15580, base.Add(time.Minute)))

	if got := b.LastUpdated(); !got.Equal(base.Add(time.Minute)) {
		t.Fatalf("last updated = %s, want %s", got, base.Add(time.Minute))
	}
}

func TestRetailerKind(t *testing.T) {
	if KindKalyan != Kind("retailer:kalyan") {
		t.Fatalf("unexpected kind %q", KindKalyan)
	}
	if got := KindKalyan.RetailerName(); got != "kalyan" {
		t.Fatalf("retailer name = %q", got)
	}
	if got := KindBullion.RetailerName(); got != "" {
		t.Fatalf("non-retailer kind returned name %q", got)
	}
}

func TestQuotationValid(t *testing.T) {
	if (Quotation{}).Valid() {
		t.Fatal("zero quotation reported valid")
	}
	if (Quotation{PricePerGram: decimal.NewFromInt(-5)}).Valid() {
		t.Fatal("negative price reported valid")
	}
	if !(Quotation{PricePerGram: decimal.NewFromInt(1)}).Valid() {
		t.Fatal("positive price reported invalid")
	}
}
