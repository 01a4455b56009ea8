package quote

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies a quotation stream tracked by the service.
type Kind string

const (
	// KindInternational is the international spot price converted to INR/gram.
	KindInternational Kind = "international"
	// KindBullion is the bullion association (IBJA) published rate.
	KindBullion Kind = "bullion"
)

// RetailerKind builds the Kind for a tracked retailer rate.
func RetailerKind(name string) Kind {
	return Kind("retailer:" + name)
}

// Retailer kinds tracked by default.
var (
	KindPNG    = RetailerKind("png")
	KindBhima  = RetailerKind("bhima")
	KindKalyan = RetailerKind("kalyan")
)

// RetailerName returns the retailer name for a retailer kind, or "".
func (k Kind) RetailerName() string {
	const prefix = "retailer:"
	s := string(k)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return ""
}

// Tiers carries per-mille purity rates published alongside the headline rate.
// A zero tier means the upstream did not publish it.
type Tiers struct {
	Gold999  decimal.Decimal
	Gold995  decimal.Decimal
	Gold916  decimal.Decimal
	Gold750  decimal.Decimal
	RateType string
}

// Quotation is a normalized price observation for one Kind.
type Quotation struct {
	Kind         Kind
	PricePerGram decimal.Decimal
	PriceUSD     decimal.Decimal
	Source       string
	Degraded     bool
	// FetchedAt is when the fetch completed on our side. Board ordering
	// keys on it.
	FetchedAt time.Time
	// PublishedAt is the upstream-published time, when the source reports
	// one. Informational only.
	PublishedAt time.Time
	Tiers       *Tiers
	Silver      decimal.Decimal
}

// Valid reports whether the quotation may be stored: the headline price
// must be a finite positive number.
func (q Quotation) Valid() bool {
	return q.PricePerGram.Sign() > 0
}
