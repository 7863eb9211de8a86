package classifier

// DefaultSalesKeywords are sales-oriented terms (Czech and English). They are
// normalized the same way as post text before matching, so diacritics and
// case do not matter.
var DefaultSalesKeywords = []string{
	"sleva", "slevy", "slevu", "akce", "akci", "výprodej", "cena", "ceny", "kup", "koupit",
	"nakup", "nákup", "objednej", "objednat", "objednávka", "doprava zdarma", "zdarma",
	"kód", "kupon", "kupón", "nabídka", "e-shop", "eshop", "skladem", "novinka v nabídce",
	"sale", "discount", "buy", "order now", "price", "offer", "deal", "shop now",
	"free shipping", "coupon", "promo", "limited time", "off",
}

// DefaultBrandKeywords are brand-story oriented terms (Czech and English).
var DefaultBrandKeywords = []string{
	"tým", "příběh", "historie", "hodnoty", "mise", "poslání", "zákulisí", "komunita",
	"výročí", "tradice", "kvalita", "řemeslo", "naše firma", "náš tým", "děkujeme",
	"team", "our story", "mission", "values", "behind the scenes", "community",
	"anniversary", "tradition", "quality", "craft", "heritage", "thank you",
}
