package classifier

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

func TestClassify(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		text string
		want models.ContentLabel
	}{
		{"percent with one sales keyword", "Sleva 50% dnes!", models.LabelSales},
		{"two sales keywords", "Velký výprodej, doprava zdarma!", models.LabelSales},
		{"two brand keywords", "Náš tým slaví výročí", models.LabelBrand},
		{"single sales keyword", "Nová cena od pondělí", models.LabelSales},
		{"single brand keyword", "Zákulisí dnešního focení", models.LabelBrand},
		{"mixed one and one", "Kvalita a nízká cena", models.LabelEngagement},
		{"question to fans", "Jaké je vaše oblíbené jídlo?", models.LabelEngagement},
		{"empty", "", models.LabelEngagement},
		{"punctuation only", "?!...", models.LabelEngagement},
		{"english sales", "Shop now: 20% off everything", models.LabelSales},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestClassify_NilAndEmptyAreEngagement(t *testing.T) {
	c := Default()
	empty := ""
	assert.Equal(t, models.LabelEngagement, c.ClassifyMessage(nil))
	assert.Equal(t, models.LabelEngagement, c.ClassifyMessage(&empty))
}

func TestClassify_Deterministic(t *testing.T) {
	c := Default()
	text := "Akce! Kup dva, druhý zdarma. Náš tým vám děkuje."
	first := c.Explain(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Explain(text))
	}
}

func TestShortKeywordsNeedWholeWord(t *testing.T) {
	c := New([]string{"kup"}, nil)

	assert.Equal(t, models.LabelSales, c.Classify("kup hned"))
	// "kup" inside "nakupovat" is not a whole word
	assert.Equal(t, models.LabelEngagement, c.Classify("rádi nakupujete?"))
}

func TestLongKeywordsMatchAsSubstring(t *testing.T) {
	c := New([]string{"sleva"}, nil)
	r := c.Explain("Mega-slevazaručena")
	assert.Equal(t, models.LabelSales, r.Label)
	assert.Equal(t, []string{"sleva"}, r.SalesKeywords)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Příběh NAŠÍ firmy!", "pribeh nasi firmy"},
		{"Sleva 50%, jen €9.99", "sleva 50% jen €9 99"},
		{"e-shop\n\nnovinky", "e shop novinky"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in), tt.in)
	}
}

func TestExplain_CapsKeywordLists(t *testing.T) {
	var keywords []string
	var words []string
	for i := 0; i < 30; i++ {
		kw := fmt.Sprintf("produkt%02d", i)
		keywords = append(keywords, kw)
		words = append(words, kw)
	}
	c := New(keywords, nil)

	r := c.Explain(strings.Join(words, " "))
	assert.Equal(t, models.LabelSales, r.Label)
	assert.Len(t, r.SalesKeywords, 20)
	assert.NotEmpty(t, r.Reasoning)
}

func TestClassifyPosts_DebugSample(t *testing.T) {
	c := Default(WithDebugSampleSize(2))
	msg := "Sleva 30% na vše"
	posts := []models.NormalizedPost{
		{ID: "1", Message: &msg},
		{ID: "2"},
		{ID: "3", Message: &msg},
	}

	out := c.ClassifyPosts(posts)
	require.Len(t, out, 3)

	assert.Equal(t, models.LabelSales, out[0].Label)
	assert.Equal(t, []string{"sleva"}, out[0].SalesKeywords)
	assert.NotEmpty(t, out[0].Reasoning)

	assert.Equal(t, models.LabelEngagement, out[1].Label)
	assert.Equal(t, "no text", out[1].Reasoning)

	assert.Equal(t, models.LabelSales, out[2].Label)
	assert.Empty(t, out[2].SalesKeywords)
	assert.Empty(t, out[2].Reasoning)

	mix := MixOf(out)
	assert.Equal(t, Mix{Sales: 2, Engagement: 1}, mix)
	assert.InDelta(t, 2.0/3.0, mix.Share(models.LabelSales), 1e-9)
	assert.Equal(t, 0.0, Mix{}.Share(models.LabelBrand))
}

func TestClassify_ConcurrentUse(t *testing.T) {
	c := Default()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := c.Classify("Výprodej a doprava zdarma"); got != models.LabelSales {
					t.Errorf("got %s", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
