package extract

import "regexp"

// Site bundles everything that is tied to one site's current markup:
// best-effort DOM selectors, the generic placeholder title pattern, the
// item-URL shape, and the section-label strings used by the text locators.
// Markup drift is handled by editing this data, not the extraction flow.
type Site struct {
	Name string

	// GenericTitle matches the site-wide placeholder title that signals
	// the item page has not actually loaded.
	GenericTitle *regexp.Regexp

	// ItemPath matches the URL path of a real item page; used by the
	// rendered path to confirm arrival.
	ItemPath *regexp.Regexp

	TitleSelectors       []string
	PriceSelectors       []string
	BrandSelectors       []string
	ConditionSelectors   []string
	DescriptionSelectors []string

	// DescriptionLabels are heading texts that start a description section;
	// SectionLabels are headings that end one.
	DescriptionLabels []string
	SectionLabels     []string

	// SpecLabels and FeatureLabels mark manufacturer spec/feature sections.
	SpecLabels    []string
	FeatureLabels []string
}

// IsGenericTitle reports whether a title is the site's placeholder.
func (s *Site) IsGenericTitle(title string) bool {
	return title != "" && s.GenericTitle != nil && s.GenericTitle.MatchString(title)
}

// Mercari describes Mercari JP item pages. The data-testid attributes drift
// between frontend releases, so several generations are listed.
func Mercari() *Site {
	return &Site{
		Name:         "mercari",
		GenericTitle: regexp.MustCompile(`メルカリ\s*-\s*日本最大のフリマサービス|Mercari`),
		ItemPath:     regexp.MustCompile(`/item/`),
		TitleSelectors: []string{
			`[data-testid="name"]`,
			`h1[class*="heading"]`,
			`h1`,
		},
		PriceSelectors: []string{
			`[data-testid="price"]`,
			`[data-testid="product-price"]`,
			`div[class*="price"]`,
		},
		BrandSelectors: []string{
			`[data-testid="brand-name"]`,
			`a[href*="/brand/"]`,
		},
		ConditionSelectors: []string{
			`[data-testid="商品の状態"]`,
			`[data-testid="item-condition"]`,
		},
		DescriptionSelectors: []string{
			`[data-testid="item-description"]`,
			`pre[class*="description"]`,
		},
		DescriptionLabels: []string{"商品の説明"},
		SectionLabels:     []string{"商品の情報", "商品の状態", "配送料の負担", "出品者", "コメント"},
	}
}

// Maker describes manufacturer product reference pages. There is no single
// markup to target, so the selectors stay generic and the structured-data
// locator carries most of the weight.
func Maker() *Site {
	return &Site{
		Name:         "maker",
		GenericTitle: regexp.MustCompile(`^(404|Not Found|ページが見つかりません)`),
		ItemPath:     regexp.MustCompile(`.`),
		TitleSelectors: []string{
			`h1[itemprop="name"]`,
			`h1`,
		},
		PriceSelectors: []string{
			`[itemprop="price"]`,
			`[class*="price"]`,
		},
		BrandSelectors: []string{
			`[itemprop="brand"]`,
		},
		DescriptionSelectors: []string{
			`[itemprop="description"]`,
			`section[class*="description"]`,
		},
		DescriptionLabels: []string{"製品概要", "概要", "Description"},
		SectionLabels:     []string{"仕様", "スペック", "関連製品", "サポート"},
		SpecLabels:        []string{"仕様", "スペック", "Specifications", "Specs"},
		FeatureLabels:     []string{"特長", "特徴", "Features"},
	}
}

// SiteFor returns the adapter for a request's site name, defaulting to the
// marketplace adapter.
func SiteFor(name string) *Site {
	if name == "maker" {
		return Maker()
	}
	return Mercari()
}
