package extract

// DefaultPriceSelectors are tried in order; the first selector that matches
// an element with a value wins, regardless of where in the page the other
// matches sit.
var DefaultPriceSelectors = []string{
	".price",
	"#price",
	".product-price",
	`[itemprop="price"]`,
	".offer-price",
	".sales-price",
	".current-price",
}

// Candidate lists for the meta-driven fields. Open Graph and Twitter Card
// tags are written for link previews, so they outrank generic markup.
var (
	titleCandidates = []Candidate{
		MetaProperty("og:title"),
		MetaName("twitter:title"),
		MetaProperty("twitter:title"),
		mustElementText("title"),
	}

	descriptionCandidates = []Candidate{
		MetaProperty("og:description"),
		MetaName("description"),
		MetaName("twitter:description"),
		MetaProperty("twitter:description"),
	}

	imageCandidates = []Candidate{
		MetaProperty("og:image"),
		MetaName("twitter:image"),
		MetaProperty("twitter:image"),
	}
)

// RawFields are the un-normalized values pulled from a page. Empty strings
// mean no candidate matched.
type RawFields struct {
	Title       string
	Description string
	Image       string
	Price       string
	Domain      string
}

// Extractor runs the ordered candidate lists against a Document. It holds
// no mutable state and is safe for concurrent use.
type Extractor struct {
	title       []Candidate
	description []Candidate
	image       []Candidate
	price       []Candidate
}

// NewExtractor compiles the price selectors. A nil or empty list selects
// DefaultPriceSelectors.
func NewExtractor(priceSelectors []string) (*Extractor, error) {
	if len(priceSelectors) == 0 {
		priceSelectors = DefaultPriceSelectors
	}

	price := make([]Candidate, 0, len(priceSelectors))
	for _, s := range priceSelectors {
		c, err := ElementValue(s)
		if err != nil {
			return nil, err
		}
		price = append(price, c)
	}

	return &Extractor{
		title:       titleCandidates,
		description: descriptionCandidates,
		image:       imageCandidates,
		price:       price,
	}, nil
}

// Extract pulls every field. The domain comes from pageURL, not the document.
func (e *Extractor) Extract(doc *Document, pageURL string) RawFields {
	return RawFields{
		Title:       FirstOf(doc, e.title),
		Description: FirstOf(doc, e.description),
		Image:       FirstOf(doc, e.image),
		Price:       FirstOf(doc, e.price),
		Domain:      Domain(pageURL),
	}
}
