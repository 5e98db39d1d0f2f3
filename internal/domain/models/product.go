package models

// Статусы остатков в исходной записи каталога.
// Разные поставщики описывают остатки по-разному: явным статусом,
// числом или вообще никак — см. QuantityFor в доменных сервисах.
const (
	StockStatusInStock    = "in_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// StockInfo — гетерогенное представление остатков варианта.
// Явный статус "out_of_stock" имеет приоритет над числовым количеством.
type StockInfo struct {
	Status   string `json:"status,omitempty"`
	Quantity *int   `json:"quantity,omitempty"`
}

// ProductOption описывает одно измерение опций товара: имя и упорядоченный список значений
type ProductOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// VariantDescriptor описывает один вариант товара в записи каталога:
// комбинацию значений опций, цену и данные об остатках.
// Внутри одного товара комбинация (option1, option2, option3) уникальна.
type VariantDescriptor struct {
	Option1        string    `json:"option1,omitempty"`
	Option2        string    `json:"option2,omitempty"`
	Option3        string    `json:"option3,omitempty"`
	Price          string    `json:"price"`
	CompareAtPrice string    `json:"compare_at_price,omitempty"`
	SKU            string    `json:"sku,omitempty"`
	Stock          StockInfo `json:"stock"`
	ImageURL       string    `json:"image_url,omitempty"`
}

// OptionValues возвращает заполненные значения опций варианта в порядке измерений
func (v VariantDescriptor) OptionValues() []string {
	var values []string
	for _, val := range []string{v.Option1, v.Option2, v.Option3} {
		if val != "" {
			values = append(values, val)
		}
	}
	return values
}

// SourceProduct — запись каталога, которую нужно воспроизвести на стороне
// платформы. Неизменяема на все время одной выгрузки: после начала выгрузки
// состояние каталога повторно не читается.
type SourceProduct struct {
	ID           string              `json:"id"`
	TenantID     string              `json:"tenant_id,omitempty"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Vendor       string              `json:"vendor,omitempty"`
	Category     string              `json:"category,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Options      []ProductOption     `json:"options,omitempty"`
	Variants     []VariantDescriptor `json:"variants,omitempty"`
	PrimaryImage string              `json:"primary_image,omitempty"`
	Images       []string            `json:"images,omitempty"`
}

// ImageSources возвращает все источники изображений товара — главное,
// дополнительные и изображения вариантов — без дубликатов, с сохранением порядка
func (p *SourceProduct) ImageSources() []string {
	seen := make(map[string]bool)
	var sources []string

	add := func(url string) {
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		sources = append(sources, url)
	}

	add(p.PrimaryImage)
	for _, url := range p.Images {
		add(url)
	}
	for _, variant := range p.Variants {
		add(variant.ImageURL)
	}

	return sources
}
