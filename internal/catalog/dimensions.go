package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"storefront-service/internal/models"
)

// dynamicMarker is the dimension key that switches a product to
// formula-based pricing: one price covers arbitrary sizes.
const dynamicMarker = "1*1*1"

// DimensionData is the parsed pricing shape of one product.
type DimensionData struct {
	HasDimensions    bool
	PricingType      models.PricingType
	Dimensions       models.DimensionList
	StaticDimensions models.StaticDimensionList
}

// ParseDimensions interprets the dimensions cell, a JSON array of
// {"L*B*H": value} pairs where H may be omitted.
//
//	""/"[]"                ⇒ normal (flat price/stock on the product)
//	[{"1*1*1": price}]     ⇒ dynamic (single formula price)
//	anything else          ⇒ static (explicit per-size price/stock)
func ParseDimensions(raw string) (DimensionData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return DimensionData{PricingType: models.PricingTypeNormal}, nil
	}

	entries, err := decodeDimensionEntries(raw)
	if err != nil {
		return DimensionData{}, validationf("invalid dimensions encoding: %v", err)
	}
	if len(entries) == 0 {
		return DimensionData{PricingType: models.PricingTypeNormal}, nil
	}

	if len(entries) == 1 && entries[0].key == dynamicMarker {
		price, err := parseCellNumber(entries[0].value)
		if err != nil {
			return DimensionData{}, validationf("invalid dynamic price %s: %v", entries[0].value, err)
		}
		return DimensionData{
			HasDimensions: true,
			PricingType:   models.PricingTypeDynamic,
			Dimensions: models.DimensionList{
				{Length: 1, Breadth: 1, Height: 1, Price: price},
			},
		}, nil
	}

	data := DimensionData{
		HasDimensions: true,
		PricingType:   models.PricingTypeStatic,
	}
	for _, entry := range entries {
		dim, err := parseStaticEntry(entry)
		if err != nil {
			return DimensionData{}, err
		}
		data.StaticDimensions = append(data.StaticDimensions, dim)
	}
	return data, nil
}

type dimensionEntry struct {
	key   string
	value json.RawMessage
}

// decodeDimensionEntries walks the JSON token stream so multiple keys in
// one object keep their file order.
func decodeDimensionEntries(raw string) ([]dimensionEntry, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var entries []dimensionEntry
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected token %v", keyTok)
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, err
			}
			entries = append(entries, dimensionEntry{key: key, value: value})
		}
		if _, err := dec.Token(); err != nil { // closing }
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil { // closing ]
		return nil, err
	}
	return entries, nil
}

func expectDelim(dec *json.Decoder, want rune) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || rune(d) != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// parseStaticEntry turns one {"L*B*H": value} pair into a static
// dimension record. The value is a bare price or an object carrying
// price, stock and bulkPricing.
func parseStaticEntry(entry dimensionEntry) (models.StaticDimension, error) {
	parts := strings.Split(entry.key, "*")
	if len(parts) < 2 || len(parts) > 3 {
		return models.StaticDimension{}, validationf("invalid dimension key %q", entry.key)
	}

	var dims [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return models.StaticDimension{}, validationf("invalid dimension key %q", entry.key)
		}
		dims[i] = v
	}

	dim := models.StaticDimension{
		Length:  dims[0],
		Breadth: dims[1],
		Height:  dims[2],
	}

	if price, err := parseCellNumber(entry.value); err == nil {
		dim.Price = price
		return dim, nil
	}

	var detail struct {
		Price       json.RawMessage `json:"price"`
		Stock       json.RawMessage `json:"stock"`
		BulkPricing []struct {
			WholesalePrice json.RawMessage `json:"wholesalePrice"`
			Quantity       json.RawMessage `json:"quantity"`
		} `json:"bulkPricing"`
	}
	if err := json.Unmarshal(entry.value, &detail); err != nil {
		return models.StaticDimension{}, validationf("invalid value for dimension %q: %v", entry.key, err)
	}

	price, err := parseCellNumber(detail.Price)
	if err != nil {
		return models.StaticDimension{}, validationf("invalid price for dimension %q", entry.key)
	}
	dim.Price = price

	if len(detail.Stock) > 0 {
		if stock, err := parseCellNumber(detail.Stock); err == nil {
			dim.Stock = int(stock)
		}
	}

	for _, tier := range detail.BulkPricing {
		if isEmptyCell(tier.WholesalePrice) || isEmptyCell(tier.Quantity) {
			continue
		}
		wholesale, werr := parseCellNumber(tier.WholesalePrice)
		quantity, qerr := parseCellNumber(tier.Quantity)
		if werr != nil || qerr != nil {
			continue
		}
		dim.BulkPricing = append(dim.BulkPricing, models.BulkTier{
			WholesalePrice: wholesale,
			Quantity:       int(quantity),
		})
	}
	return dim, nil
}

// parseCellNumber accepts 250, "250" and "250.50"; spreadsheet exports
// quote numerics unpredictably.
func parseCellNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, fmt.Errorf("empty value")
		}
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("not a number: %s", raw)
}

func isEmptyCell(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == `""` || trimmed == "null"
}
