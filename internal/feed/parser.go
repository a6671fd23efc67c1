package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Schema names the container tags of one chain's feed dialect. Most
// publishers use Item/Promotion, the Matrix-engine portals use
// Product/Sale with a different update tag.
type Schema struct {
	ItemTag        string
	PromoTag       string
	PromoUpdateTag string
	StoreTag       string
}

// DefaultSchema covers the common publisher dialect.
func DefaultSchema() Schema {
	return Schema{
		ItemTag:        "Item",
		PromoTag:       "Promotion",
		PromoUpdateTag: "PromotionUpdateDate",
		StoreTag:       "Store",
	}
}

func (s Schema) withDefaults() Schema {
	d := DefaultSchema()
	if s.ItemTag == "" {
		s.ItemTag = d.ItemTag
	}
	if s.PromoTag == "" {
		s.PromoTag = d.PromoTag
	}
	if s.PromoUpdateTag == "" {
		s.PromoUpdateTag = d.PromoUpdateTag
	}
	if s.StoreTag == "" {
		s.StoreTag = d.StoreTag
	}
	return s
}

// ParseItems extracts the product records from a price feed document.
func ParseItems(r io.Reader, schema Schema) ([]ItemRecord, error) {
	schema = schema.withDefaults()

	var records []ItemRecord
	err := walk(r, schema.ItemTag, func(n *node) {
		records = append(records, ItemRecord{
			Code: n.childText("ItemCode"),
			// Publishers disagree on the spelling of the name and
			// manufacturer tags.
			Name:           n.childText("ItemName", "ItemNm", "ItemNm1"),
			Manufacturer:   n.childText("ManufacturerName", "ManufactureName"),
			Price:          n.childText("ItemPrice"),
			PriceByMeasure: n.childText("UnitOfMeasurePrice"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("parse price feed: %w", err)
	}
	return records, nil
}

// ParsePromos extracts the promotion records from a promotions feed
// document, in document order.
func ParsePromos(r io.Reader, schema Schema) ([]PromoRecord, error) {
	schema = schema.withDefaults()

	var records []PromoRecord
	err := walk(r, schema.PromoTag, func(n *node) {
		records = append(records, PromoRecord{
			PromotionID:            n.childText("PromotionId"),
			Description:            n.childText("PromotionDescription"),
			StartDate:              n.childText("PromotionStartDate"),
			StartHour:              n.childText("PromotionStartHour"),
			EndDate:                n.childText("PromotionEndDate"),
			EndHour:                n.childText("PromotionEndHour"),
			UpdateDate:             n.childText(schema.PromoUpdateTag),
			RewardType:             n.childText("RewardType"),
			DiscountRate:           n.childText("DiscountRate"),
			DiscountedPrice:        n.childText("DiscountedPrice"),
			MinQty:                 n.childText("MinQty"),
			MaxQty:                 n.childText("MaxQty"),
			ClubID:                 n.childText("ClubId"),
			AllowMultipleDiscounts: n.childText("AllowMultipleDiscounts"),
			Remark:                 n.childText("Remark"),
			ItemCodes:              n.findAllText("ItemCode"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("parse promotions feed: %w", err)
	}
	return records, nil
}

// ParseStores extracts the branch records from a stores feed document.
func ParseStores(r io.Reader, schema Schema) ([]StoreRecord, error) {
	schema = schema.withDefaults()

	var records []StoreRecord
	err := walk(r, schema.StoreTag, func(n *node) {
		records = append(records, StoreRecord{
			ID:      n.childText("StoreId"),
			Name:    n.childText("StoreName", "SubChainName"),
			City:    n.childText("City"),
			Address: n.childText("Address"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("parse stores feed: %w", err)
	}
	return records, nil
}

// node is a parsed element subtree. Feed dialects vary tag spelling and
// nesting, so lookups are name-based and case-insensitive rather than
// bound to fixed struct tags.
type node struct {
	name     string
	text     strings.Builder
	children []*node
}

// walk streams the document and invokes fn for every element whose name
// matches tag, with its fully-parsed subtree.
func walk(r io.Reader, tag string, fn func(*node)) error {
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, tag) {
			continue
		}
		subtree, err := parseSubtree(decoder, start)
		if err != nil {
			return err
		}
		fn(subtree)
	}
}

func parseSubtree(decoder *xml.Decoder, start xml.StartElement) (*node, error) {
	n := &node{name: start.Name.Local}
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseSubtree(decoder, t)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		case xml.CharData:
			n.text.Write(t)
		case xml.EndElement:
			return n, nil
		}
	}
}

// childText returns the trimmed text of the first direct child matching
// any of the given names, tried in order.
func (n *node) childText(names ...string) string {
	for _, name := range names {
		for _, child := range n.children {
			if strings.EqualFold(child.name, name) {
				return strings.TrimSpace(child.text.String())
			}
		}
	}
	return ""
}

// findAllText returns the trimmed text of every descendant matching name,
// in document order.
func (n *node) findAllText(name string) []string {
	var out []string
	for _, child := range n.children {
		if strings.EqualFold(child.name, name) {
			out = append(out, strings.TrimSpace(child.text.String()))
		}
		out = append(out, child.findAllText(name)...)
	}
	return out
}
